package goJWT

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goJWT/convert"
	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
	"github.com/MrEthical07/goJWT/value"
)

const (
	opEncode = "jwt encode"
	opDecode = "jwt decode"
)

// Codec encodes header and claims tables into signed tokens and decodes tokens back
// into tables. A Codec keeps no per-call state and is safe for concurrent use.
//
// Every document and signing structure a call creates is released before the call
// returns, whichever stage it ends in.
type Codec struct {
	cfg       Config
	primitive Primitive
	alloc     document.Allocator
	conv      *convert.Converter
	allowed   map[jwt.Algorithm]struct{}
	metrics   *Metrics
	audit     *auditDispatcher
	logger    zerolog.Logger
	closed    atomic.Bool

	now     func() time.Time
	tokenID func() string
}

// releaser is anything a call must hand back before returning.
type releaser interface {
	Release()
}

// cleanup releases registered resources in reverse order, exactly once.
type cleanup struct {
	items []releaser
}

func (c *cleanup) add(r releaser) {
	c.items = append(c.items, r)
}

func (c *cleanup) run() {
	for i := len(c.items) - 1; i >= 0; i-- {
		c.items[i].Release()
	}
	c.items = nil
}

// NewCodec is shorthand for New().WithConfig(cfg).Build().
func NewCodec(cfg Config) (*Codec, error) {
	return New().WithConfig(cfg).Build()
}

// Encode signs header and claims with key. The header must name its algorithm in
// "alg"; "none" takes an empty key, every other algorithm requires one.
func (c *Codec) Encode(ctx context.Context, header, claims *value.Table, key []byte) (string, error) {
	start := time.Now()
	event := AuditEvent{EventType: AuditEventTokenEncode}

	token, err := c.encode(header, claims, key, &event)
	c.finish(ctx, opEncode, start, &event, err)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (c *Codec) encode(header, claims *value.Table, key []byte, event *AuditEvent) (string, error) {
	if c.closed.Load() {
		return "", &Error{Op: opEncode, Stage: StageInput, Kind: ErrCodecClosed}
	}
	if header == nil || claims == nil {
		return "", &Error{Op: opEncode, Stage: StageInput, Kind: ErrInvalidInput}
	}

	alg, err := c.resolveAlgorithm(header)
	if err != nil {
		return "", err
	}
	event.Algorithm = alg.String()

	var scope cleanup
	defer scope.run()

	headerDoc, err := c.conv.ToObject(header)
	if err != nil {
		return "", convertError(opEncode, StageHeader, err)
	}
	scope.add(headerDoc)

	claimsDoc, err := c.conv.ToObject(claims)
	if err != nil {
		return "", convertError(opEncode, StageClaims, err)
	}
	scope.add(claimsDoc)

	if err := c.registeredClaims(claimsDoc); err != nil {
		return "", convertError(opEncode, StageClaims, err)
	}
	event.TokenID = claimsDoc.Get("jti").Str()
	event.Subject = claimsDoc.Get("sub").Str()

	signer, err := c.primitive.NewSigner()
	if err != nil {
		return "", &Error{Op: opEncode, Stage: StageNew, Kind: ErrPrimitive, Err: err}
	}
	scope.add(signer)

	if err := signer.SetAlgorithm(alg, key); err != nil {
		return "", &Error{Op: opEncode, Stage: StageSetAlgorithm, Kind: ErrPrimitive, Err: err}
	}
	if err := signer.AddHeaders(headerDoc); err != nil {
		return "", &Error{Op: opEncode, Stage: StageAttachHeader, Kind: ErrPrimitive, Err: err}
	}
	if err := signer.AddClaims(claimsDoc); err != nil {
		return "", &Error{Op: opEncode, Stage: StageAttachClaims, Kind: ErrPrimitive, Err: err}
	}

	token, err := signer.Encode()
	if err != nil || token == "" {
		return "", &Error{Op: opEncode, Stage: StageSerialize, Kind: ErrEncodeToken, Err: err}
	}
	return token, nil
}

// resolveAlgorithm reads "alg" from the header. Strings and numbers are looked up by
// name; any other kind, or no entry, means the algorithm is not set.
func (c *Codec) resolveAlgorithm(header *value.Table) (jwt.Algorithm, error) {
	var name string
	v := header.Field("alg")
	switch v.Kind() {
	case value.KindString:
		name, _ = v.AsString()
	case value.KindNumber:
		n, _ := v.AsNumber()
		name = strconv.FormatFloat(n, 'g', 14, 64)
	default:
		return jwt.AlgInvalid, &Error{Op: opEncode, Stage: StageAlgorithm, Kind: ErrAlgorithmNotSet}
	}

	alg := jwt.ParseAlgorithm(name)
	if !alg.Valid() || !c.algorithmAllowed(alg) {
		return jwt.AlgInvalid, &Error{Op: opEncode, Stage: StageAlgorithm, Kind: ErrUnsupportedAlgorithm}
	}
	return alg, nil
}

func (c *Codec) algorithmAllowed(alg jwt.Algorithm) bool {
	if len(c.allowed) == 0 {
		return true
	}
	_, ok := c.allowed[alg]
	return ok
}

// registeredClaims adds the jti and iat claims the configuration asks for. Values
// already present are kept.
func (c *Codec) registeredClaims(claims *document.Node) error {
	if c.cfg.IssueTokenID && claims.Get("jti") == nil {
		n, err := document.NewString(c.alloc, c.tokenID())
		if err != nil {
			return err
		}
		if err := claims.Set("jti", n); err != nil {
			return err
		}
		c.metrics.Inc(MetricTokenIDIssued)
	}
	if c.cfg.IssuedAt && claims.Get("iat") == nil {
		n, err := document.NewInteger(c.alloc, c.now().Unix())
		if err != nil {
			return err
		}
		if err := claims.Set("iat", n); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses token and returns its header and claims. With a non-empty key the
// signature is verified first; without one the token is only parsed.
func (c *Codec) Decode(ctx context.Context, token string, key []byte) (*value.Table, *value.Table, error) {
	start := time.Now()
	event := AuditEvent{EventType: AuditEventTokenDecode, Verified: len(key) > 0}

	header, claims, err := c.decode(token, key, &event)
	c.finish(ctx, opDecode, start, &event, err)
	if err != nil {
		return nil, nil, err
	}
	return header, claims, nil
}

func (c *Codec) decode(token string, key []byte, event *AuditEvent) (*value.Table, *value.Table, error) {
	if c.closed.Load() {
		return nil, nil, &Error{Op: opDecode, Stage: StageInput, Kind: ErrCodecClosed}
	}

	var scope cleanup
	defer scope.run()

	decoded, err := c.primitive.Decode(token, key)
	if err != nil {
		return nil, nil, &Error{Op: opDecode, Stage: StageDecode, Kind: ErrPrimitive, Err: err}
	}
	scope.add(decoded)

	event.Algorithm = decoded.Header().Get("alg").Str()
	event.TokenID = decoded.Claims().Get("jti").Str()
	event.Subject = decoded.Claims().Get("sub").Str()

	header, err := c.conv.ToValue(decoded.Header())
	if err != nil {
		return nil, nil, convertError(opDecode, StageHeader, err)
	}
	claims, err := c.conv.ToValue(decoded.Claims())
	if err != nil {
		return nil, nil, convertError(opDecode, StageClaims, err)
	}
	return header, claims, nil
}

func convertError(op string, stage Stage, err error) error {
	kind := ErrAllocation
	switch {
	case errors.Is(err, ErrMaxDepth):
		kind = ErrMaxDepth
	case errors.Is(err, convert.ErrNotContainer):
		kind = ErrInvalidInput
	}
	return &Error{Op: op, Stage: stage, Kind: kind, Err: err}
}

// finish records metrics, logs and audits a completed call.
func (c *Codec) finish(ctx context.Context, op string, start time.Time, event *AuditEvent, err error) {
	elapsed := time.Since(start)

	success, failure, latency := MetricEncodeSuccess, MetricEncodeFailure, MetricEncodeLatency
	if op == opDecode {
		success, failure, latency = MetricDecodeSuccess, MetricDecodeFailure, MetricDecodeLatency
	}
	c.metrics.Observe(latency, elapsed)

	event.Latency = elapsed
	event.Success = err == nil
	if err == nil {
		c.metrics.Inc(success)
		if op == opDecode && event.Verified {
			c.metrics.Inc(MetricDecodeVerified)
		}
	} else {
		c.metrics.Inc(failure)
		var e *Error
		if errors.As(err, &e) {
			c.metrics.Inc(kindMetric(e.Kind))
			event.Stage = e.Stage.String()
			c.logger.Debug().
				Str("op", op).
				Stringer("stage", e.Stage).
				Str("alg", event.Algorithm).
				Err(err).
				Msg("token operation failed")
		}
		event.Error = err.Error()
	}

	c.audit.Emit(ctx, *event)
}

func kindMetric(kind error) MetricID {
	switch kind {
	case ErrInvalidInput, ErrCodecClosed:
		return MetricInvalidInput
	case ErrAlgorithmNotSet:
		return MetricAlgorithmNotSet
	case ErrUnsupportedAlgorithm:
		return MetricUnsupportedAlgorithm
	case ErrEncodeToken:
		return MetricSerializeFailure
	case ErrMaxDepth:
		return MetricMaxDepthExceeded
	case ErrAllocation:
		return MetricAllocationFailure
	default:
		return MetricPrimitiveFailure
	}
}

// Config returns a copy of the codec configuration.
func (c *Codec) Config() Config {
	return cloneConfig(c.cfg)
}

// MetricsSnapshot copies the codec counters. It is empty when metrics are disabled.
func (c *Codec) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports audit events lost to a full dispatcher buffer.
func (c *Codec) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close stops the audit dispatcher after delivering queued events. Later calls fail
// with ErrCodecClosed. Close is idempotent.
func (c *Codec) Close() {
	if c == nil {
		return
	}
	c.closed.Store(true)
	c.audit.Close()
}

func newTokenID() string {
	return uuid.NewString()
}
