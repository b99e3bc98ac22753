package goJWT

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
	"github.com/MrEthical07/goJWT/value"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)
	claims := sampleClaims()

	token := mustEncode(t, c, hsHeader(), claims, testKey)
	header, got, err := c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)

	assert.True(t, claims.Equal(got))
	if diff := cmp.Diff(claims.Interface(), got.Interface()); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}

	alg, _ := header.Field("alg").AsString()
	typ, _ := header.Field("typ").AsString()
	kid, _ := header.Field("kid").AsString()
	assert.Equal(t, "HS256", alg)
	assert.Equal(t, "JWT", typ)
	assert.Equal(t, "key-1", kid)

	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestEncodeStageFailureReleasesEverything(t *testing.T) {
	stages := []struct {
		stage Stage
		kind  error
	}{
		{StageNew, ErrPrimitive},
		{StageSetAlgorithm, ErrPrimitive},
		{StageAttachHeader, ErrPrimitive},
		{StageAttachClaims, ErrPrimitive},
		{StageSerialize, ErrEncodeToken},
	}

	for _, tc := range stages {
		t.Run(tc.stage.String(), func(t *testing.T) {
			c, fp, heap := testCodec(t, defaultConfig(), 0)
			fp.failOn(tc.stage)

			token, err := c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
			require.Error(t, err)
			assert.Empty(t, token)
			assert.ErrorIs(t, err, tc.kind)

			stage, ok := StageOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.stage, stage)

			assert.Equal(t, int64(0), heap.Live(), "document nodes leaked")
			assert.Equal(t, int64(0), fp.live.Load(), "signing structure leaked")
		})
	}
}

func TestPrimitiveErrorMessageIsSurfaced(t *testing.T) {
	c, fp, _ := testCodec(t, defaultConfig(), 0)
	fp.failOn(StageSetAlgorithm)

	_, err := c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, "jwt encode: cannot allocate memory", err.Error())

	fp.failOn(StageSerialize)
	_, err = c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
	assert.Equal(t, "jwt encode: can't encode jwt token", err.Error())
}

func TestEncodeAllocationFailureAtEveryBudget(t *testing.T) {
	probe, _, probeHeap := testCodec(t, defaultConfig(), 0)
	mustEncode(t, probe, hsHeader(), sampleClaims(), testKey)
	total := int(probeHeap.Allocated())
	require.Greater(t, total, 20)

	failures := 0
	for limit := 1; limit <= total; limit++ {
		c, fp, heap := testCodec(t, defaultConfig(), limit)
		token, err := c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
		if err != nil {
			failures++
			assert.Empty(t, token)
			assert.ErrorIs(t, err, document.ErrOutOfMemory, "limit %d", limit)
		}
		require.Equal(t, int64(0), heap.Live(), "limit %d leaked nodes", limit)
		require.Equal(t, int64(0), fp.live.Load(), "limit %d leaked signer", limit)
	}
	assert.Greater(t, failures, 0)
}

func TestDecodeFailureReleasesEverything(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)
	token := mustEncode(t, c, hsHeader(), sampleClaims(), testKey)

	fp.failOn(StageDecode)
	header, claims, err := c.Decode(context.Background(), token, testKey)
	require.ErrorIs(t, err, ErrPrimitive)
	require.ErrorIs(t, err, errInjected)
	assert.Nil(t, header)
	assert.Nil(t, claims)
	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestDecodeDepthFailureReleasesToken(t *testing.T) {
	deep := value.NewTable()
	cur := deep
	for i := 0; i < 6; i++ {
		next := value.NewTable()
		cur.SetField("n", value.FromTable(next))
		cur = next
	}
	cur.SetField("leaf", value.Bool(true))

	signer, _, _ := testCodec(t, defaultConfig(), 0)
	token := mustEncode(t, signer, hsHeader(), value.Object("deep", deep), testKey)

	cfg := defaultConfig()
	cfg.MaxDepth = 4
	c, fp, heap := testCodec(t, cfg, 0)
	_, _, err := c.Decode(context.Background(), token, testKey)
	require.Error(t, err)
	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestEncodeDepthLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxDepth = 3
	c, fp, heap := testCodec(t, cfg, 0)

	claims := value.Object("a", value.Object("b", value.Object("c", value.Object("d", 1))))
	_, err := c.Encode(context.Background(), hsHeader(), claims, testKey)
	require.ErrorIs(t, err, ErrMaxDepth)
	stage, _ := StageOf(err)
	assert.Equal(t, StageClaims, stage)
	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.created.Load())
}

func TestArrayReindexingThroughToken(t *testing.T) {
	c, _, _ := testCodec(t, defaultConfig(), 0)
	claims := value.Object("list", value.NewArray(value.String("a"), value.String("b"), value.String("c")))

	token := mustEncode(t, c, hsHeader(), claims, testKey)
	_, got, err := c.Decode(context.Background(), token, nil)
	require.NoError(t, err)

	list, ok := got.Field("list").AsTable()
	require.True(t, ok)
	want := map[int64]string{1: "a", 2: "b", 3: "c"}
	require.Equal(t, len(want), list.Len())
	for k, v := range want {
		s, _ := list.Index(k).AsString()
		assert.Equal(t, v, s)
	}
}

func TestNonFiniteNumbersDroppedOnEncode(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)

	header := hsHeader()
	header.SetField("x-nan", value.Number(math.NaN()))
	claims := value.Object("sub", "u", "bad", math.NaN(), "big", math.Inf(1), "small", math.Inf(-1))

	token := mustEncode(t, c, header, claims, testKey)

	gotHeader, gotClaims, err := c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)
	assert.True(t, gotHeader.Field("x-nan").IsNull())
	assert.True(t, value.Object("sub", "u").Equal(gotClaims))

	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestNoneAlgorithmWithEmptyKey(t *testing.T) {
	c, _, _ := testCodec(t, defaultConfig(), 0)

	token := mustEncode(t, c, value.Object("alg", "none"), value.Object("sub", "x"), nil)
	assert.True(t, strings.HasSuffix(token, "."))

	header, claims, err := c.Decode(context.Background(), token, nil)
	require.NoError(t, err)
	alg, _ := header.Field("alg").AsString()
	assert.Equal(t, "none", alg)
	sub, _ := claims.Field("sub").AsString()
	assert.Equal(t, "x", sub)

	_, err = c.Encode(context.Background(), value.Object("alg", "none"), value.NewTable(), testKey)
	require.ErrorIs(t, err, ErrPrimitive)
	require.ErrorIs(t, err, jwt.ErrKeyNotAllowed)
}

func TestUnsupportedAlgorithmHasNoSideEffects(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)

	for _, alg := range []any{"bogus", "hs256", "NONE", "None", 256} {
		_, err := c.Encode(context.Background(), value.Object("alg", alg), sampleClaims(), testKey)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm, "alg %v", alg)
		stage, _ := StageOf(err)
		assert.Equal(t, StageAlgorithm, stage)
	}
	assert.Equal(t, uint64(0), heap.Allocated())
	assert.Equal(t, int64(0), fp.created.Load())
}

func TestMissingAlgorithm(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)

	for _, header := range []*value.Table{
		value.NewTable(),
		value.Object("typ", "JWT"),
		value.Object("alg", true),
		value.Object("alg", value.NewTable()),
	} {
		_, err := c.Encode(context.Background(), header, sampleClaims(), testKey)
		require.ErrorIs(t, err, ErrAlgorithmNotSet)
		assert.Equal(t, "jwt encode: algorithm doesn't set", err.Error())
	}
	assert.Equal(t, uint64(0), heap.Allocated())
	assert.Equal(t, int64(0), fp.created.Load())
}

func TestNilHeaderOrClaims(t *testing.T) {
	c, _, _ := testCodec(t, defaultConfig(), 0)

	_, err := c.Encode(context.Background(), nil, sampleClaims(), testKey)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.Encode(context.Background(), hsHeader(), nil, testKey)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "jwt encode: invalid header or claim", err.Error())
}

func TestVerificationGating(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)
	claims := sampleClaims()
	token := mustEncode(t, c, hsHeader(), claims, testKey)

	_, got, err := c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)
	assert.True(t, claims.Equal(got))

	header, got, err := c.Decode(context.Background(), token, []byte("not-the-key"))
	require.ErrorIs(t, err, ErrPrimitive)
	assert.Nil(t, header)
	assert.Nil(t, got)
	stage, _ := StageOf(err)
	assert.Equal(t, StageDecode, stage)

	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestNullClaimsDroppedOnDecode(t *testing.T) {
	p := jwt.NewPrimitive(jwt.Options{})
	signer, err := p.NewSigner()
	require.NoError(t, err)
	defer signer.Release()
	require.NoError(t, signer.SetAlgorithm(jwt.AlgHS256, testKey))
	doc, err := document.Parse([]byte(`{"a":null,"b":1}`), nil, 0)
	require.NoError(t, err)
	require.NoError(t, signer.AddClaims(doc))
	doc.Release()
	token, err := signer.Encode()
	require.NoError(t, err)

	c, _, _ := testCodec(t, defaultConfig(), 0)
	_, claims, err := c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)

	assert.Equal(t, 1, claims.Len())
	_, ok := claims.Lookup(value.StringKey("a"))
	assert.False(t, ok)
	b, _ := claims.Field("b").AsNumber()
	assert.Equal(t, float64(1), b)
}

func TestRegisteredClaimsIssued(t *testing.T) {
	cfg := defaultConfig()
	cfg.IssueTokenID = true
	cfg.IssuedAt = true
	cfg.Metrics.Enabled = true
	c, _, _ := testCodec(t, cfg, 0)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	c.tokenID = func() string { return "fixed-id" }

	token := mustEncode(t, c, hsHeader(), value.Object("sub", "u"), testKey)
	_, claims, err := c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)
	jti, _ := claims.Field("jti").AsString()
	iat, _ := claims.Field("iat").AsNumber()
	assert.Equal(t, "fixed-id", jti)
	assert.Equal(t, float64(1700000000), iat)
	assert.Equal(t, uint64(1), c.metrics.Value(MetricTokenIDIssued))

	own := value.Object("jti", "caller-id", "iat", 5)
	token = mustEncode(t, c, hsHeader(), own, testKey)
	_, claims, err = c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)
	jti, _ = claims.Field("jti").AsString()
	iat, _ = claims.Field("iat").AsNumber()
	assert.Equal(t, "caller-id", jti)
	assert.Equal(t, float64(5), iat)
}

func TestIssuedTokenIDIsUUID(t *testing.T) {
	cfg := defaultConfig()
	cfg.IssueTokenID = true
	c, _, _ := testCodec(t, cfg, 0)

	claims := value.NewTable()
	token := mustEncode(t, c, hsHeader(), claims, testKey)
	assert.Equal(t, 0, claims.Len(), "caller claims must not be modified")

	_, got, err := c.Decode(context.Background(), token, nil)
	require.NoError(t, err)
	jti, _ := got.Field("jti").AsString()
	assert.Len(t, jti, 36)
}

func TestAllowedAlgorithms(t *testing.T) {
	cfg := defaultConfig()
	cfg.AllowedAlgorithms = []string{"HS256"}
	c, _, _ := testCodec(t, cfg, 0)

	_, err := c.Encode(context.Background(), value.Object("alg", "HS512"), sampleClaims(), testKey)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = c.Encode(context.Background(), value.Object("alg", "none"), sampleClaims(), nil)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	open, _, _ := testCodec(t, defaultConfig(), 0)
	foreign := mustEncode(t, open, value.Object("alg", "HS512"), sampleClaims(), testKey)
	_, _, err = c.Decode(context.Background(), foreign, testKey)
	require.ErrorIs(t, err, ErrPrimitive)

	token := mustEncode(t, c, hsHeader(), sampleClaims(), testKey)
	_, _, err = c.Decode(context.Background(), token, testKey)
	require.NoError(t, err)
}

func TestClaimsValidationOnVerifiedDecode(t *testing.T) {
	signer, _, _ := testCodec(t, defaultConfig(), 0)
	expired := value.Object("sub", "u", "exp", time.Now().Add(-time.Hour).Unix())
	token := mustEncode(t, signer, hsHeader(), expired, testKey)

	cfg := defaultConfig()
	cfg.ValidateClaims = true
	c, _, _ := testCodec(t, cfg, 0)

	_, _, err := c.Decode(context.Background(), token, testKey)
	require.ErrorIs(t, err, ErrPrimitive)

	_, _, err = c.Decode(context.Background(), token, nil)
	require.NoError(t, err)
}

func TestClosedCodecRejectsCalls(t *testing.T) {
	c, _, _ := testCodec(t, defaultConfig(), 0)
	token := mustEncode(t, c, hsHeader(), sampleClaims(), testKey)
	c.Close()
	c.Close()

	_, err := c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
	require.ErrorIs(t, err, ErrCodecClosed)
	_, _, err = c.Decode(context.Background(), token, testKey)
	require.ErrorIs(t, err, ErrCodecClosed)
}

func TestConcurrentEncodeDecode(t *testing.T) {
	c, fp, heap := testCodec(t, defaultConfig(), 0)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
			if err != nil {
				errs <- err
				return
			}
			if _, _, err := c.Decode(context.Background(), token, testKey); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}
	assert.Equal(t, int64(0), heap.Live())
	assert.Equal(t, int64(0), fp.live.Load())
}

func TestPackageLevelEncodeDecode(t *testing.T) {
	token, err := Encode(hsHeader(), sampleClaims(), testKey)
	require.NoError(t, err)

	_, claims, err := Decode(token, testKey)
	require.NoError(t, err)
	assert.True(t, sampleClaims().Equal(claims))

	_, _, err = Decode(token, []byte("wrong"))
	require.ErrorIs(t, err, ErrPrimitive)
}

func TestNodeLimitFromConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.NodeLimit = 3
	c, err := NewCodec(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Encode(context.Background(), hsHeader(), sampleClaims(), testKey)
	require.ErrorIs(t, err, ErrAllocation)
	assert.True(t, c.SecurityReport().NodeBudgetActive)
}

type refusingAllocator struct{}

func (refusingAllocator) Acquire(document.Kind) error { return document.ErrOutOfMemory }
func (refusingAllocator) Release(document.Kind) {}

func TestSecurityReportNodeBudget(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		alloc     document.Allocator
		wantLimit int
		want      bool
	}{
		{name: "none"},
		{name: "config limit", limit: 64, wantLimit: 64, want: true},
		{name: "unlimited heap", alloc: document.NewHeap(0)},
		{name: "unlimited heap overrides config", limit: 64, alloc: document.NewHeap(0)},
		{name: "limited heap", alloc: document.NewHeap(10), wantLimit: 10, want: true},
		{name: "opaque allocator", alloc: refusingAllocator{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.NodeLimit = tt.limit
			b := New().WithConfig(cfg)
			if tt.alloc != nil {
				b = b.WithAllocator(tt.alloc)
			}
			c, err := b.Build()
			require.NoError(t, err)
			defer c.Close()

			r := c.SecurityReport()
			assert.Equal(t, tt.want, r.NodeBudgetActive)
			assert.Equal(t, tt.wantLimit, r.NodeLimit)
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Op: opDecode, Stage: StageDecode, Kind: ErrPrimitive, Err: cause}
	assert.ErrorIs(t, err, ErrPrimitive)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "jwt decode: boom", err.Error())

	_, ok := StageOf(cause)
	assert.False(t, ok)
	assert.Equal(t, "unknown", Stage(99).String())
}

func TestSecurityReport(t *testing.T) {
	cfg := defaultConfig()
	cfg.AllowedAlgorithms = []string{"ES256", "EdDSA"}
	cfg.ValidateClaims = true
	cfg.Leeway = 30 * time.Second
	c, err := NewCodec(cfg)
	require.NoError(t, err)
	defer c.Close()

	r := c.SecurityReport()
	assert.Equal(t, []string{"ES256", "EdDSA"}, r.AllowedAlgorithms)
	assert.False(t, r.NoneAllowed)
	assert.True(t, r.ClaimsValidation)
	assert.Equal(t, 30*time.Second, r.Leeway)
	assert.False(t, r.NodeBudgetActive)
	assert.False(t, r.AuditEnabled)

	d, err := NewCodec(defaultConfig())
	require.NoError(t, err)
	defer d.Close()
	assert.True(t, d.SecurityReport().NoneAllowed)
	assert.Len(t, d.SecurityReport().AllowedAlgorithms, len(jwt.Algorithms()))
}
