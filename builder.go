package goJWT

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goJWT/convert"
	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
)

// Builder assembles a [Codec]. A Builder is single-use.
type Builder struct {
	config Config

	primitive Primitive
	allocator document.Allocator
	auditSink AuditSink
	logger    *zerolog.Logger

	built bool
}

// New returns a Builder holding the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPrimitive replaces the golang-jwt backed primitive. The primitive should
// allocate its documents from the builder's allocator for node accounting to hold.
func (b *Builder) WithPrimitive(p Primitive) *Builder {
	b.primitive = p
	return b
}

// WithAllocator sets the allocator for every document the codec builds. It overrides
// Config.NodeLimit.
func (b *Builder) WithAllocator(a document.Allocator) *Builder {
	b.allocator = a
	return b
}

// WithAuditSink sets the sink audit events are dispatched to.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for failure diagnostics. Without it the codec is silent.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = &l
	return b
}

// WithMetricsEnabled toggles operation counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles encode and decode latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Codec.
func (b *Builder) Build() (*Codec, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	alloc := b.allocator
	if alloc == nil && cfg.NodeLimit > 0 {
		alloc = document.NewHeap(cfg.NodeLimit)
	}

	primitive := b.primitive
	if primitive == nil {
		primitive = newJWTPrimitive(cfg, alloc)
	}

	c := &Codec{
		cfg:       cfg,
		primitive: primitive,
		alloc:     alloc,
		conv: convert.New(
			convert.WithAllocator(alloc),
			convert.WithMaxDepth(cfg.MaxDepth),
		),
		metrics: NewMetrics(cfg.Metrics),
		logger:  zerolog.Nop(),
		now:     time.Now,
		tokenID: newTokenID,
	}
	if len(cfg.AllowedAlgorithms) > 0 {
		c.allowed = make(map[jwt.Algorithm]struct{}, len(cfg.AllowedAlgorithms))
		for _, name := range cfg.AllowedAlgorithms {
			c.allowed[jwt.ParseAlgorithm(name)] = struct{}{}
		}
	}
	if b.logger != nil {
		c.logger = b.logger.With().Str("component", "gojwt").Logger()
	}
	c.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return c, nil
}

// NewLogger returns a zerolog logger writing JSON lines to w at cfg.LogLevel.
func NewLogger(w io.Writer, cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
