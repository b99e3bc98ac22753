package goJWT

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
)

const maxConfigDepth = 10000

// Config controls a [Codec]. Every field can be set from the environment through
// [LoadConfig].
type Config struct {
	// MaxDepth bounds nesting of header and claims trees in both directions.
	MaxDepth int `env:"GOJWT_MAX_DEPTH" envDefault:"64"`
	// NodeLimit caps live document nodes across concurrent calls. Zero is unlimited.
	NodeLimit int `env:"GOJWT_NODE_LIMIT" envDefault:"0"`
	// AllowedAlgorithms restricts encode and verified decode. Empty allows all.
	AllowedAlgorithms []string `env:"GOJWT_ALLOWED_ALGORITHMS" envSeparator:","`
	// IssueTokenID adds a random "jti" claim when the claims lack one.
	IssueTokenID bool `env:"GOJWT_ISSUE_TOKEN_ID" envDefault:"false"`
	// IssuedAt adds an "iat" claim when the claims lack one.
	IssuedAt bool `env:"GOJWT_ISSUED_AT" envDefault:"false"`
	// ValidateClaims enforces exp, nbf and iat when decoding with a key.
	ValidateClaims bool          `env:"GOJWT_VALIDATE_CLAIMS" envDefault:"false"`
	Leeway         time.Duration `env:"GOJWT_LEEWAY" envDefault:"0s"`
	// LogLevel is a zerolog level name used by [NewLogger].
	LogLevel string `env:"GOJWT_LOG_LEVEL" envDefault:"info"`

	Audit   AuditConfig   `envPrefix:"GOJWT_AUDIT_"`
	Metrics MetricsConfig `envPrefix:"GOJWT_METRICS_"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"false"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"1024"`
	DropIfFull bool `env:"DROP_IF_FULL" envDefault:"true"`
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED" envDefault:"false"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS" envDefault:"false"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		MaxDepth: document.DefaultMaxDepth,
		LogLevel: zerolog.InfoLevel.String(),
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.AllowedAlgorithms != nil {
		out.AllowedAlgorithms = append([]string(nil), cfg.AllowedAlgorithms...)
	}
	return out
}

// LoadConfig reads the given dotenv files (".env" when none are named, ignored if
// absent) and then the process environment into a validated Config.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks limits and names. It returns the first problem found.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return errors.New("MaxDepth must be >= 1")
	}
	if c.MaxDepth > maxConfigDepth {
		return fmt.Errorf("MaxDepth must be <= %d", maxConfigDepth)
	}
	if c.NodeLimit < 0 {
		return errors.New("NodeLimit must be >= 0")
	}

	for _, name := range c.AllowedAlgorithms {
		if !jwt.ParseAlgorithm(name).Valid() {
			return fmt.Errorf("AllowedAlgorithms contains unsupported algorithm %q", name)
		}
	}

	if c.Leeway < 0 {
		return errors.New("Leeway must be >= 0")
	}
	if c.Leeway > 0 && !c.ValidateClaims {
		return errors.New("Leeway requires ValidateClaims")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LogLevel is invalid: %w", err)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
