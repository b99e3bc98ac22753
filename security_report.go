package goJWT

import (
	"time"

	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
)

// SecurityReport summarizes the security-relevant settings of a codec.
type SecurityReport struct {
	AllowedAlgorithms []string
	NoneAllowed       bool
	ClaimsValidation  bool
	Leeway            time.Duration
	MaxDepth          int
	NodeLimit         int
	NodeBudgetActive  bool
	TokenIDIssuance   bool
	IssuedAtIssuance  bool
	AuditEnabled      bool
	MetricsEnabled    bool
}

// SecurityReport describes the codec's effective security settings.
func (c *Codec) SecurityReport() SecurityReport {
	if c == nil {
		return SecurityReport{}
	}

	allowed := make([]string, 0, len(jwt.Algorithms()))
	for _, alg := range jwt.Algorithms() {
		if c.algorithmAllowed(alg) {
			allowed = append(allowed, alg.String())
		}
	}

	limit, active := nodeBudget(c.alloc)

	return SecurityReport{
		AllowedAlgorithms: allowed,
		NoneAllowed:       c.algorithmAllowed(jwt.AlgNone),
		ClaimsValidation:  c.cfg.ValidateClaims,
		Leeway:            c.cfg.Leeway,
		MaxDepth:          c.cfg.MaxDepth,
		NodeLimit:         limit,
		NodeBudgetActive:  active,
		TokenIDIssuance:   c.cfg.IssueTokenID,
		IssuedAtIssuance:  c.cfg.IssuedAt,
		AuditEnabled:      c.audit != nil,
		MetricsEnabled:    c.metrics.Enabled(),
	}
}

type limitedAllocator interface {
	Limit() int
}

// nodeBudget reports the live node cap of alloc. Allocators that do not expose a
// limit are assumed to enforce one of their own.
func nodeBudget(alloc document.Allocator) (int, bool) {
	if alloc == nil {
		return 0, false
	}
	if l, ok := alloc.(limitedAllocator); ok {
		return l.Limit(), l.Limit() > 0
	}
	return 0, true
}
