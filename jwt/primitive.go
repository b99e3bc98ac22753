package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goJWT/document"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrReleased             = errors.New("structure already released")
	ErrNotObject            = errors.New("document is not an object")
)

// Options configures a Primitive.
type Options struct {
	// Allocator backs every document a Primitive builds or parses.
	Allocator document.Allocator
	// MaxDepth bounds nesting of parsed header and claims documents.
	MaxDepth int
	// ValidateClaims enforces exp, nbf and iat on verified decodes.
	ValidateClaims bool
	// Leeway is the clock skew tolerated when ValidateClaims is set.
	Leeway time.Duration
	// ValidMethods restricts the algorithms accepted on verified decodes.
	ValidMethods []Algorithm
}

// Primitive decodes and signs tokens. It holds no per-token state and is safe for
// concurrent use.
type Primitive struct {
	opts Options
}

// NewPrimitive returns a primitive configured by opts.
func NewPrimitive(opts Options) *Primitive {
	return &Primitive{opts: opts}
}

func (p *Primitive) parser() *jwt.Parser {
	options := []jwt.ParserOption{}
	if len(p.opts.ValidMethods) > 0 {
		names := make([]string, 0, len(p.opts.ValidMethods))
		for _, a := range p.opts.ValidMethods {
			names = append(names, a.String())
		}
		options = append(options, jwt.WithValidMethods(names))
	}
	if p.opts.ValidateClaims {
		options = append(options, jwt.WithIssuedAt())
		if p.opts.Leeway > 0 {
			options = append(options, jwt.WithLeeway(p.opts.Leeway))
		}
	} else {
		options = append(options, jwt.WithoutClaimsValidation())
	}
	return jwt.NewParser(options...)
}

// Decode parses tokenString. With a non-empty key the signature is verified against
// the algorithm declared in the header; without one the token is only parsed.
func (p *Primitive) Decode(tokenString string, key []byte) (*Token, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", jwt.ErrTokenMalformed)
	}

	parser := p.parser()
	claims := &documentClaims{alloc: p.opts.Allocator, maxDepth: p.opts.MaxDepth}

	var (
		tok *jwt.Token
		err error
	)
	if len(key) == 0 {
		tok, _, err = parser.ParseUnverified(tokenString, claims)
	} else {
		tok, err = parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			alg := ParseAlgorithm(t.Method.Alg())
			if !alg.Valid() {
				return nil, ErrUnsupportedAlgorithm
			}
			return verifyKey(alg, key)
		})
	}
	if err != nil {
		claims.release()
		return nil, err
	}
	if claims.doc == nil {
		return nil, jwt.ErrTokenMalformed
	}

	raw, err := parser.DecodeSegment(parts[0])
	if err != nil {
		claims.release()
		return nil, fmt.Errorf("%w: %w", jwt.ErrTokenMalformed, err)
	}
	header, err := document.Parse(raw, p.opts.Allocator, p.opts.MaxDepth)
	if err != nil {
		claims.release()
		return nil, fmt.Errorf("%w: %w", jwt.ErrTokenMalformed, err)
	}
	if header.Kind() != document.Object {
		header.Release()
		claims.release()
		return nil, jwt.ErrTokenMalformed
	}

	return &Token{
		header:   header,
		claims:   claims.doc,
		alg:      ParseAlgorithm(tok.Method.Alg()),
		verified: len(key) > 0,
	}, nil
}

// NewSigner returns an empty signing structure using AlgNone until SetAlgorithm.
func (p *Primitive) NewSigner() (*Signer, error) {
	header, err := document.NewObject(p.opts.Allocator)
	if err != nil {
		return nil, err
	}
	claims, err := document.NewObject(p.opts.Allocator)
	if err != nil {
		header.Release()
		return nil, err
	}
	return &Signer{
		alloc:  p.opts.Allocator,
		alg:    AlgNone,
		key:    jwt.UnsafeAllowNoneSignatureType,
		header: header,
		claims: claims,
	}, nil
}

// Token is a decoded token. Its documents stay valid until Release.
type Token struct {
	header   *document.Node
	claims   *document.Node
	alg      Algorithm
	verified bool
}

// Header returns the decoded header object.
func (t *Token) Header() *document.Node { return t.header }

// Claims returns the decoded claims object.
func (t *Token) Claims() *document.Node { return t.claims }

// Algorithm returns the algorithm named by the header.
func (t *Token) Algorithm() Algorithm { return t.alg }

// Verified reports whether the signature was checked.
func (t *Token) Verified() bool { return t.verified }

// Release frees the header and claims documents. It is idempotent.
func (t *Token) Release() {
	if t == nil {
		return
	}
	t.header.Release()
	t.claims.Release()
	t.header, t.claims = nil, nil
}

// Signer is the signing structure: algorithm, key, header and claims.
type Signer struct {
	alloc    document.Allocator
	alg      Algorithm
	key      any
	header   *document.Node
	claims   *document.Node
	released bool
}

// SetAlgorithm selects the algorithm and parses key for it. AlgNone takes no key.
func (s *Signer) SetAlgorithm(alg Algorithm, key []byte) error {
	if s.released {
		return ErrReleased
	}
	k, err := signKey(alg, key)
	if err != nil {
		return err
	}
	s.alg = alg
	s.key = k
	return nil
}

// AddHeaders copies the fields of doc into the header, replacing existing keys.
func (s *Signer) AddHeaders(doc *document.Node) error {
	return s.merge(s.header, doc)
}

// AddClaims copies the fields of doc into the claims, replacing existing keys.
func (s *Signer) AddClaims(doc *document.Node) error {
	return s.merge(s.claims, doc)
}

func (s *Signer) merge(dst, src *document.Node) error {
	if s.released {
		return ErrReleased
	}
	if src.Kind() != document.Object {
		return ErrNotObject
	}
	var err error
	src.Range(func(key string, child *document.Node) bool {
		var cp *document.Node
		if cp, err = child.Clone(s.alloc); err != nil {
			return false
		}
		err = dst.Set(key, cp)
		return err == nil
	})
	return err
}

// Encode signs and serializes the token. The alg header always reflects the
// configured algorithm; typ defaults to JWT for signed tokens.
func (s *Signer) Encode() (string, error) {
	if s.released {
		return "", ErrReleased
	}
	method := s.alg.Method()
	if method == nil {
		return "", ErrUnsupportedAlgorithm
	}

	header, _ := s.header.Interface().(map[string]any)
	if header == nil {
		header = map[string]any{}
	}
	if _, ok := header["typ"]; !ok && s.alg != AlgNone {
		header["typ"] = "JWT"
	}
	header["alg"] = method.Alg()

	tok := &jwt.Token{
		Header: header,
		Claims: &documentClaims{doc: s.claims},
		Method: method,
	}
	return tok.SignedString(s.key)
}

// Release frees the signer's documents. It is idempotent.
func (s *Signer) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	s.header.Release()
	s.claims.Release()
	s.header, s.claims = nil, nil
}

// Algorithm returns the configured algorithm.
func (s *Signer) Algorithm() Algorithm { return s.alg }
