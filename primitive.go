package goJWT

import (
	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
)

// Primitive is the signing and verification backend of a [Codec]. The default is
// backed by package jwt; tests and alternative backends can supply their own through
// [Builder.WithPrimitive].
type Primitive interface {
	// Decode parses token, verifying its signature when key is non-empty.
	Decode(token string, key []byte) (DecodedToken, error)
	// NewSigner returns an empty signing structure.
	NewSigner() (Signer, error)
}

// DecodedToken exposes the header and claims documents of a decoded token. Both stay
// owned by the token and are released with it.
type DecodedToken interface {
	Header() *document.Node
	Claims() *document.Node
	Release()
}

// Signer is a signing structure. Attached documents are copied; the caller keeps
// ownership of what it passes in.
type Signer interface {
	SetAlgorithm(alg jwt.Algorithm, key []byte) error
	AddHeaders(doc *document.Node) error
	AddClaims(doc *document.Node) error
	Encode() (string, error)
	Release()
}

type jwtPrimitive struct {
	p *jwt.Primitive
}

func newJWTPrimitive(cfg Config, alloc document.Allocator) Primitive {
	opts := jwt.Options{
		Allocator:      alloc,
		MaxDepth:       cfg.MaxDepth,
		ValidateClaims: cfg.ValidateClaims,
		Leeway:         cfg.Leeway,
	}
	for _, name := range cfg.AllowedAlgorithms {
		opts.ValidMethods = append(opts.ValidMethods, jwt.ParseAlgorithm(name))
	}
	return jwtPrimitive{p: jwt.NewPrimitive(opts)}
}

func (j jwtPrimitive) Decode(token string, key []byte) (DecodedToken, error) {
	t, err := j.p.Decode(token, key)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (j jwtPrimitive) NewSigner() (Signer, error) {
	s, err := j.p.NewSigner()
	if err != nil {
		return nil, err
	}
	return s, nil
}
