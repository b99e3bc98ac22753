package jwt

import (
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goJWT/document"
)

// documentClaims adapts an ordered claims document to jwt.Claims. It marshals in
// document order and parses with the primitive's allocator.
type documentClaims struct {
	doc      *document.Node
	alloc    document.Allocator
	maxDepth int
}

var _ jwt.Claims = (*documentClaims)(nil)

func (c *documentClaims) MarshalJSON() ([]byte, error) {
	return c.doc.MarshalJSON()
}

func (c *documentClaims) UnmarshalJSON(data []byte) error {
	doc, err := document.Parse(data, c.alloc, c.maxDepth)
	if err != nil {
		return err
	}
	if doc.Kind() != document.Object {
		doc.Release()
		return jwt.ErrTokenMalformed
	}
	c.doc.Release()
	c.doc = doc
	return nil
}

func (c *documentClaims) release() {
	c.doc.Release()
	c.doc = nil
}

func (c *documentClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.numericDate("exp")
}

func (c *documentClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.numericDate("iat")
}

func (c *documentClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return c.numericDate("nbf")
}

func (c *documentClaims) GetIssuer() (string, error) {
	return c.str("iss")
}

func (c *documentClaims) GetSubject() (string, error) {
	return c.str("sub")
}

func (c *documentClaims) GetAudience() (jwt.ClaimStrings, error) {
	n := c.doc.Get("aud")
	switch n.Kind() {
	case document.Null:
		return nil, nil
	case document.String:
		return jwt.ClaimStrings{n.Str()}, nil
	case document.Array:
		out := make(jwt.ClaimStrings, 0, n.Len())
		var bad bool
		n.Each(func(_ int, item *document.Node) bool {
			if item.Kind() != document.String {
				bad = true
				return false
			}
			out = append(out, item.Str())
			return true
		})
		if bad {
			return nil, jwt.ErrInvalidType
		}
		return out, nil
	default:
		return nil, jwt.ErrInvalidType
	}
}

func (c *documentClaims) numericDate(name string) (*jwt.NumericDate, error) {
	n := c.doc.Get(name)
	switch n.Kind() {
	case document.Null:
		return nil, nil
	case document.Integer:
		return jwt.NewNumericDate(time.Unix(n.Int(), 0)), nil
	case document.Real:
		sec, frac := math.Modf(n.Number())
		return jwt.NewNumericDate(time.Unix(int64(sec), int64(frac*1e9))), nil
	default:
		return nil, jwt.ErrInvalidType
	}
}

func (c *documentClaims) str(name string) (string, error) {
	n := c.doc.Get(name)
	switch n.Kind() {
	case document.Null:
		return "", nil
	case document.String:
		return n.Str(), nil
	default:
		return "", jwt.ErrInvalidType
	}
}
