package jwt

import "github.com/golang-jwt/jwt/v5"

// Algorithm identifies a JWS signing algorithm.
type Algorithm uint8

const (
	// AlgInvalid is the result of resolving an unknown algorithm name.
	AlgInvalid Algorithm = iota
	AlgNone
	AlgHS256
	AlgHS384
	AlgHS512
	AlgRS256
	AlgRS384
	AlgRS512
	AlgPS256
	AlgPS384
	AlgPS512
	AlgES256
	AlgES384
	AlgES512
	AlgEdDSA
	algCount
)

var algNames = [algCount]string{
	AlgInvalid: "invalid",
	AlgNone:    "none",
	AlgHS256:   "HS256",
	AlgHS384:   "HS384",
	AlgHS512:   "HS512",
	AlgRS256:   "RS256",
	AlgRS384:   "RS384",
	AlgRS512:   "RS512",
	AlgPS256:   "PS256",
	AlgPS384:   "PS384",
	AlgPS512:   "PS512",
	AlgES256:   "ES256",
	AlgES384:   "ES384",
	AlgES512:   "ES512",
	AlgEdDSA:   "EdDSA",
}

// ParseAlgorithm resolves a JWS algorithm name. Names are matched exactly; unknown
// names yield AlgInvalid.
func ParseAlgorithm(name string) Algorithm {
	for a := AlgNone; a < algCount; a++ {
		if algNames[a] == name {
			return a
		}
	}
	return AlgInvalid
}

// Algorithms returns every supported algorithm.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, algCount-1)
	for a := AlgNone; a < algCount; a++ {
		out = append(out, a)
	}
	return out
}

// String returns the JWS name of a.
func (a Algorithm) String() string {
	if a >= algCount {
		return algNames[AlgInvalid]
	}
	return algNames[a]
}

// Valid reports whether a names a supported algorithm.
func (a Algorithm) Valid() bool { return a > AlgInvalid && a < algCount }

// Method returns the golang-jwt signing method, nil for AlgInvalid.
func (a Algorithm) Method() jwt.SigningMethod {
	switch a {
	case AlgNone:
		return jwt.SigningMethodNone
	case AlgHS256:
		return jwt.SigningMethodHS256
	case AlgHS384:
		return jwt.SigningMethodHS384
	case AlgHS512:
		return jwt.SigningMethodHS512
	case AlgRS256:
		return jwt.SigningMethodRS256
	case AlgRS384:
		return jwt.SigningMethodRS384
	case AlgRS512:
		return jwt.SigningMethodRS512
	case AlgPS256:
		return jwt.SigningMethodPS256
	case AlgPS384:
		return jwt.SigningMethodPS384
	case AlgPS512:
		return jwt.SigningMethodPS512
	case AlgES256:
		return jwt.SigningMethodES256
	case AlgES384:
		return jwt.SigningMethodES384
	case AlgES512:
		return jwt.SigningMethodES512
	case AlgEdDSA:
		return jwt.SigningMethodEdDSA
	default:
		return nil
	}
}

type family uint8

const (
	familyNone family = iota
	familyHMAC
	familyRSA
	familyECDSA
	familyEdDSA
)

func (a Algorithm) family() family {
	switch a {
	case AlgHS256, AlgHS384, AlgHS512:
		return familyHMAC
	case AlgRS256, AlgRS384, AlgRS512, AlgPS256, AlgPS384, AlgPS512:
		return familyRSA
	case AlgES256, AlgES384, AlgES512:
		return familyECDSA
	case AlgEdDSA:
		return familyEdDSA
	default:
		return familyNone
	}
}
