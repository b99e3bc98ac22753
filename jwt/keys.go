package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrKeyRequired   = errors.New("algorithm requires a key")
	ErrKeyNotAllowed = errors.New("none algorithm does not accept a key")
)

// signKey turns raw key material into the signing key golang-jwt expects for alg.
func signKey(alg Algorithm, key []byte) (any, error) {
	switch alg.family() {
	case familyNone:
		if !alg.Valid() {
			return nil, ErrUnsupportedAlgorithm
		}
		if len(key) > 0 {
			return nil, ErrKeyNotAllowed
		}
		return jwt.UnsafeAllowNoneSignatureType, nil
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%s: %w", alg, ErrKeyRequired)
	}

	switch alg.family() {
	case familyHMAC:
		return cloneBytes(key), nil
	case familyRSA:
		k, err := jwt.ParseRSAPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid rsa private key: %w", err)
		}
		return k, nil
	case familyECDSA:
		k, err := jwt.ParseECPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid ecdsa private key: %w", err)
		}
		return k, nil
	default:
		return parseEdPrivateKey(key)
	}
}

// verifyKey turns raw key material into the verification key golang-jwt expects.
func verifyKey(alg Algorithm, key []byte) (any, error) {
	switch alg.family() {
	case familyNone:
		if !alg.Valid() {
			return nil, ErrUnsupportedAlgorithm
		}
		return nil, ErrKeyNotAllowed
	case familyHMAC:
		return cloneBytes(key), nil
	case familyRSA:
		k, err := jwt.ParseRSAPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid rsa public key: %w", err)
		}
		return k, nil
	case familyECDSA:
		k, err := jwt.ParseECPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid ecdsa public key: %w", err)
		}
		return k, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(cloneBytes(key)), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(cloneBytes(key)), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
