package goJWT

import (
	"context"
	"sync"

	"github.com/MrEthical07/goJWT/value"
)

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
	defaultErr   error
)

func getDefault() (*Codec, error) {
	defaultOnce.Do(func() {
		defaultCodec, defaultErr = NewCodec(defaultConfig())
	})
	return defaultCodec, defaultErr
}

// Encode signs header and claims with the default codec.
func Encode(header, claims *value.Table, key []byte) (string, error) {
	c, err := getDefault()
	if err != nil {
		return "", err
	}
	return c.Encode(context.Background(), header, claims, key)
}

// Decode decodes token with the default codec. A nil key skips verification.
func Decode(token string, key []byte) (*value.Table, *value.Table, error) {
	c, err := getDefault()
	if err != nil {
		return nil, nil, err
	}
	return c.Decode(context.Background(), token, key)
}
