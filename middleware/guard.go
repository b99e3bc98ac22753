package middleware

import (
	"context"
	"net/http"
	"strings"

	goJWT "github.com/MrEthical07/goJWT"
	"github.com/MrEthical07/goJWT/value"
)

// Token is the decoded bearer token attached to a request.
type Token struct {
	Header   *value.Table
	Claims   *value.Table
	Verified bool
}

type tokenContextKey struct{}

// TokenFromContext returns the token stored by Guard or Inspect.
func TokenFromContext(ctx context.Context) (*Token, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(*Token)
	return tok, ok
}

// Guard rejects requests whose bearer token does not verify against key. Accepted
// requests carry the decoded token in their context.
func Guard(codec *goJWT.Codec, key []byte) func(http.Handler) http.Handler {
	if len(key) == 0 {
		return reject
	}
	return decodeWith(codec, key)
}

func decodeWith(codec *goJWT.Codec, key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if codec == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			header, claims, err := codec.Decode(r.Context(), token, key)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tok := &Token{Header: header, Claims: claims, Verified: len(key) > 0}
			ctx := context.WithValue(r.Context(), tokenContextKey{}, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
