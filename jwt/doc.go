// Package jwt is the signing and verification primitive behind the token codec. It
// wraps github.com/golang-jwt/jwt/v5 and exchanges headers and claims as ordered
// documents, so claims are signed in the order the caller built them.
//
// A [Signer] is the signing structure: it owns copies of the documents attached to it
// and must be released. A [Token] is a decoded token holding its header and claims
// documents; it must be released too.
package jwt
