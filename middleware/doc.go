// Package middleware exposes HTTP adapters that decode bearer tokens with a
// [goJWT.Codec] and attach the result to the request context.
//
//   - [Guard] verifies the signature and rejects anything that fails.
//   - [Inspect] only parses, for routes behind an upstream verifier.
//
// # What this package must NOT do
//
//   - Parse or sign tokens itself. Every decision comes from Codec.Decode.
//   - Echo decode errors to clients.
package middleware
