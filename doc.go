// Package goJWT encodes dynamic header and claims tables into signed JSON Web Tokens
// and decodes tokens back into tables.
//
// A call runs in stages. Encode resolves the "alg" header entry, converts header and
// claims to ordered JSON documents (package convert), then hands them to the signing
// primitive (package jwt) and serializes. Decode runs the primitive first and converts
// its documents back. A failed call returns an [*Error] naming the stage and one of the
// package sentinels, never a partial token or table.
//
// [Codec] methods are safe to call from multiple goroutines after [Builder.Build].
// Package-level [Encode] and [Decode] use a codec with the default configuration.
//
// # Architecture boundaries
//
// goJWT is the public surface. It exposes [Codec], [Builder], [Config], the
// [Primitive] boundary and value types (MetricsSnapshot, AuditEvent). Table and
// document models live in packages value and document.
//
// # What this package must NOT do
//
//   - Retain header, claims or documents across calls.
//   - Leave a document or signing structure unreleased on any exit path.
//   - Log or audit keys or token strings.
package goJWT
