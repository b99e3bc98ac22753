// Package prometheus renders goJWT codec metrics in Prometheus text exposition
// format.
//
// Counters are named gojwt_*_total. Encode and decode latency are exported as
// gojwt_encode_latency_seconds and gojwt_decode_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate codec state.
package prometheus
