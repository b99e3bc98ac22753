// Package otel publishes goJWT codec metrics through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per codec counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// [goJWT.Codec.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate codec state.
package otel
