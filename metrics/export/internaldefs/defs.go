package internaldefs

import (
	goJWT "github.com/MrEthical07/goJWT"
)

// CounterDef names one codec counter for export.
type CounterDef struct {
	ID   goJWT.MetricID
	Name string
	Help string
}

// HistogramDef names one codec latency histogram for export.
type HistogramDef struct {
	ID   goJWT.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goJWT.MetricEncodeSuccess, Name: "gojwt_encode_success_total", Help: "Tokens encoded."},
	{ID: goJWT.MetricEncodeFailure, Name: "gojwt_encode_failure_total", Help: "Failed encode calls."},
	{ID: goJWT.MetricDecodeSuccess, Name: "gojwt_decode_success_total", Help: "Tokens decoded."},
	{ID: goJWT.MetricDecodeFailure, Name: "gojwt_decode_failure_total", Help: "Failed decode calls."},
	{ID: goJWT.MetricDecodeVerified, Name: "gojwt_decode_verified_total", Help: "Decoded tokens whose signature was verified."},
	{ID: goJWT.MetricInvalidInput, Name: "gojwt_invalid_input_total", Help: "Calls rejected for invalid header or claims."},
	{ID: goJWT.MetricAlgorithmNotSet, Name: "gojwt_algorithm_not_set_total", Help: "Encode calls without an alg header."},
	{ID: goJWT.MetricUnsupportedAlgorithm, Name: "gojwt_unsupported_algorithm_total", Help: "Encode calls naming an unsupported or disallowed algorithm."},
	{ID: goJWT.MetricPrimitiveFailure, Name: "gojwt_primitive_failure_total", Help: "Signing or verification failures."},
	{ID: goJWT.MetricSerializeFailure, Name: "gojwt_serialize_failure_total", Help: "Tokens that could not be serialized."},
	{ID: goJWT.MetricAllocationFailure, Name: "gojwt_allocation_failure_total", Help: "Calls that ran out of document nodes."},
	{ID: goJWT.MetricMaxDepthExceeded, Name: "gojwt_max_depth_exceeded_total", Help: "Calls rejected for nesting depth."},
	{ID: goJWT.MetricTokenIDIssued, Name: "gojwt_token_id_issued_total", Help: "jti claims added by the codec."},
}

var HistogramDefs = []HistogramDef{
	{ID: goJWT.MetricEncodeLatency, Name: "gojwt_encode_latency_seconds", Help: "Encode latency histogram."},
	{ID: goJWT.MetricDecodeLatency, Name: "gojwt_decode_latency_seconds", Help: "Decode latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the codec latency buckets.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets pads or truncates raw to exactly 8 buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
