package goJWT

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a codec counter or latency histogram.
type MetricID uint16

const (
	MetricEncodeSuccess MetricID = iota
	MetricEncodeFailure
	MetricDecodeSuccess
	MetricDecodeFailure
	// MetricDecodeVerified counts successful decodes that checked a signature.
	MetricDecodeVerified
	MetricInvalidInput
	MetricAlgorithmNotSet
	MetricUnsupportedAlgorithm
	MetricPrimitiveFailure
	MetricSerializeFailure
	MetricAllocationFailure
	MetricMaxDepthExceeded
	MetricTokenIDIssued
	MetricEncodeLatency
	MetricDecodeLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free codec counters. A nil or disabled Metrics ignores every
// update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of a latency metric. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isLatency(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count of id, also when metrics are disabled.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histograms when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range [...]MetricID{MetricEncodeLatency, MetricDecodeLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatency(id MetricID) bool {
	return id == MetricEncodeLatency || id == MetricDecodeLatency
}

// bucketIndex maps d onto the 8 histogram buckets: 50us, 100us, 250us, 500us, 1ms,
// 5ms, 25ms and +Inf.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}
