package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	goJWT "github.com/MrEthical07/goJWT"
	"github.com/MrEthical07/goJWT/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goJWT.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         goJWT.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goJWT.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter observes a codec's metrics on every collection of its Meter.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
	observables  []metric.Observable
}

// NewOTelExporter registers instruments on meter that observe codec.
func NewOTelExporter(meter metric.Meter, codec *goJWT.Codec) (*OTelExporter, error) {
	if codec == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, codec)
}

// NewOTelExporterFromSource registers instruments observing any metrics source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if err := e.registerCounters(meter); err != nil {
		return nil, err
	}
	if err := e.registerHistograms(meter); err != nil {
		return nil, err
	}

	reg, err := meter.RegisterCallback(e.observe, e.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) registerCounters(meter metric.Meter) error {
	e.counters = make([]observedCounter, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		e.observables = append(e.observables, ins)
	}

	dropped, err := meter.Int64ObservableCounter(
		"gojwt_audit_dropped_total",
		metric.WithDescription("Audit events dropped by a full dispatcher buffer."),
	)
	if err != nil {
		return fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	e.observables = append(e.observables, dropped)
	return nil
}

// registerHistograms exposes each latency histogram as one cumulative gauge per
// bucket plus a count gauge.
func (e *OTelExporter) registerHistograms(meter metric.Meter) error {
	e.histograms = make([]observedHistogram, 0, len(internaldefs.HistogramDefs))
	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			e.observables = append(e.observables, ins)
		}

		name := def.Name + "_count"
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create histogram count gauge %s: %w", name, err)
		}
		h.count = ins
		e.observables = append(e.observables, ins)
		e.histograms = append(e.histograms, h)
	}
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, v := range cumulative {
			o.ObserveInt64(h.buckets[i], int64(v))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
