package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goJWT "github.com/MrEthical07/goJWT"
	"github.com/MrEthical07/goJWT/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() goJWT.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders codec metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from codec.
func NewPrometheusExporter(codec *goJWT.Codec) *PrometheusExporter {
	return &PrometheusExporter{source: codec}
}

// NewPrometheusExporterFromSource reads from any metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when the source has nothing to report.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := textWriter{}
	w.b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		w.counter(def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		w.histogram(def.Name, def.Help, internaldefs.CumulativeBuckets(raw))
	}
	w.counter("gojwt_audit_dropped_total", "Audit events dropped by a full dispatcher buffer.", dropped)

	return w.b.String()
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) meta(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escapeHelp(help))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

func (w *textWriter) sample(name, labels string, v uint64) {
	w.b.WriteString(name)
	w.b.WriteString(labels)
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(v, 10))
	w.b.WriteByte('\n')
}

func (w *textWriter) counter(name, help string, v uint64) {
	w.meta(name, help, "counter")
	w.sample(name, "", v)
}

func (w *textWriter) histogram(name, help string, cumulative [8]uint64) {
	w.meta(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(name+"_bucket", `{le="`+le+`"}`, cumulative[i])
	}
	w.sample(name+"_count", "", cumulative[len(cumulative)-1])
	// Snapshots carry no sum.
	w.sample(name+"_sum", "", 0)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
