package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cacheLookups       *prom.CounterVec
	cacheWriteFailures *prom.CounterVec
	buildDuration      *prom.HistogramVec
	renderOutcomes     *prom.CounterVec
	assetScanDuration  *prom.HistogramVec
	assetFiles         *prom.GaugeVec
	entriesRemoved     prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rulesweb",
			Name:      "cache_lookups_total",
			Help:      "Cache probes by content kind and result",
		}, []string{"kind", "result"}),
		cacheWriteFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rulesweb",
			Name:      "cache_write_failures_total",
			Help:      "Freshly built renders that could not be persisted",
		}, []string{"kind"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "rulesweb",
			Name:      "build_duration_seconds",
			Help:      "Duration of raw content retrieval plus the transform pipeline",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		renderOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rulesweb",
			Name:      "render_outcomes_total",
			Help:      "Render outcomes by content kind",
		}, []string{"kind", "outcome"}),
		assetScanDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "rulesweb",
			Name:      "asset_scan_duration_seconds",
			Help:      "Duration of asset layer directory scans",
			Buckets:   prom.DefBuckets,
		}, []string{"suffix"}),
		assetFiles: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "rulesweb",
			Name:      "asset_files",
			Help:      "Number of asset files found by the last scan",
		}, []string{"suffix"}),
		entriesRemoved: prom.NewCounter(prom.CounterOpts{
			Namespace: "rulesweb",
			Name:      "cache_entries_removed_total",
			Help:      "Cache entries removed by the stale-version cleaner",
		}),
	}
	reg.MustRegister(pr.cacheLookups, pr.cacheWriteFailures, pr.buildDuration, pr.renderOutcomes,
		pr.assetScanDuration, pr.assetFiles, pr.entriesRemoved)
	return pr
}

func (p *PrometheusRecorder) IncCacheLookup(kind string, result LookupResult) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheWriteFailure(kind string) {
	if p == nil {
		return
	}
	p.cacheWriteFailures.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderOutcome(kind string, outcome Outcome) {
	if p == nil {
		return
	}
	p.renderOutcomes.WithLabelValues(kind, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveAssetScan(suffix string, d time.Duration, files int) {
	if p == nil {
		return
	}
	p.assetScanDuration.WithLabelValues(suffix).Observe(d.Seconds())
	p.assetFiles.WithLabelValues(suffix).Set(float64(files))
}

func (p *PrometheusRecorder) AddCacheEntriesRemoved(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.entriesRemoved.Add(float64(n))
}
