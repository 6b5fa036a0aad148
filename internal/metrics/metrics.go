package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	TransitionsApplied  prometheus.Counter
	TransitionsRejected prometheus.Counter
	FulfillmentFailures prometheus.Counter
	NotifyErrors        prometheus.Counter

	BulkItemsSucceeded prometheus.Counter
	BulkItemsFailed    prometheus.Counter

	SourceRefreshes  prometheus.Counter
	RefreshFailures  prometheus.Counter
	CachedItems      prometheus.Gauge
	QueryDurationSec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_transitions_applied_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_transitions_rejected_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_fulfillment_failures_total"})
	notifyErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_notify_errors_total"})

	bulkOK := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_bulk_items_succeeded_total"})
	bulkFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_bulk_items_failed_total"})

	refreshes := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_source_refreshes_total"})
	refreshFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "stockops_refresh_failures_total"})
	cached := prometheus.NewGauge(prometheus.GaugeOpts{Name: "stockops_cached_items"})
	queryDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockops_query_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(applied, rejected, failures, notifyErrs, bulkOK, bulkFail, refreshes, refreshFail, cached, queryDur)
	return &Registry{
		reg:                 r,
		TransitionsApplied:  applied,
		TransitionsRejected: rejected,
		FulfillmentFailures: failures,
		NotifyErrors:        notifyErrs,
		BulkItemsSucceeded:  bulkOK,
		BulkItemsFailed:     bulkFail,
		SourceRefreshes:     refreshes,
		RefreshFailures:     refreshFail,
		CachedItems:         cached,
		QueryDurationSec:    queryDur,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
