// Package metrics wires the registry's internal counters and gauges to
// Prometheus, the ambient observability layer carried alongside the
// registry regardless of which features a given embedding needs (spec §1
// Non-goals exclude alerting and time-series storage as product
// features; the metrics that let an operator build those elsewhere are
// not excluded).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpdateOutcomes counts update_check/update_get results by status
	// string (spec §6 "Status codes").
	UpdateOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensord",
		Subsystem: "registry",
		Name:      "update_outcomes_total",
		Help:      "Count of update_check/update_get outcomes by status.",
	}, []string{"status"})

	// Watches is the current number of active watches (watchlist
	// length).
	Watches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensord",
		Subsystem: "registry",
		Name:      "watches",
		Help:      "Current number of active watches.",
	})

	// ParamTableEntries is the current number of distinct interned
	// watch-parameter entries (spec §4.5).
	ParamTableEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensord",
		Subsystem: "registry",
		Name:      "param_table_entries",
		Help:      "Current number of distinct interned watch-parameter entries.",
	})

	// FamilyReloads counts RELOAD_FAMILY events by family name (spec
	// §4.8's family reload protocol).
	FamilyReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensord",
		Subsystem: "registry",
		Name:      "family_reloads_total",
		Help:      "Count of family reloads triggered by RELOAD_FAMILY.",
	}, []string{"family"})
)

func init() {
	prometheus.MustRegister(UpdateOutcomes, Watches, ParamTableEntries, FamilyReloads)
}

// ObserveUpdate records one update outcome.
func ObserveUpdate(status string) {
	UpdateOutcomes.WithLabelValues(status).Inc()
}

// SetWatches records the current watch count.
func SetWatches(n int) {
	Watches.Set(float64(n))
}

// SetParamTableEntries records the current interned-parameter count.
func SetParamTableEntries(n int) {
	ParamTableEntries.Set(float64(n))
}

// ObserveFamilyReload records one family reload.
func ObserveFamilyReload(familyName string) {
	FamilyReloads.WithLabelValues(familyName).Inc()
}
