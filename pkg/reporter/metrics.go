package reporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
)

const prometheusMetricNamespace = "usage_reporter"

var (
	runTotalCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "runs_total",
			Help:      "Number of report runs started.",
		},
	)

	runFailedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "runs_failed_total",
			Help:      "Number of report runs that failed, by step and kind.",
		},
		[]string{"step", "kind"},
	)

	runDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of successful report runs.",
			Buckets:   []float64{1.0, 5.0, 15.0, 60.0, 300.0},
		},
	)

	stepDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each step of a report run.",
			Buckets:   []float64{0.1, 1.0, 5.0, 30.0},
		},
		[]string{"step"},
	)

	lastSuccessGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		},
	)

	reportedCostGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "reported_cost",
			Help:      "Cost in the last report, all-time and for the report period.",
		},
		[]string{"period"},
	)

	daysAggregatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "daily_rows_aggregated_total",
			Help:      "Number of daily usage rows added to history.",
		},
	)
)

func init() {
	prometheus.MustRegister(runTotalCounter)
	prometheus.MustRegister(runFailedCounter)
	prometheus.MustRegister(runDurationHistogram)
	prometheus.MustRegister(stepDurationHistogram)
	prometheus.MustRegister(lastSuccessGauge)
	prometheus.MustRegister(reportedCostGauge)
	prometheus.MustRegister(daysAggregatedCounter)
	prometheus.MustRegister(version.NewCollector(prometheusMetricNamespace))
}
