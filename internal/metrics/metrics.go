package metrics

import (
	"strconv"
	"sync/atomic"

	"github.com/liamcoop/nlquery/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_queries_total",
			Help: "Total number of queries handled, by operation and intent",
		},
		[]string{"operation", "intent"},
	)

	TemplatesSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_templates_selected_total",
			Help: "Total number of times each canonical query template was selected",
		},
		[]string{"template"},
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_validations_total",
			Help: "Total number of validations, by outcome",
		},
		[]string{"valid"},
	)

	InterpretationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nlquery_interpretation_cache_hits_total",
			Help: "Total number of interpretations served from the memo cache",
		},
	)

	InterpretationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_interpretation_duration_seconds",
			Help:    "Time spent evaluating rule sets for one query",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
		[]string{"stage"},
	)
)

// ObserveQuery records one handled query
func ObserveQuery(operation, intent, template string) {
	QueriesTotal.WithLabelValues(operation, intent).Inc()
	if template != "" {
		TemplatesSelected.WithLabelValues(template).Inc()
	}
}

// ObserveValidation records one validation outcome
func ObserveValidation(valid bool) {
	ValidationsTotal.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nlquery_http_requests_total",
		Help: "Total number of HTTP requests, by route pattern and status code",
	},
	[]string{"route", "status"},
)

// ObserveHTTP records one served request
func ObserveHTTP(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Logger counters are exported as-is; they keep counting while log output is sampled
func init() {
	for name, c := range map[string]*atomic.Int64{
		"nlquery_log_errors_total":         &logger.TotalErrors,
		"nlquery_log_warnings_total":       &logger.TotalWarnings,
		"nlquery_http_5xx_responses_total": &logger.Total5xxErrors,
		"nlquery_http_4xx_responses_total": &logger.Total4xxErrors,
		"nlquery_http_400_responses_total": &logger.Total400Errors,
		"nlquery_http_401_responses_total": &logger.Total401Errors,
		"nlquery_http_404_responses_total": &logger.Total404Errors,
	} {
		promauto.NewCounterFunc(prometheus.CounterOpts{
			Name: name,
			Help: "Process-wide counter maintained by the logger",
		}, func() float64 { return float64(c.Load()) })
	}
}
