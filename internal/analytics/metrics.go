package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter     *prometheus.CounterVec
	cacheMissCounter    *prometheus.CounterVec
	reportBuildDuration *prometheus.HistogramVec
	cacheMetricsError   error
)

// SetupCacheMetrics registers the report cache collectors once. Later calls
// return the outcome of the first registration.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webcanteen_report_cache_hits_total",
		Help: "Number of period reports served from cache.",
	}, []string{"period"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webcanteen_report_cache_miss_total",
		Help: "Number of period reports rebuilt from the dataset source.",
	}, []string{"period"})
	reportBuildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webcanteen_report_build_duration_seconds",
		Help:    "Time spent loading and aggregating a period dataset.",
		Buckets: prometheus.DefBuckets,
	}, []string{"period"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, reportBuildDuration} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					reportBuildDuration = c
				default:
					cacheMetricsError = fmt.Errorf("analytics cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			reportBuildDuration = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(period string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(period).Inc()
}

func recordCacheMiss(period string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(period).Inc()
}

func observeBuildDuration(period string, duration time.Duration) {
	if reportBuildDuration == nil {
		return
	}
	reportBuildDuration.WithLabelValues(period).Observe(duration.Seconds())
}
