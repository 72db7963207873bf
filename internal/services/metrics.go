package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	outcomeServed   = "served"
	outcomeCacheHit = "cache_hit"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

// RecommendationMetrics are the Prometheus collectors of the recommendation
// path.
type RecommendationMetrics struct {
	Requests *prometheus.CounterVec
	Latency  prometheus.Histogram
	Skipped  *prometheus.CounterVec
	Events   *prometheus.CounterVec
}

func NewRecommendationMetrics(reg prometheus.Registerer, logger *logrus.Logger) *RecommendationMetrics {
	m := &RecommendationMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by outcome",
		}, []string{"outcome"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time to produce a recommendation list",
			Buckets: prometheus.DefBuckets,
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_skipped_courses_total",
			Help: "Courses left out of content scoring because they have no document vector",
		}, []string{"kind"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_events_total",
			Help: "Recommendation events by publish result",
		}, []string{"result"}),
	}

	m.Requests = registerCollector(reg, m.Requests, logger)
	m.Latency = registerCollector(reg, m.Latency, logger)
	m.Skipped = registerCollector(reg, m.Skipped, logger)
	m.Events = registerCollector(reg, m.Events, logger)

	return m
}

// registerCollector registers c, or returns the collector already registered
// under the same descriptor so callers record into the one that is exported.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C, logger *logrus.Logger) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logger.WithError(err).Warn("Failed to register metric")
	return c
}
