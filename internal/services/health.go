package services

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/database"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck reports an unreachable dependency as an error.
type HealthCheck func(ctx context.Context) error

type HealthService struct {
	critical    map[string]HealthCheck
	nonCritical map[string]HealthCheck
	details     func() map[string]interface{}
	logger      *logrus.Logger

	// Prometheus metrics
	healthCheckStatus *prometheus.GaugeVec
	lastHealthCheck   *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// DatabaseChecks builds the checks for the connections in db. Postgres and
// the hot Redis are critical; everything else only degrades the service.
func DatabaseChecks(db *database.Database) (critical, nonCritical map[string]HealthCheck) {
	critical = map[string]HealthCheck{
		"postgresql": func(ctx context.Context) error { return db.PG.Ping(ctx) },
		"redis_hot":  func(ctx context.Context) error { return db.Redis.Hot.Ping(ctx).Err() },
	}
	nonCritical = map[string]HealthCheck{
		"redis_warm": func(ctx context.Context) error { return db.Redis.Warm.Ping(ctx).Err() },
	}
	if db.Neo4j != nil {
		nonCritical["neo4j"] = func(ctx context.Context) error { return db.Neo4j.VerifyConnectivity(ctx) }
	}
	return critical, nonCritical
}

func NewHealthService(
	critical, nonCritical map[string]HealthCheck,
	details func() map[string]interface{},
	reg prometheus.Registerer,
	logger *logrus.Logger,
) *HealthService {
	hs := &HealthService{
		critical:    critical,
		nonCritical: nonCritical,
		details:     details,
		logger:      logger,
	}

	hs.healthCheckStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"})

	hs.lastHealthCheck = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"})

	hs.healthCheckStatus = registerCollector(reg, hs.healthCheckStatus, logger)
	hs.lastHealthCheck = registerCollector(reg, hs.lastHealthCheck, logger)

	return hs
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	status.Critical = s.run(ctx, s.critical, status, true)
	status.NonCritical = s.run(ctx, s.nonCritical, status, false)

	// Overall status
	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	if s.details != nil {
		status.Details = s.details()
	}

	return status
}

func (s *HealthService) run(ctx context.Context, checks map[string]HealthCheck, status *HealthStatus, critical bool) []string {
	var failed []string
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status.Services[name] = "unhealthy"
			failed = append(failed, name)
			if critical {
				s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
			} else {
				s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			}
			s.UpdateHealthMetrics(name, false)
			continue
		}
		status.Services[name] = "healthy"
		s.UpdateHealthMetrics(name, true)
	}
	sort.Strings(failed)
	return failed
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
