package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/internal/database"
	"github.com/temcen/coursehybrid/internal/messaging"
	"github.com/temcen/coursehybrid/internal/ml"
	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/pkg/models"
)

// Domain is the loaded dataset and models the services are built over.
type Domain struct {
	Recommender *recommender.HybridRecommender
	CF          recommender.CFModel
	Content     recommender.ContentModel
	Courses     []models.Course
	Ratings     []models.Rating
	History     recommender.History
	Models      *ml.ModelRegistry
}

type Services struct {
	Auth            *AuthService
	Health          *HealthService
	RateLimit       *RateLimitService
	Recommendations *RecommendationService
	Evaluation      *EvaluationService
	Dataset         *DatasetService
	Models          *ml.ModelRegistry
	EventBus        *messaging.EventBus

	logger *logrus.Logger
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, domain *Domain, metrics *RecommendationMetrics) *Services {
	authService := NewAuthService(cfg, logger, db.Redis.Hot)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Hot)

	critical, nonCritical := DatabaseChecks(db)
	healthService := NewHealthService(critical, nonCritical, func() map[string]interface{} {
		return map[string]interface{}{
			"courses": len(domain.Courses),
			"ratings": len(domain.Ratings),
			"models":  len(domain.Models.ListModels()),
		}
	}, prometheus.DefaultRegisterer, logger)

	var (
		eventBus  *messaging.EventBus
		publisher EventPublisher
	)
	if cfg.Kafka.Enabled {
		eventBus = messaging.NewEventBus(cfg, logger)
		publisher = eventBus
	}

	recommendations := NewRecommendationService(
		domain.Recommender, NewRedisCache(db.Redis.Warm), publisher, metrics, cfg.Recommender, logger,
	)

	weights := recommender.Weights{CF: cfg.Recommender.CFWeight, Content: cfg.Recommender.ContentWeight}
	evaluationService := NewEvaluationService(
		domain.CF, domain.Content, domain.Courses, domain.Ratings, cfg.Recommender.NCandidates, weights, logger,
	)

	return &Services{
		Auth:            authService,
		Health:          healthService,
		RateLimit:       rateLimitService,
		Recommendations: recommendations,
		Evaluation:      evaluationService,
		Dataset:         NewDatasetService(domain.Courses, domain.Ratings, domain.History),
		Models:          domain.Models,
		EventBus:        eventBus,
		logger:          logger,
	}
}

// Close waits for in-flight events and closes the event bus.
func (s *Services) Close() error {
	s.Recommendations.Wait()
	if s.EventBus != nil {
		return s.EventBus.Close()
	}
	return nil
}
