package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	Recommendation *RecommendationHandler
	User           *UserHandler
	Dataset        *DatasetHandler
	Metrics        *MetricsHandler
	Models         *ModelsHandler
}

func New(logger *logrus.Logger, svc *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svc.Health),
		Auth:           NewAuthHandler(logger, svc.Auth),
		Recommendation: NewRecommendationHandler(svc.Recommendations, logger),
		User:           NewUserHandler(logger, svc.Dataset),
		Dataset:        NewDatasetHandler(logger, svc.Dataset),
		Metrics:        NewMetricsHandler(logger, svc.Evaluation),
		Models:         NewModelsHandler(svc.Models, svc.Recommendations.Weights),
	}
}
