package services

import (
	"context"
	"time"

	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/pkg/models"
)

// Recommender produces ranked course lists for one user.
type Recommender interface {
	Recommend(ctx context.Context, userID string, topK int) ([]models.CourseRecommendation, error)
	Explain(ctx context.Context, userID string, topK int) ([]models.ScoredCandidate, error)
	Weights() recommender.Weights
}

// RecommendationCache stores served recommendation lists.
type RecommendationCache interface {
	Get(ctx context.Context, key string) ([]models.CourseRecommendation, bool, error)
	Set(ctx context.Context, key string, recs []models.CourseRecommendation, ttl time.Duration) error
}

// EventPublisher delivers served-list events to downstream consumers.
type EventPublisher interface {
	PublishRecommendation(ctx context.Context, event models.RecommendationEvent) error
}
