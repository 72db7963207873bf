package models

import (
	"time"

	"github.com/google/uuid"
)

// CourseRecommendation is a catalog course joined with its blended score.
type CourseRecommendation struct {
	Course   Course  `json:"course"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// ScoredCandidate is one entry of the candidate set with its score breakdown.
type ScoredCandidate struct {
	CourseID     string  `json:"course_id"`
	CFScore      float64 `json:"cf_score"`
	ContentScore float64 `json:"content_score"`
	Combined     float64 `json:"combined_score"`
}

type RecommendationRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TopK   int    `json:"top_k" validate:"omitempty,min=1,max=100"`
}

type RecommendationResponse struct {
	RequestID       uuid.UUID              `json:"request_id"`
	UserID          string                 `json:"user_id"`
	TopK            int                    `json:"top_k"`
	Recommendations []CourseRecommendation `json:"recommendations"`
	GeneratedAt     time.Time              `json:"generated_at"`
	CacheHit        bool                   `json:"cache_hit"`
}

type BatchRecommendationRequest struct {
	Requests []RecommendationRequest `json:"requests" validate:"required,min=1,max=50,dive"`
}

type BatchRecommendationResponse struct {
	Responses []RecommendationResponse `json:"responses"`
	Failed    []string                 `json:"failed_user_ids,omitempty"`
}

type BlendWeights struct {
	CF      float64 `json:"cf"`
	Content float64 `json:"content"`
}

type ExplainResponse struct {
	UserID     string            `json:"user_id"`
	Weights    BlendWeights      `json:"weights"`
	Candidates []ScoredCandidate `json:"candidates"`
}

// RecommendationEvent is published after a recommendation list is served.
type RecommendationEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	RequestID uuid.UUID `json:"request_id"`
	UserID    string    `json:"user_id"`
	CourseIDs []string  `json:"course_ids"`
	Scores    []float64 `json:"scores"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
}
