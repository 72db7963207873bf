package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/pkg/models"
)

var (
	ErrRecommendationFailed = errors.New("recommendation generation failed")
	ErrInvalidTopK          = errors.New("top_k out of range")
)

const (
	batchConcurrency = 4
	eventTimeout     = 5 * time.Second
)

// RecommendationService fronts the hybrid recommender with top_k validation,
// a result cache, metrics and served-list events. Cache and events are
// optional.
type RecommendationService struct {
	recommender Recommender
	cache       RecommendationCache
	events      EventPublisher
	metrics     *RecommendationMetrics
	config      config.RecommenderConfig
	logger      *logrus.Logger

	pending sync.WaitGroup
}

func NewRecommendationService(
	rec Recommender,
	cache RecommendationCache,
	events EventPublisher,
	metrics *RecommendationMetrics,
	cfg config.RecommenderConfig,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		recommender: rec,
		cache:       cache,
		events:      events,
		metrics:     metrics,
		config:      cfg,
		logger:      logger,
	}
}

// ResolveTopK applies the default for zero and rejects values outside
// [1, max_top_k].
func (s *RecommendationService) ResolveTopK(topK int) (int, error) {
	if topK == 0 {
		return s.config.DefaultTopK, nil
	}
	if topK < 1 || topK > s.config.MaxTopK {
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidTopK, topK, s.config.MaxTopK)
	}
	return topK, nil
}

// Recommend returns the top courses for userID. On failure it returns an
// error wrapping ErrRecommendationFailed and never a partial list.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, topK int) (*models.RecommendationResponse, error) {
	k, err := s.ResolveTopK(topK)
	if err != nil {
		s.metrics.Requests.WithLabelValues(outcomeInvalid).Inc()
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.Latency.Observe(time.Since(start).Seconds()) }()

	key := recommendationCacheKey(userID, k)
	if s.cache != nil {
		recs, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Recommendation cache lookup failed")
		} else if ok {
			s.metrics.Requests.WithLabelValues(outcomeCacheHit).Inc()
			resp := newResponse(userID, k, recs, true)
			s.publish(ctx, resp)
			return resp, nil
		}
	}

	recs, err := s.recommender.Recommend(ctx, userID, k)
	if err != nil {
		s.metrics.Requests.WithLabelValues(outcomeError).Inc()
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
		return nil, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recs, s.config.CacheTTL); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache recommendations")
		}
	}

	s.metrics.Requests.WithLabelValues(outcomeServed).Inc()
	resp := newResponse(userID, k, recs, false)
	s.publish(ctx, resp)

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"top_k":      k,
		"count":      len(recs),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("Recommendations generated")

	return resp, nil
}

// RecommendBatch serves each request independently. Users whose request
// fails are listed in Failed and have no response.
func (s *RecommendationService) RecommendBatch(ctx context.Context, req *models.BatchRecommendationRequest) *models.BatchRecommendationResponse {
	results := make([]*models.RecommendationResponse, len(req.Requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, r := range req.Requests {
		g.Go(func() error {
			resp, err := s.Recommend(gctx, r.UserID, r.TopK)
			if err != nil {
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	out := &models.BatchRecommendationResponse{Responses: make([]models.RecommendationResponse, 0, len(results))}
	for i, resp := range results {
		if resp == nil {
			out.Failed = append(out.Failed, req.Requests[i].UserID)
			continue
		}
		out.Responses = append(out.Responses, *resp)
	}
	return out
}

// Explain returns the blended candidate scores behind a recommendation list.
func (s *RecommendationService) Explain(ctx context.Context, userID string, topK int) (*models.ExplainResponse, error) {
	k, err := s.ResolveTopK(topK)
	if err != nil {
		return nil, err
	}

	candidates, err := s.recommender.Explain(ctx, userID, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}

	return &models.ExplainResponse{
		UserID:     userID,
		Weights:    s.Weights(),
		Candidates: candidates,
	}, nil
}

// Weights returns the blend weights the recommender was configured with.
func (s *RecommendationService) Weights() models.BlendWeights {
	w := s.recommender.Weights()
	return models.BlendWeights{CF: w.CF, Content: w.Content}
}

// Wait blocks until in-flight event publishes finish.
func (s *RecommendationService) Wait() {
	s.pending.Wait()
}

func newResponse(userID string, k int, recs []models.CourseRecommendation, cacheHit bool) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		RequestID:       uuid.New(),
		UserID:          userID,
		TopK:            k,
		Recommendations: recs,
		GeneratedAt:     time.Now().UTC(),
		CacheHit:        cacheHit,
	}
}

// publish sends the served-list event in the background; failures are only
// logged and counted.
func (s *RecommendationService) publish(ctx context.Context, resp *models.RecommendationResponse) {
	if s.events == nil {
		return
	}

	event := models.RecommendationEvent{
		EventID:   uuid.New(),
		RequestID: resp.RequestID,
		UserID:    resp.UserID,
		CourseIDs: make([]string, len(resp.Recommendations)),
		Scores:    make([]float64, len(resp.Recommendations)),
		CacheHit:  resp.CacheHit,
		Timestamp: resp.GeneratedAt,
	}
	for i, r := range resp.Recommendations {
		event.CourseIDs[i] = r.Course.ID
		event.Scores[i] = r.Score
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
		defer cancel()

		if err := s.events.PublishRecommendation(ctx, event); err != nil {
			s.metrics.Events.WithLabelValues("failed").Inc()
			s.logger.WithError(err).WithField("user_id", event.UserID).Warn("Failed to publish recommendation event")
			return
		}
		s.metrics.Events.WithLabelValues("published").Inc()
	}()
}
