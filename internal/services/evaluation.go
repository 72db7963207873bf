package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/catalog"
	"github.com/temcen/coursehybrid/internal/evaluation"
	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/pkg/models"
)

const (
	defaultEvalK     = 10
	defaultTestRatio = 0.2
)

// EvaluationService compares the hybrid model with its parts and with the
// non-personalised baselines on a holdout of the loaded ratings.
type EvaluationService struct {
	cf          recommender.CFModel
	content     recommender.ContentModel
	courses     []models.Course
	ratings     []models.Rating
	nCandidates int
	weights     recommender.Weights
	logger      *logrus.Logger
}

func NewEvaluationService(
	cf recommender.CFModel,
	content recommender.ContentModel,
	courses []models.Course,
	ratings []models.Rating,
	nCandidates int,
	weights recommender.Weights,
	logger *logrus.Logger,
) *EvaluationService {
	return &EvaluationService{
		cf:          cf,
		content:     content,
		courses:     courses,
		ratings:     ratings,
		nCandidates: nCandidates,
		weights:     weights,
		logger:      logger,
	}
}

func (s *EvaluationService) Evaluate(ctx context.Context, req models.EvaluationRequest) (*evaluation.Report, error) {
	if req.K == 0 {
		req.K = defaultEvalK
	}
	if req.Threshold == 0 {
		req.Threshold = evaluation.DefaultRelevanceThreshold
	}
	if req.TestRatio == 0 {
		req.TestRatio = defaultTestRatio
	}

	train, test, err := evaluation.Split(s.ratings, req.TestRatio)
	if err != nil {
		return nil, err
	}
	history := catalog.NewRatingTable(train)

	build := func(w recommender.Weights, candidates int) (evaluation.Ranker, error) {
		r, err := recommender.New(s.cf, s.content, s.courses, history,
			recommender.WithCandidates(candidates),
			recommender.WithWeights(w),
			recommender.WithLogger(s.logger),
		)
		if err != nil {
			return nil, err
		}
		return rankerOf(r), nil
	}

	hybrid, err := build(s.weights, s.nCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to build hybrid ranker: %w", err)
	}
	cfOnly, err := build(recommender.Weights{CF: 1}, s.nCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to build cf ranker: %w", err)
	}
	// Content filtering ranks the whole catalog, not the CF shortlist.
	contentOnly, err := build(recommender.Weights{Content: 1}, len(s.courses))
	if err != nil {
		return nil, fmt.Errorf("failed to build content ranker: %w", err)
	}
	average := evaluation.NewAverageRating(train)

	report, err := evaluation.Compare(ctx, []evaluation.Candidate{
		{Name: "hybrid", Ranker: hybrid},
		{Name: "svd", Ranker: cfOnly, Predictor: s.cf},
		{Name: "doc2vec", Ranker: contentOnly},
		{Name: "popularity", Ranker: evaluation.NewPopularity(train)},
		{Name: "average_rating", Ranker: average, Predictor: average},
	}, test, req.K, req.Threshold)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"k":            req.K,
		"threshold":    req.Threshold,
		"test_ratings": len(test),
	}).Info("Model evaluation completed")

	return report, nil
}

func rankerOf(r *recommender.HybridRecommender) evaluation.Ranker {
	return evaluation.RankerFunc(func(ctx context.Context, userID string, k int) ([]string, error) {
		recs, err := r.Recommend(ctx, userID, k)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(recs))
		for i, rec := range recs {
			ids[i] = rec.Course.ID
		}
		return ids, nil
	})
}
