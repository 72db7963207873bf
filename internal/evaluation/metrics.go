// Package evaluation scores recommenders and rating predictors on held-out
// ratings: RMSE and MAE for predictors, precision and recall at k for
// rankers.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/coursehybrid/pkg/models"
)

const DefaultRelevanceThreshold = 4.0

var ErrNoRatings = errors.New("no ratings to evaluate")

type Predictor interface {
	Predict(userID, courseID string) (float64, error)
}

// Ranker returns up to k course ids for a user, best first.
type Ranker interface {
	Rank(ctx context.Context, userID string, k int) ([]string, error)
}

type RankerFunc func(ctx context.Context, userID string, k int) ([]string, error)

func (f RankerFunc) Rank(ctx context.Context, userID string, k int) ([]string, error) {
	return f(ctx, userID, k)
}

func residuals(p Predictor, test []models.Rating) ([]float64, error) {
	if len(test) == 0 {
		return nil, ErrNoRatings
	}
	diff := make([]float64, len(test))
	for i, r := range test {
		est, err := p.Predict(r.UserID, r.CourseID)
		if err != nil {
			return nil, fmt.Errorf("predict user %s course %s: %w", r.UserID, r.CourseID, err)
		}
		diff[i] = est - r.Rate
	}
	return diff, nil
}

func RMSE(p Predictor, test []models.Rating) (float64, error) {
	diff, err := residuals(p, test)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 2) / math.Sqrt(float64(len(diff))), nil
}

func MAE(p Predictor, test []models.Rating) (float64, error) {
	diff, err := residuals(p, test)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// PrecisionRecallAtK averages per-user precision and recall of the top k
// over users with at least one held-out rating at or above threshold.
// Precision divides by the number of courses actually returned.
func PrecisionRecallAtK(ctx context.Context, r Ranker, test []models.Rating, k int, threshold float64) (precision, recall float64, err error) {
	if k <= 0 {
		return 0, 0, fmt.Errorf("k must be positive, got %d", k)
	}

	relevant := make(map[string]map[string]bool)
	var users []string
	for _, rating := range test {
		if rating.Rate < threshold {
			continue
		}
		set, ok := relevant[rating.UserID]
		if !ok {
			set = make(map[string]bool)
			relevant[rating.UserID] = set
			users = append(users, rating.UserID)
		}
		set[rating.CourseID] = true
	}
	if len(users) == 0 {
		return 0, 0, ErrNoRatings
	}

	var sumP, sumR float64
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		recs, err := r.Rank(ctx, user, k)
		if err != nil {
			return 0, 0, fmt.Errorf("rank user %s: %w", user, err)
		}
		if len(recs) == 0 {
			continue
		}

		hits := 0
		for _, id := range recs {
			if relevant[user][id] {
				hits++
			}
		}
		sumP += float64(hits) / float64(len(recs))
		sumR += float64(hits) / float64(len(relevant[user]))
	}

	n := float64(len(users))
	return sumP / n, sumR / n, nil
}
