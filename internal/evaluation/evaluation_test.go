package evaluation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/coursehybrid/pkg/models"
)

type constPredictor float64

func (c constPredictor) Predict(_, _ string) (float64, error) { return float64(c), nil }

type failingPredictor struct{}

func (failingPredictor) Predict(_, _ string) (float64, error) { return 0, errors.New("model offline") }

func staticRanker(ids ...string) Ranker {
	return RankerFunc(func(_ context.Context, _ string, k int) ([]string, error) {
		if k > len(ids) {
			k = len(ids)
		}
		return ids[:k], nil
	})
}

func rating(user, course string, rate float64) models.Rating {
	return models.Rating{UserID: user, CourseID: course, Rate: rate}
}

func TestRMSEAndMAE(t *testing.T) {
	test := []models.Rating{rating("u", "a", 5), rating("u", "b", 3), rating("v", "a", 1)}

	rmse, err := RMSE(constPredictor(3), test)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(8.0/3.0), rmse, 1e-12)

	mae, err := MAE(constPredictor(3), test)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, mae, 1e-12)

	_, err = RMSE(constPredictor(3), nil)
	assert.ErrorIs(t, err, ErrNoRatings)

	_, err = MAE(failingPredictor{}, test)
	assert.ErrorContains(t, err, "model offline")
}

func TestPrecisionRecallAtK(t *testing.T) {
	test := []models.Rating{
		rating("u1", "a", 5), rating("u1", "b", 4), rating("u1", "c", 2),
		rating("u2", "c", 4.5),
		rating("u3", "a", 1),
	}

	// u1: hits a (1 of 2 returned, 1 of 2 relevant); u2: no hits; u3 has nothing relevant.
	p, r, err := PrecisionRecallAtK(context.Background(), staticRanker("a", "d", "c"), test, 2, DefaultRelevanceThreshold)
	require.NoError(t, err)
	assert.InDelta(t, (0.5+0)/2, p, 1e-12)
	assert.InDelta(t, (0.5+0)/2, r, 1e-12)

	p, r, err = PrecisionRecallAtK(context.Background(), staticRanker("a", "b", "c"), test, 3, DefaultRelevanceThreshold)
	require.NoError(t, err)
	assert.InDelta(t, (2.0/3+1.0/3)/2, p, 1e-12)
	assert.InDelta(t, (1.0+1.0)/2, r, 1e-12)

	t.Run("invalid k", func(t *testing.T) {
		_, _, err := PrecisionRecallAtK(context.Background(), staticRanker("a"), test, 0, 4)
		assert.Error(t, err)
	})

	t.Run("nothing relevant", func(t *testing.T) {
		_, _, err := PrecisionRecallAtK(context.Background(), staticRanker("a"), test, 1, 6)
		assert.ErrorIs(t, err, ErrNoRatings)
	})
}

func TestSplit(t *testing.T) {
	ratings := []models.Rating{
		rating("u1", "a", 5), rating("u2", "a", 3), rating("u1", "b", 4),
		rating("u1", "c", 2), rating("u1", "d", 1), rating("u3", "z", 4),
		rating("u2", "b", 2),
	}

	train, test, err := Split(ratings, 0.5)
	require.NoError(t, err)

	assert.Equal(t, []models.Rating{
		rating("u1", "a", 5), rating("u2", "a", 3), rating("u1", "b", 4), rating("u3", "z", 4),
	}, train)
	assert.Equal(t, []models.Rating{
		rating("u1", "c", 2), rating("u1", "d", 1), rating("u2", "b", 2),
	}, test)

	again, _, _ := Split(ratings, 0.5)
	assert.Equal(t, train, again)

	t.Run("small ratio still holds one out", func(t *testing.T) {
		_, test, err := Split(ratings, 0.01)
		require.NoError(t, err)
		assert.Len(t, test, 2)
	})

	t.Run("invalid ratio", func(t *testing.T) {
		for _, ratio := range []float64{0, 1, -0.2, 1.5} {
			_, _, err := Split(ratings, ratio)
			assert.Error(t, err, "ratio %v", ratio)
		}
	})
}

func TestBaselines(t *testing.T) {
	train := []models.Rating{
		rating("u1", "a", 3), rating("u2", "a", 3), rating("u3", "a", 3),
		rating("u1", "b", 5),
		rating("u1", "c", 5), rating("u2", "c", 5),
		rating("u2", "d", 4), rating("u3", "d", 4),
	}

	t.Run("popularity", func(t *testing.T) {
		ids, err := NewPopularity(train).Rank(context.Background(), "anyone", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "d"}, ids)
	})

	t.Run("average rating", func(t *testing.T) {
		avg := NewAverageRating(train)

		ids, err := avg.Rank(context.Background(), "anyone", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "d", "a"}, ids)

		est, _ := avg.Predict("anyone", "d")
		assert.Equal(t, 4.0, est)
		est, _ = avg.Predict("anyone", "unseen")
		assert.InDelta(t, 32.0/8.0, est, 1e-12)
	})
}

func TestCompare(t *testing.T) {
	test := []models.Rating{rating("u1", "a", 5), rating("u1", "b", 1)}

	report, err := Compare(context.Background(), []Candidate{
		{Name: "perfect", Ranker: staticRanker("a"), Predictor: constPredictor(3)},
		{Name: "popularity", Ranker: staticRanker("b")},
	}, test, 1, DefaultRelevanceThreshold)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TestRatings)
	require.Len(t, report.Models, 2)

	assert.Equal(t, "perfect", report.Models[0].Name)
	require.NotNil(t, report.Models[0].RMSE)
	assert.InDelta(t, 2.0, *report.Models[0].RMSE, 1e-12)
	assert.Equal(t, 1.0, report.Models[0].Precision)
	assert.Equal(t, 1.0, report.Models[0].Recall)

	assert.Nil(t, report.Models[1].RMSE)
	assert.Equal(t, 0.0, report.Models[1].Precision)

	_, err = Compare(context.Background(), nil, nil, 10, 4)
	assert.ErrorIs(t, err, ErrNoRatings)

	_, err = Compare(context.Background(), []Candidate{{Name: "broken", Ranker: staticRanker("a"), Predictor: failingPredictor{}}}, test, 1, 4)
	assert.ErrorContains(t, err, "broken")
}
