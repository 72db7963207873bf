package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temcen/coursehybrid/pkg/models"
)

// Candidate is one model under comparison. Predictor is optional; without it
// the model gets no error metrics.
type Candidate struct {
	Name      string
	Ranker    Ranker
	Predictor Predictor
}

type ModelMetrics struct {
	Name      string   `json:"model"`
	RMSE      *float64 `json:"rmse,omitempty"`
	MAE       *float64 `json:"mae,omitempty"`
	Precision float64  `json:"precision_at_k"`
	Recall    float64  `json:"recall_at_k"`
}

type Report struct {
	K           int            `json:"k"`
	Threshold   float64        `json:"threshold"`
	TestRatings int            `json:"test_ratings"`
	Models      []ModelMetrics `json:"models"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Compare evaluates every candidate on the same held-out ratings.
func Compare(ctx context.Context, candidates []Candidate, test []models.Rating, k int, threshold float64) (*Report, error) {
	if len(test) == 0 {
		return nil, ErrNoRatings
	}

	report := &Report{
		K:           k,
		Threshold:   threshold,
		TestRatings: len(test),
		Models:      make([]ModelMetrics, 0, len(candidates)),
	}

	for _, c := range candidates {
		m := ModelMetrics{Name: c.Name}

		if c.Predictor != nil {
			rmse, err := RMSE(c.Predictor, test)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			mae, err := MAE(c.Predictor, test)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			m.RMSE, m.MAE = &rmse, &mae
		}

		p, r, err := PrecisionRecallAtK(ctx, c.Ranker, test, k, threshold)
		switch {
		case errors.Is(err, ErrNoRatings):
			// nothing relevant held out; precision and recall stay zero
		case err != nil:
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		m.Precision, m.Recall = p, r

		report.Models = append(report.Models, m)
	}

	report.GeneratedAt = time.Now().UTC()
	return report, nil
}
