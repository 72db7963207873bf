package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

var ErrUnknownUser = errors.New("user not present in cf model")

type factorTerm struct {
	Bias    float64   `json:"bias"`
	Factors []float64 `json:"factors,omitempty"`
}

type factorArtifact struct {
	Name        string                `json:"name"`
	Version     string                `json:"version"`
	GlobalMean  float64               `json:"global_mean"`
	RatingScale [2]float64            `json:"rating_scale"`
	Factors     int                   `json:"factors"`
	Users       map[string]factorTerm `json:"users"`
	Items       map[string]factorTerm `json:"items"`
}

type latent struct {
	bias    float64
	factors *mat.VecDense
}

// FactorModel is a pre-trained biased latent-factor rating predictor:
//
//	r(u, i) = mu + b_u + b_i + p_u . q_i
//
// clipped to the rating scale. Terms for users or courses absent from the
// artifact contribute nothing, so unseen pairs fall back to the baseline.
type FactorModel struct {
	name       string
	version    string
	globalMean float64
	low, high  float64
	factors    int
	users      map[string]latent
	items      map[string]latent
	strict     bool
}

type FactorModelOption func(*FactorModel)

// WithStrictUsers makes Predict fail for users the model was not fitted on
// instead of answering with the baseline.
func WithStrictUsers() FactorModelOption {
	return func(m *FactorModel) { m.strict = true }
}

func LoadFactorModelFile(path string, opts ...FactorModelOption) (*FactorModel, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cf model %s: %w", path, err)
	}
	m, err := ParseFactorModel(data, opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

func ParseFactorModel(data []byte, opts ...FactorModelOption) (*FactorModel, error) {
	if err := validateArtifact(factorSchema, data); err != nil {
		return nil, fmt.Errorf("cf model: %w", err)
	}

	var a factorArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode cf model: %w", err)
	}
	if a.RatingScale[0] >= a.RatingScale[1] {
		return nil, fmt.Errorf("cf model: invalid rating scale %v", a.RatingScale)
	}

	m := &FactorModel{
		name:       a.Name,
		version:    a.Version,
		globalMean: a.GlobalMean,
		low:        a.RatingScale[0],
		high:       a.RatingScale[1],
		factors:    a.Factors,
	}
	var err error
	if m.users, err = buildLatent(a.Users, a.Factors); err != nil {
		return nil, fmt.Errorf("cf model users: %w", err)
	}
	if m.items, err = buildLatent(a.Items, a.Factors); err != nil {
		return nil, fmt.Errorf("cf model items: %w", err)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func buildLatent(terms map[string]factorTerm, k int) (map[string]latent, error) {
	out := make(map[string]latent, len(terms))
	for id, t := range terms {
		l := latent{bias: t.Bias}
		switch len(t.Factors) {
		case 0:
		case k:
			l.factors = mat.NewVecDense(k, append([]float64(nil), t.Factors...))
		default:
			return nil, fmt.Errorf("%s has %d factors, want %d", id, len(t.Factors), k)
		}
		out[id] = l
	}
	return out, nil
}

func (m *FactorModel) Predict(userID, courseID string) (float64, error) {
	u, knownUser := m.users[userID]
	if !knownUser && m.strict {
		return 0, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	i := m.items[courseID]

	est := m.globalMean + u.bias + i.bias
	if u.factors != nil && i.factors != nil {
		est += mat.Dot(u.factors, i.factors)
	}

	if est < m.low {
		est = m.low
	}
	if est > m.high {
		est = m.high
	}
	return est, nil
}

func (m *FactorModel) Name() string    { return m.name }
func (m *FactorModel) Version() string { return m.version }
func (m *FactorModel) Factors() int    { return m.factors }
func (m *FactorModel) Users() int      { return len(m.users) }
func (m *FactorModel) Items() int      { return len(m.items) }
