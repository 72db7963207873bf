// Package recommender implements the hybrid course recommender: a
// collaborative-filtering model proposes candidates and a document-embedding
// model re-scores them against the user's rating history.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/coursehybrid/pkg/models"
)

const DefaultCandidates = 100

var (
	ErrEmptyCatalog    = errors.New("course catalog is empty")
	ErrDuplicateCourse = errors.New("duplicate course id in catalog")
	ErrScoring         = errors.New("recommendation scoring failed")
)

// CFModel predicts the rating a user would give a course. It must accept
// pairs it has never seen.
type CFModel interface {
	Predict(userID, courseID string) (float64, error)
}

// ContentModel returns the document vector stored under tag, which is the
// decimal catalog position of a course.
type ContentModel interface {
	VectorFor(tag string) ([]float64, error)
}

// History returns the ids of every course a user has rated, in table order.
type History interface {
	RatedCourses(ctx context.Context, userID string) ([]string, error)
}

// Weights are the blend coefficients applied to the CF and content scores.
// The two scores live on different scales and are not re-normalised.
type Weights struct {
	CF      float64
	Content float64
}

var DefaultWeights = Weights{CF: 0.7, Content: 0.3}

type Option func(*HybridRecommender)

func WithCandidates(n int) Option {
	return func(r *HybridRecommender) { r.nCandidates = n }
}

func WithWeights(w Weights) Option {
	return func(r *HybridRecommender) { r.weights = w }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(r *HybridRecommender) { r.logger = logger }
}

// WithSkipCounter counts courses dropped from content scoring because they
// are missing from the catalog index. The vector must have a single "kind"
// label ("history" or "candidate").
func WithSkipCounter(c *prometheus.CounterVec) Option {
	return func(r *HybridRecommender) { r.skipped = c }
}

// HybridRecommender is immutable after construction and safe for concurrent
// use as long as its models and history are.
type HybridRecommender struct {
	cf      CFModel
	content ContentModel
	history History

	courses   []models.Course
	courseIdx map[string]int

	nCandidates int
	weights     Weights

	logger  *logrus.Logger
	skipped *prometheus.CounterVec
}

func New(cf CFModel, content ContentModel, courses []models.Course, history History, opts ...Option) (*HybridRecommender, error) {
	if cf == nil || content == nil || history == nil {
		return nil, fmt.Errorf("cf model, content model and history are required")
	}
	if len(courses) == 0 {
		return nil, ErrEmptyCatalog
	}

	r := &HybridRecommender{
		cf:          cf,
		content:     content,
		history:     history,
		courses:     append([]models.Course(nil), courses...),
		courseIdx:   make(map[string]int, len(courses)),
		nCandidates: DefaultCandidates,
		weights:     DefaultWeights,
		logger:      logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.nCandidates <= 0 {
		return nil, fmt.Errorf("n_candidates must be positive, got %d", r.nCandidates)
	}

	for i, c := range r.courses {
		if _, exists := r.courseIdx[c.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCourse, c.ID)
		}
		r.courseIdx[c.ID] = i
	}

	return r, nil
}

// CFCandidates scores every catalog course with the CF model and keeps the
// n best, highest first. Equal scores keep catalog order.
func (r *HybridRecommender) CFCandidates(ctx context.Context, userID string) ([]string, []float64, error) {
	top := newTopN(r.nCandidates, len(r.courses))
	for i, c := range r.courses {
		score, err := r.cf.Predict(userID, c.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: cf predict user %s course %s: %w", ErrScoring, userID, c.ID, err)
		}
		top.offer(i, score)
	}

	ranked := top.sorted()
	ids := make([]string, len(ranked))
	scores := make([]float64, len(ranked))
	for i, e := range ranked {
		ids[i] = r.courses[e.pos].ID
		scores[i] = e.score
	}
	return ids, scores, nil
}

// ContentScores returns the cosine similarity between the user's taste
// vector and each candidate, aligned with candidates. Candidates missing from
// the catalog index score 0, as does everything for a user with no history.
func (r *HybridRecommender) ContentScores(ctx context.Context, userID string, candidates []string) ([]float64, error) {
	scores := make([]float64, len(candidates))

	rated, err := r.history.RatedCourses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: history for user %s: %w", ErrScoring, userID, err)
	}
	if len(rated) == 0 {
		return scores, nil
	}

	var taste []float64
	n := 0
	for _, courseID := range rated {
		idx, ok := r.courseIdx[courseID]
		if !ok {
			r.skip("history", userID, courseID)
			continue
		}
		vec, err := r.vector(idx)
		if err != nil {
			return nil, err
		}
		if taste == nil {
			taste = make([]float64, len(vec))
		}
		if len(vec) != len(taste) {
			return nil, fmt.Errorf("%w: vector for course %s has %d dimensions, want %d", ErrScoring, courseID, len(vec), len(taste))
		}
		floats.Add(taste, vec)
		n++
	}
	if n == 0 {
		return scores, nil
	}
	floats.Scale(1/float64(n), taste)
	tasteNorm := floats.Norm(taste, 2)

	for i, courseID := range candidates {
		idx, ok := r.courseIdx[courseID]
		if !ok {
			r.skip("candidate", userID, courseID)
			continue
		}
		vec, err := r.vector(idx)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(taste) {
			return nil, fmt.Errorf("%w: vector for course %s has %d dimensions, want %d", ErrScoring, courseID, len(vec), len(taste))
		}
		scores[i] = cosine(taste, tasteNorm, vec)
	}

	return scores, nil
}

// Explain returns the topK blended candidates with their score breakdown.
func (r *HybridRecommender) Explain(ctx context.Context, userID string, topK int) ([]models.ScoredCandidate, error) {
	if topK <= 0 {
		return []models.ScoredCandidate{}, nil
	}

	ids, cfScores, err := r.CFCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	contentScores, err := r.ContentScores(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	top := newTopN(topK, len(ids))
	combined := make([]float64, len(ids))
	for i := range ids {
		combined[i] = r.weights.CF*cfScores[i] + r.weights.Content*contentScores[i]
		top.offer(i, combined[i])
	}

	ranked := top.sorted()
	out := make([]models.ScoredCandidate, len(ranked))
	for i, e := range ranked {
		out[i] = models.ScoredCandidate{
			CourseID:     ids[e.pos],
			CFScore:      cfScores[e.pos],
			ContentScore: contentScores[e.pos],
			Combined:     combined[e.pos],
		}
	}
	return out, nil
}

// Recommend ranks up to topK courses for the user and joins them back to the
// catalog. An empty result is not an error.
func (r *HybridRecommender) Recommend(ctx context.Context, userID string, topK int) ([]models.CourseRecommendation, error) {
	ranked, err := r.Explain(ctx, userID, topK)
	if err != nil {
		return nil, err
	}

	out := make([]models.CourseRecommendation, 0, len(ranked))
	for i, c := range ranked {
		course, ok := r.Course(c.CourseID)
		if !ok {
			continue
		}
		out = append(out, models.CourseRecommendation{
			Course:   course,
			Score:    c.Combined,
			Position: i + 1,
		})
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"top_k":   topK,
		"results": len(out),
	}).Debug("Hybrid recommendation completed")

	return out, nil
}

// Course looks a course up by id.
func (r *HybridRecommender) Course(id string) (models.Course, bool) {
	idx, ok := r.courseIdx[id]
	if !ok {
		return models.Course{}, false
	}
	return r.courses[idx], true
}

func (r *HybridRecommender) Candidates() int { return r.nCandidates }

func (r *HybridRecommender) Weights() Weights { return r.weights }

func (r *HybridRecommender) vector(idx int) ([]float64, error) {
	tag := strconv.Itoa(idx)
	vec, err := r.content.VectorFor(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: vector for tag %s: %w", ErrScoring, tag, err)
	}
	return vec, nil
}

func (r *HybridRecommender) skip(kind, userID, courseID string) {
	r.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"user_id":   userID,
		"course_id": courseID,
	}).Debug("Course missing from catalog index, skipped for content scoring")
	if r.skipped != nil {
		r.skipped.WithLabelValues(kind).Inc()
	}
}

func cosine(a []float64, normA float64, b []float64) float64 {
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
