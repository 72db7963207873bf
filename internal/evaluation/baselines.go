package evaluation

import (
	"context"
	"sort"

	"github.com/temcen/coursehybrid/pkg/models"
)

type courseStats struct {
	id    string
	count int
	sum   float64
}

func (s courseStats) mean() float64 { return s.sum / float64(s.count) }

func collectStats(ratings []models.Rating) []courseStats {
	index := make(map[string]int)
	var stats []courseStats
	for _, r := range ratings {
		i, ok := index[r.CourseID]
		if !ok {
			i = len(stats)
			index[r.CourseID] = i
			stats = append(stats, courseStats{id: r.CourseID})
		}
		stats[i].count++
		stats[i].sum += r.Rate
	}
	return stats
}

// StaticRanker recommends the same ordered list to every user.
type StaticRanker struct {
	ranked []string
}

func (s *StaticRanker) Rank(_ context.Context, _ string, k int) ([]string, error) {
	if k > len(s.ranked) {
		k = len(s.ranked)
	}
	return append([]string(nil), s.ranked[:k]...), nil
}

func rankBy(stats []courseStats, less func(a, b courseStats) bool) *StaticRanker {
	sort.SliceStable(stats, func(i, j int) bool { return less(stats[i], stats[j]) })
	ranked := make([]string, len(stats))
	for i, s := range stats {
		ranked[i] = s.id
	}
	return &StaticRanker{ranked: ranked}
}

// NewPopularity ranks courses by number of ratings.
func NewPopularity(train []models.Rating) *StaticRanker {
	return rankBy(collectStats(train), func(a, b courseStats) bool {
		return a.count > b.count
	})
}

// AverageRating ranks courses by mean rating, breaking ties by rating count.
// It also predicts a course's mean rating, or the global mean for courses it
// has not seen.
type AverageRating struct {
	*StaticRanker
	means      map[string]float64
	globalMean float64
}

func NewAverageRating(train []models.Rating) *AverageRating {
	stats := collectStats(train)
	means := make(map[string]float64, len(stats))
	var sum float64
	for _, s := range stats {
		means[s.id] = s.mean()
		sum += s.sum
	}
	var global float64
	if len(train) > 0 {
		global = sum / float64(len(train))
	}

	return &AverageRating{
		StaticRanker: rankBy(stats, func(a, b courseStats) bool {
			if a.mean() != b.mean() {
				return a.mean() > b.mean()
			}
			return a.count > b.count
		}),
		means:      means,
		globalMean: global,
	}
}

func (a *AverageRating) Predict(_, courseID string) (float64, error) {
	if m, ok := a.means[courseID]; ok {
		return m, nil
	}
	return a.globalMean, nil
}
