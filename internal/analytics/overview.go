// Package analytics summarises the course catalog and rating table for the
// dataset endpoints.
package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/coursehybrid/pkg/models"
)

const lectureBins = 20

type CategoryCount struct {
	Category string `json:"category"`
	Courses  int    `json:"courses"`
}

type CourseSummary struct {
	CourseID   string  `json:"course_id"`
	Title      string  `json:"title"`
	Category   string  `json:"category,omitempty"`
	NumRatings int     `json:"num_ratings"`
	AvgRating  float64 `json:"avg_rating"`
}

type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

type Overview struct {
	Users            int             `json:"users"`
	Courses          int             `json:"courses"`
	Ratings          int             `json:"ratings"`
	Categories       []CategoryCount `json:"categories"`
	TopCourses       []CourseSummary `json:"top_courses"`
	RatingHistogram  map[int]int     `json:"rating_histogram"`
	LectureHistogram []Bin           `json:"lecture_histogram,omitempty"`
}

// Summarize builds the dataset overview. Top courses are ranked by rating
// count; ratings of courses missing from the catalog are counted but never
// listed.
func Summarize(courses []models.Course, ratings []models.Rating, topN int) *Overview {
	o := &Overview{
		Courses:          countDistinctCourses(courses),
		Ratings:          len(ratings),
		Categories:       categories(courses),
		RatingHistogram:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		LectureHistogram: lectureHistogram(courses, lectureBins),
	}

	users := make(map[string]struct{})
	for _, r := range ratings {
		users[r.UserID] = struct{}{}
		o.RatingHistogram[ratingBucket(r.Rate)]++
	}
	o.Users = len(users)
	o.TopCourses = topCourses(courses, ratings, topN)
	return o
}

func countDistinctCourses(courses []models.Course) int {
	ids := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		ids[c.ID] = struct{}{}
	}
	return len(ids)
}

func categories(courses []models.Course) []CategoryCount {
	counts := make(map[string]int)
	for _, c := range courses {
		name := c.Category
		if name == "" {
			name = "uncategorized"
		}
		counts[name]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Category: name, Courses: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Courses != out[j].Courses {
			return out[i].Courses > out[j].Courses
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func topCourses(courses []models.Course, ratings []models.Rating, topN int) []CourseSummary {
	if topN <= 0 {
		return []CourseSummary{}
	}

	catalog := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		catalog[c.ID] = c
	}

	index := make(map[string]int)
	var summaries []CourseSummary
	for _, r := range ratings {
		c, ok := catalog[r.CourseID]
		if !ok {
			continue
		}
		i, seen := index[r.CourseID]
		if !seen {
			i = len(summaries)
			index[r.CourseID] = i
			summaries = append(summaries, CourseSummary{CourseID: c.ID, Title: c.Title, Category: c.Category})
		}
		s := &summaries[i]
		s.AvgRating += (r.Rate - s.AvgRating) / float64(s.NumRatings+1)
		s.NumRatings++
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].NumRatings > summaries[j].NumRatings
	})
	if len(summaries) > topN {
		summaries = summaries[:topN]
	}
	if summaries == nil {
		summaries = []CourseSummary{}
	}
	return summaries
}

func ratingBucket(rate float64) int {
	b := int(math.Round(rate))
	if b < 1 {
		return 1
	}
	if b > 5 {
		return 5
	}
	return b
}

// lectureHistogram splits the lecture counts into equal-width bins between
// the smallest and largest value.
func lectureHistogram(courses []models.Course, bins int) []Bin {
	var x []float64
	for _, c := range courses {
		if c.Lectures != nil {
			x = append(x, float64(*c.Lectures))
		}
	}
	if len(x) == 0 {
		return nil
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		return []Bin{{Low: lo, High: hi, Count: len(x)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	out := make([]Bin, bins)
	for i, n := range counts {
		out[i] = Bin{Low: dividers[i], High: dividers[i+1], Count: int(n)}
	}
	out[bins-1].High = hi
	return out
}
