package catalog

import (
	"context"

	"github.com/temcen/coursehybrid/pkg/models"
)

// RatingTable is an in-memory, read-only rating history indexed by user.
// Each user's course ids keep table order; repeated ratings are kept.
type RatingTable struct {
	byUser map[string][]string
}

func NewRatingTable(ratings []models.Rating) *RatingTable {
	t := &RatingTable{byUser: make(map[string][]string)}
	for _, r := range ratings {
		t.byUser[r.UserID] = append(t.byUser[r.UserID], r.CourseID)
	}
	return t
}

func (t *RatingTable) RatedCourses(_ context.Context, userID string) ([]string, error) {
	return append([]string(nil), t.byUser[userID]...), nil
}
