package services

import (
	"context"
	"fmt"

	"github.com/temcen/coursehybrid/internal/analytics"
	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/pkg/models"
)

// DatasetService serves read-only views of the loaded catalog and ratings.
type DatasetService struct {
	courses []models.Course
	byID    map[string]models.Course
	ratings []models.Rating
	history recommender.History
}

func NewDatasetService(courses []models.Course, ratings []models.Rating, history recommender.History) *DatasetService {
	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return &DatasetService{
		courses: courses,
		byID:    byID,
		ratings: ratings,
		history: history,
	}
}

func (s *DatasetService) Overview(top int) *analytics.Overview {
	return analytics.Summarize(s.courses, s.ratings, top)
}

// Courses returns one page of the catalog in catalog order.
func (s *DatasetService) Courses(limit, offset int) *models.CoursePage {
	total := len(s.courses)
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &models.CoursePage{
		Courses: append([]models.Course{}, s.courses[offset:end]...),
		Total:   total,
	}
}

// UserHistory lists the catalog courses a user rated, in history order.
// Rated ids missing from the catalog are reported separately.
func (s *DatasetService) UserHistory(ctx context.Context, userID string) (*models.UserHistoryResponse, error) {
	ids, err := s.history.RatedCourses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for user %s: %w", userID, err)
	}

	resp := &models.UserHistoryResponse{UserID: userID, Courses: []models.Course{}}
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			resp.Courses = append(resp.Courses, c)
		} else {
			resp.Missing = append(resp.Missing, id)
		}
	}
	return resp, nil
}
