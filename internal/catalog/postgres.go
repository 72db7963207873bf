package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/pkg/models"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PostgresStore reads the course catalog and rating history tables.
type PostgresStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewPostgresStore(db Querier, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

const coursesQuery = `
	SELECT course_id,
		COALESCE(title, ''),
		COALESCE(category, ''),
		COALESCE(language, ''),
		COALESCE(instructor_name, ''),
		COALESCE(course_url, ''),
		COALESCE(avg_rating, 0),
		COALESCE(num_lectures, 0)
	FROM courses
	ORDER BY position, course_id`

// LoadCourses returns the catalog in position order. The returned order is
// the document-vector tag order and must not be changed by callers.
func (s *PostgresStore) LoadCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.db.Query(ctx, coursesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var (
			c         models.Course
			avgRating float64
			lectures  int64
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Language, &c.Instructor, &c.URL, &avgRating, &lectures); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		if avgRating > 0 {
			c.AvgRating = &avgRating
		}
		if lectures > 0 {
			n := int(lectures)
			c.Lectures = &n
		}
		c.Description = BuildDescription(c.ID, c.Title, c.Category, c.Language, c.Instructor, c.URL)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read courses: %w", err)
	}

	s.logger.WithField("courses", len(courses)).Info("Course catalog loaded")
	return courses, nil
}

// LoadRatings returns every rating in insertion order.
func (s *PostgresStore) LoadRatings(ctx context.Context) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id, course_id, rate FROM ratings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.CourseID, &r.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}

	s.logger.WithField("ratings", len(ratings)).Info("Ratings loaded")
	return ratings, nil
}

// RatedCourses lets the store serve as a live rating history.
func (s *PostgresStore) RatedCourses(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT course_id FROM ratings WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for user %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history for user %s: %w", userID, err)
	}
	return ids, nil
}
