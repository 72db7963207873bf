package models

// Course is one row of the course catalog. Its zero-based position in the
// catalog is the tag of its document vector.
type Course struct {
	ID          string            `json:"course_id" db:"course_id"`
	Title       string            `json:"title" db:"title"`
	Category    string            `json:"category,omitempty" db:"category"`
	Language    string            `json:"language,omitempty" db:"language"`
	Instructor  string            `json:"instructor_name,omitempty" db:"instructor_name"`
	URL         string            `json:"course_url,omitempty" db:"course_url"`
	AvgRating   *float64          `json:"avg_rating,omitempty" db:"avg_rating"`
	Lectures    *int              `json:"num_lectures,omitempty" db:"num_lectures"`
	Description string            `json:"-" db:"description"`
	Attributes  map[string]string `json:"attributes,omitempty" db:"attributes"`
}

// Rating is a single (user, course, rate) triple on the 1..5 scale.
type Rating struct {
	UserID   string  `json:"user_id" db:"user_id" validate:"required"`
	CourseID string  `json:"course_id" db:"course_id" validate:"required"`
	Rate     float64 `json:"rate" db:"rate" validate:"min=1,max=5"`
}

type CoursePage struct {
	Courses []Course `json:"courses"`
	Total   int      `json:"total"`
}

type UserHistoryResponse struct {
	UserID  string   `json:"user_id"`
	Courses []Course `json:"courses"`
	Missing []string `json:"missing_course_ids,omitempty"`
}
