package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/pkg/models"
)

// Neo4jHistory answers rating-history lookups from the rating graph:
// (:User {user_id})-[:RATED {seq}]->(:Course {course_id}).
type Neo4jHistory struct {
	driver neo4j.DriverWithContext
	logger *logrus.Logger
}

func NewNeo4jHistory(driver neo4j.DriverWithContext, logger *logrus.Logger) *Neo4jHistory {
	return &Neo4jHistory{driver: driver, logger: logger}
}

const ratedCoursesCypher = `
	MATCH (u:User {user_id: $userId})-[r:RATED]->(c:Course)
	RETURN c.course_id AS course_id
	ORDER BY r.seq`

func (h *Neo4jHistory) RatedCourses(ctx context.Context, userID string) ([]string, error) {
	session := h.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, ratedCoursesCypher, map[string]interface{}{
		"userId": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query rating graph: %w", err)
	}

	var ids []string
	for result.Next(ctx) {
		value, _ := result.Record().Get("course_id")
		id, ok := courseIDFromValue(value)
		if !ok {
			h.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"value":   value,
			}).Warn("Skipping rating edge with unusable course id")
			continue
		}
		ids = append(ids, id)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rating graph: %w", err)
	}
	return ids, nil
}

// ImportRatings mirrors the rating table into the graph. Existing edges are
// replaced so repeated imports are idempotent.
func (h *Neo4jHistory) ImportRatings(ctx context.Context, ratings []models.Rating) error {
	rows := ratingRows(ratings)

	session := h.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		if _, err := tx.Run(ctx, `MATCH (:User)-[r:RATED]->(:Course) DELETE r`, nil); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `
			UNWIND $rows AS row
			MERGE (u:User {user_id: row.user_id})
			MERGE (c:Course {course_id: row.course_id})
			CREATE (u)-[:RATED {rate: row.rate, seq: row.seq}]->(c)`,
			map[string]interface{}{"rows": rows})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to import ratings into graph: %w", err)
	}

	h.logger.WithField("ratings", len(rows)).Info("Rating graph imported")
	return nil
}

func ratingRows(ratings []models.Rating) []map[string]interface{} {
	rows := make([]map[string]interface{}, len(ratings))
	for i, r := range ratings {
		rows[i] = map[string]interface{}{
			"user_id":   r.UserID,
			"course_id": r.CourseID,
			"rate":      r.Rate,
			"seq":       int64(i),
		}
	}
	return rows
}

func courseIDFromValue(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}
