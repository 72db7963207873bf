package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/analytics"
	"github.com/temcen/coursehybrid/pkg/models"
)

type DatasetService interface {
	Overview(top int) *analytics.Overview
	Courses(limit, offset int) *models.CoursePage
}

type DatasetHandler struct {
	logger  *logrus.Logger
	service DatasetService
}

func NewDatasetHandler(logger *logrus.Logger, service DatasetService) *DatasetHandler {
	return &DatasetHandler{
		logger:  logger,
		service: service,
	}
}

// intQuery parses an integer query parameter, falling back to def when it is
// missing, malformed or outside [min, max].
func intQuery(c *gin.Context, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

// Overview handles GET /dataset/overview
func (h *DatasetHandler) Overview(c *gin.Context) {
	top := intQuery(c, "top", 10, 1, 100)
	c.JSON(http.StatusOK, h.service.Overview(top))
}

// Courses handles GET /dataset/courses
func (h *DatasetHandler) Courses(c *gin.Context) {
	limit := intQuery(c, "limit", 50, 1, 500)
	offset := intQuery(c, "offset", 0, 0, int(^uint(0)>>1))

	page := h.service.Courses(limit, offset)
	c.JSON(http.StatusOK, gin.H{
		"courses": page.Courses,
		"pagination": gin.H{
			"total":    page.Total,
			"limit":    limit,
			"offset":   offset,
			"has_more": offset+len(page.Courses) < page.Total,
		},
	})
}
