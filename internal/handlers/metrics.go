package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/evaluation"
	"github.com/temcen/coursehybrid/pkg/models"
)

type EvaluationService interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*evaluation.Report, error)
}

// MetricsHandler serves offline evaluation of the recommenders
type MetricsHandler struct {
	logger    *logrus.Logger
	service   EvaluationService
	validator *validator.Validate
}

func NewMetricsHandler(logger *logrus.Logger, service EvaluationService) *MetricsHandler {
	return &MetricsHandler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// Evaluate handles POST /metrics/evaluate. An empty body runs with defaults.
func (h *MetricsHandler) Evaluate(c *gin.Context) {
	var req models.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Invalid request body format")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	report, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, evaluation.ErrNoRatings) {
			respondError(c, http.StatusUnprocessableEntity, "NOT_ENOUGH_RATINGS", err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to evaluate models")
		respondError(c, http.StatusInternalServerError, "EVALUATION_FAILED", "Failed to evaluate models")
		return
	}

	c.JSON(http.StatusOK, report)
}
