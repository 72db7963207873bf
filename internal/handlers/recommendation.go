package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/services"
	"github.com/temcen/coursehybrid/pkg/models"
)

type RecommendationService interface {
	Recommend(ctx context.Context, userID string, topK int) (*models.RecommendationResponse, error)
	RecommendBatch(ctx context.Context, req *models.BatchRecommendationRequest) *models.BatchRecommendationResponse
	Explain(ctx context.Context, userID string, topK int) (*models.ExplainResponse, error)
}

type RecommendationHandler struct {
	service   RecommendationService
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewRecommendationHandler(service RecommendationService, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// parseTopK reads the optional top_k query parameter; zero means the default.
func parseTopK(c *gin.Context) (int, bool) {
	raw := c.Query("top_k")
	if raw == "" {
		return 0, true
	}
	topK, err := strconv.Atoi(raw)
	if err != nil || topK < 1 {
		respondError(c, http.StatusBadRequest, "INVALID_TOP_K", "top_k must be a positive integer")
		return 0, false
	}
	return topK, true
}

func (h *RecommendationHandler) respondServiceError(c *gin.Context, userID string, err error) {
	if errors.Is(err, services.ErrInvalidTopK) {
		respondError(c, http.StatusBadRequest, "INVALID_TOP_K", err.Error())
		return
	}
	h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
	respondError(c, http.StatusInternalServerError, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
}

// Get handles GET /recommendations/:userId
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID := c.Param("userId")

	topK, ok := parseTopK(c)
	if !ok {
		return
	}

	resp, err := h.service.Recommend(c.Request.Context(), userID, topK)
	if err != nil {
		h.respondServiceError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBatch handles POST /recommendations/batch
func (h *RecommendationHandler) GetBatch(c *gin.Context) {
	var batchRequest models.BatchRecommendationRequest
	if err := c.ShouldBindJSON(&batchRequest); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Invalid request body format")
		return
	}

	if err := h.validator.Struct(&batchRequest); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, h.service.RecommendBatch(c.Request.Context(), &batchRequest))
}

// Explain handles GET /recommendations/:userId/explain
func (h *RecommendationHandler) Explain(c *gin.Context) {
	userID := c.Param("userId")

	topK, ok := parseTopK(c)
	if !ok {
		return
	}

	resp, err := h.service.Explain(c.Request.Context(), userID, topK)
	if err != nil {
		h.respondServiceError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
