package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/pkg/models"
)

type HistoryService interface {
	UserHistory(ctx context.Context, userID string) (*models.UserHistoryResponse, error)
}

type UserHandler struct {
	logger  *logrus.Logger
	service HistoryService
}

func NewUserHandler(logger *logrus.Logger, service HistoryService) *UserHandler {
	return &UserHandler{
		logger:  logger,
		service: service,
	}
}

// GetHistory handles GET /users/:userId/history
func (h *UserHandler) GetHistory(c *gin.Context) {
	userID := c.Param("userId")

	resp, err := h.service.UserHistory(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to get user history")
		respondError(c, http.StatusInternalServerError, "HISTORY_RETRIEVAL_FAILED", "Failed to retrieve user history")
		return
	}

	c.JSON(http.StatusOK, resp)
}
