package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/middleware"
	"github.com/temcen/coursehybrid/internal/services"
	"github.com/temcen/coursehybrid/pkg/models"
)

type TokenIssuer interface {
	IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error)
	RevokeToken(ctx context.Context, clientID string) error
}

type AuthHandler struct {
	logger    *logrus.Logger
	issuer    TokenIssuer
	validator *validator.Validate
}

func NewAuthHandler(logger *logrus.Logger, issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		issuer:    issuer,
		validator: validator.New(),
	}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Invalid request body format")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	resp, err := h.issuer.IssueToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			respondError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
			return
		}
		h.logger.WithError(err).Error("Failed to issue token")
		respondError(c, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Revoke handles DELETE /auth/token. It ends the caller's session so tokens
// issued to the client stop validating.
func (h *AuthHandler) Revoke(c *gin.Context) {
	clientID, _ := middleware.GetClientFromContext(c)
	if clientID == "" {
		respondError(c, http.StatusUnauthorized, "MISSING_CLIENT", "No authenticated client")
		return
	}

	if err := h.issuer.RevokeToken(c.Request.Context(), clientID); err != nil {
		h.logger.WithError(err).WithField("client_id", clientID).Error("Failed to revoke token")
		respondError(c, http.StatusInternalServerError, "TOKEN_REVOCATION_FAILED", "Failed to revoke token")
		return
	}

	c.Status(http.StatusNoContent)
}
