package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/temcen/coursehybrid/internal/ml"
	"github.com/temcen/coursehybrid/pkg/models"
)

type ModelLister interface {
	ListModels() []ml.ModelInfo
}

type ModelsHandler struct {
	registry ModelLister
	weights  func() models.BlendWeights
}

func NewModelsHandler(registry ModelLister, weights func() models.BlendWeights) *ModelsHandler {
	return &ModelsHandler{registry: registry, weights: weights}
}

// List handles GET /models
func (h *ModelsHandler) List(c *gin.Context) {
	resp := gin.H{"models": h.registry.ListModels()}
	if h.weights != nil {
		resp["weights"] = h.weights()
	}
	c.JSON(http.StatusOK, resp)
}
