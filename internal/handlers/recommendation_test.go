package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/coursehybrid/internal/services"
	"github.com/temcen/coursehybrid/pkg/models"
)

// MockRecommendationService is a mock implementation
type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, userID string, topK int) (*models.RecommendationResponse, error) {
	args := m.Called(ctx, userID, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResponse), args.Error(1)
}

func (m *MockRecommendationService) RecommendBatch(ctx context.Context, req *models.BatchRecommendationRequest) *models.BatchRecommendationResponse {
	args := m.Called(ctx, req)
	return args.Get(0).(*models.BatchRecommendationResponse)
}

func (m *MockRecommendationService) Explain(ctx context.Context, userID string, topK int) (*models.ExplainResponse, error) {
	args := m.Called(ctx, userID, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExplainResponse), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func sampleResponse(userID string) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		RequestID: uuid.New(),
		UserID:    userID,
		TopK:      2,
		Recommendations: []models.CourseRecommendation{
			{Course: models.Course{ID: "c1", Title: "Intro to Go"}, Score: 0.91, Position: 1},
			{Course: models.Course{ID: "c2", Title: "Concurrency"}, Score: 0.72, Position: 2},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestRecommendationHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRecommendationService)
	handler := NewRecommendationHandler(mockService, testLogger())

	mockService.On("Recommend", mock.Anything, "u1", 2).Return(sampleResponse("u1"), nil)

	router := gin.New()
	router.GET("/recommendations/:userId", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/recommendations/u1?top_k=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "u1", response.UserID)
	require.Len(t, response.Recommendations, 2)
	assert.Equal(t, "c1", response.Recommendations[0].Course.ID)
	assert.Equal(t, 1, response.Recommendations[0].Position)

	mockService.AssertExpectations(t)
}

func TestRecommendationHandler_GetDefaultTopK(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRecommendationService)
	handler := NewRecommendationHandler(mockService, testLogger())

	mockService.On("Recommend", mock.Anything, "u1", 0).Return(sampleResponse("u1"), nil)

	router := gin.New()
	router.GET("/recommendations/:userId", handler.Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendations/u1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestRecommendationHandler_GetErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		url        string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"non-numeric top_k", "/recommendations/u1?top_k=abc", nil, http.StatusBadRequest, "INVALID_TOP_K"},
		{"negative top_k", "/recommendations/u1?top_k=-3", nil, http.StatusBadRequest, "INVALID_TOP_K"},
		{"top_k above maximum", "/recommendations/u1?top_k=500", services.ErrInvalidTopK, http.StatusBadRequest, "INVALID_TOP_K"},
		{"scoring failure", "/recommendations/u1?top_k=5", services.ErrRecommendationFailed, http.StatusInternalServerError, "RECOMMENDATION_GENERATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockRecommendationService)
			if tt.serviceErr != nil {
				mockService.On("Recommend", mock.Anything, "u1", mock.Anything).Return(nil, tt.serviceErr)
			}
			handler := NewRecommendationHandler(mockService, testLogger())

			router := gin.New()
			router.GET("/recommendations/:userId", handler.Get)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w))
			mockService.AssertExpectations(t)
		})
	}
}

func TestRecommendationHandler_GetBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRecommendationService)
	handler := NewRecommendationHandler(mockService, testLogger())

	batchResp := &models.BatchRecommendationResponse{
		Responses: []models.RecommendationResponse{*sampleResponse("u1")},
		Failed:    []string{"u2"},
	}
	mockService.On("RecommendBatch", mock.Anything, mock.MatchedBy(func(r *models.BatchRecommendationRequest) bool {
		return len(r.Requests) == 2 && r.Requests[0].UserID == "u1" && r.Requests[1].TopK == 3
	})).Return(batchResp)

	router := gin.New()
	router.POST("/recommendations/batch", handler.GetBatch)

	body, _ := json.Marshal(models.BatchRecommendationRequest{
		Requests: []models.RecommendationRequest{{UserID: "u1"}, {UserID: "u2", TopK: 3}},
	})
	req := httptest.NewRequest(http.MethodPost, "/recommendations/batch", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.BatchRecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Responses, 1)
	assert.Equal(t, []string{"u2"}, response.Failed)

	mockService.AssertExpectations(t)
}

func TestRecommendationHandler_GetBatchInvalid(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"requests": [`, "INVALID_REQUEST_BODY"},
		{"empty batch", `{"requests": []}`, "VALIDATION_FAILED"},
		{"missing user id", `{"requests": [{"top_k": 3}]}`, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockRecommendationService)
			handler := NewRecommendationHandler(mockService, testLogger())

			router := gin.New()
			router.POST("/recommendations/batch", handler.GetBatch)

			req := httptest.NewRequest(http.MethodPost, "/recommendations/batch", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w))
			mockService.AssertNotCalled(t, "RecommendBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestRecommendationHandler_Explain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRecommendationService)
	handler := NewRecommendationHandler(mockService, testLogger())

	mockService.On("Explain", mock.Anything, "u1", 1).Return(&models.ExplainResponse{
		UserID:  "u1",
		Weights: models.BlendWeights{CF: 0.7, Content: 0.3},
		Candidates: []models.ScoredCandidate{
			{CourseID: "c1", CFScore: 1, ContentScore: 0.5, Combined: 0.85},
		},
	}, nil)
	mockService.On("Explain", mock.Anything, "u2", 0).Return(nil, errors.New("boom"))

	router := gin.New()
	router.GET("/recommendations/:userId/explain", handler.Explain)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendations/u1/explain?top_k=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ExplainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0.7, response.Weights.CF)
	require.Len(t, response.Candidates, 1)
	assert.Equal(t, 0.85, response.Candidates[0].Combined)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendations/u2/explain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	mockService.AssertExpectations(t)
}
