package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/coursehybrid/internal/analytics"
	"github.com/temcen/coursehybrid/internal/evaluation"
	"github.com/temcen/coursehybrid/internal/ml"
	"github.com/temcen/coursehybrid/internal/services"
	"github.com/temcen/coursehybrid/pkg/models"
)

type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Overview(top int) *analytics.Overview {
	return m.Called(top).Get(0).(*analytics.Overview)
}

func (m *MockDatasetService) Courses(limit, offset int) *models.CoursePage {
	return m.Called(limit, offset).Get(0).(*models.CoursePage)
}

func (m *MockDatasetService) UserHistory(ctx context.Context, userID string) (*models.UserHistoryResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserHistoryResponse), args.Error(1)
}

type MockEvaluationService struct {
	mock.Mock
}

func (m *MockEvaluationService) Evaluate(ctx context.Context, req models.EvaluationRequest) (*evaluation.Report, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*evaluation.Report), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockTokenIssuer) RevokeToken(ctx context.Context, clientID string) error {
	return m.Called(ctx, clientID).Error(0)
}

type staticHealth struct {
	status string
}

func (s staticHealth) CheckHealth(context.Context) *services.HealthStatus {
	return &services.HealthStatus{Status: s.status, Timestamp: time.Now()}
}

type staticModels []ml.ModelInfo

func (s staticModels) ListModels() []ml.ModelInfo { return s }

func TestUserHandler_GetHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockDatasetService)
	mockService.On("UserHistory", mock.Anything, "u1").Return(&models.UserHistoryResponse{
		UserID:  "u1",
		Courses: []models.Course{{ID: "c1", Title: "Intro to Go"}},
		Missing: []string{"gone"},
	}, nil)
	mockService.On("UserHistory", mock.Anything, "u2").Return(nil, errors.New("neo4j unavailable"))

	handler := NewUserHandler(testLogger(), mockService)
	router := gin.New()
	router.GET("/users/:userId/history", handler.GetHistory)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response models.UserHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Courses, 1)
	assert.Equal(t, "c1", response.Courses[0].ID)
	assert.Equal(t, []string{"gone"}, response.Missing)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u2/history", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "HISTORY_RETRIEVAL_FAILED", decodeError(t, w))

	mockService.AssertExpectations(t)
}

func TestDatasetHandler_Overview(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		url     string
		wantTop int
	}{
		{"/dataset/overview", 10},
		{"/dataset/overview?top=3", 3},
		{"/dataset/overview?top=0", 10},
		{"/dataset/overview?top=1000", 10},
		{"/dataset/overview?top=x", 10},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			mockService := new(MockDatasetService)
			mockService.On("Overview", tt.wantTop).Return(&analytics.Overview{Users: 2, Courses: 3, Ratings: 4})

			handler := NewDatasetHandler(testLogger(), mockService)
			router := gin.New()
			router.GET("/dataset/overview", handler.Overview)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, http.StatusOK, w.Code)

			var response analytics.Overview
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, 3, response.Courses)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Courses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockDatasetService)
	mockService.On("Courses", 2, 1).Return(&models.CoursePage{
		Courses: []models.Course{{ID: "c2"}, {ID: "c3"}},
		Total:   5,
	})
	mockService.On("Courses", 50, 0).Return(&models.CoursePage{
		Courses: []models.Course{{ID: "c1"}},
		Total:   1,
	})

	handler := NewDatasetHandler(testLogger(), mockService)
	router := gin.New()
	router.GET("/dataset/courses", handler.Courses)

	var response struct {
		Courses    []models.Course `json:"courses"`
		Pagination struct {
			Total   int  `json:"total"`
			Limit   int  `json:"limit"`
			Offset  int  `json:"offset"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dataset/courses?limit=2&offset=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Courses, 2)
	assert.Equal(t, 5, response.Pagination.Total)
	assert.True(t, response.Pagination.HasMore)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dataset/courses?limit=-1&offset=-4", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 50, response.Pagination.Limit)
	assert.Equal(t, 0, response.Pagination.Offset)
	assert.False(t, response.Pagination.HasMore)

	mockService.AssertExpectations(t)
}

func TestMetricsHandler_Evaluate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rmse := 0.5
	report := &evaluation.Report{
		K:           5,
		Threshold:   4,
		TestRatings: 10,
		Models:      []evaluation.ModelMetrics{{Name: "hybrid", RMSE: &rmse, Precision: 0.4, Recall: 0.6}},
	}

	tests := []struct {
		name       string
		body       string
		expect     *models.EvaluationRequest
		result     *evaluation.Report
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty body uses defaults", "", &models.EvaluationRequest{}, report, nil, http.StatusOK, ""},
		{"explicit parameters", `{"k":5,"threshold":4,"test_ratio":0.25}`, &models.EvaluationRequest{K: 5, Threshold: 4, TestRatio: 0.25}, report, nil, http.StatusOK, ""},
		{"ratio out of range", `{"test_ratio":1.5}`, nil, nil, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed body", `{"k":`, nil, nil, nil, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"no held-out ratings", `{}`, &models.EvaluationRequest{}, nil, fmt.Errorf("split: %w", evaluation.ErrNoRatings), http.StatusUnprocessableEntity, "NOT_ENOUGH_RATINGS"},
		{"evaluation failure", `{}`, &models.EvaluationRequest{}, nil, errors.New("boom"), http.StatusInternalServerError, "EVALUATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockEvaluationService)
			if tt.expect != nil {
				mockService.On("Evaluate", mock.Anything, *tt.expect).Return(tt.result, tt.err)
			}

			handler := NewMetricsHandler(testLogger(), mockService)
			router := gin.New()
			router.POST("/metrics/evaluate", handler.Evaluate)

			req := httptest.NewRequest(http.MethodPost, "/metrics/evaluate", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w))
			} else {
				var response evaluation.Report
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				require.Len(t, response.Models, 1)
				assert.Equal(t, "hybrid", response.Models[0].Name)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestModelsHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := staticModels{
		{Name: "doc2vec", Kind: ml.KindEmbedding, Dimensions: 50},
		{Name: "svd", Kind: ml.KindCF, Version: "2024-06"},
	}
	handler := NewModelsHandler(registry, func() models.BlendWeights {
		return models.BlendWeights{CF: 0.7, Content: 0.3}
	})

	router := gin.New()
	router.GET("/models", handler.List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Models  []ml.ModelInfo      `json:"models"`
		Weights models.BlendWeights `json:"weights"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Models, 2)
	assert.Equal(t, "svd", response.Models[1].Name)
	assert.Equal(t, 0.3, response.Weights.Content)
}

func TestAuthHandler_Token(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issued := &models.AuthResponse{Token: "signed", ClientID: "client-1", ExpiresAt: time.Now().Add(time.Hour), UserTier: "premium"}

	tests := []struct {
		name       string
		body       string
		result     *models.AuthResponse
		err        error
		called     bool
		wantStatus int
		wantCode   string
	}{
		{"valid key", `{"api_key":"demo-premium","client_id":"client-1"}`, issued, nil, true, http.StatusOK, ""},
		{"unknown key", `{"api_key":"nope"}`, nil, services.ErrInvalidAPIKey, true, http.StatusUnauthorized, "INVALID_API_KEY"},
		{"issuer failure", `{"api_key":"demo-premium"}`, nil, errors.New("redis down"), true, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED"},
		{"missing key", `{}`, nil, nil, false, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed body", `not json`, nil, nil, false, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := new(MockTokenIssuer)
			if tt.called {
				issuer.On("IssueToken", mock.Anything, mock.AnythingOfType("*models.AuthRequest")).Return(tt.result, tt.err)
			}

			handler := NewAuthHandler(testLogger(), issuer)
			router := gin.New()
			router.POST("/auth/token", handler.Token)

			req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w))
			} else {
				var response models.AuthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "signed", response.Token)
			}
			issuer.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Revoke(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issuer := new(MockTokenIssuer)
	issuer.On("RevokeToken", mock.Anything, "client-1").Return(nil)
	issuer.On("RevokeToken", mock.Anything, "client-2").Return(errors.New("redis down"))

	handler := NewAuthHandler(testLogger(), issuer)

	tests := []struct {
		name       string
		clientID   string
		wantStatus int
	}{
		{"revoked", "client-1", http.StatusNoContent},
		{"store failure", "client-2", http.StatusInternalServerError},
		{"no client in context", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.DELETE("/auth/token", func(c *gin.Context) {
				if tt.clientID != "" {
					c.Set("client_id", tt.clientID)
				}
				c.Next()
			}, handler.Revoke)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/auth/token", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	issuer.AssertExpectations(t)
}

func TestHealthHandler_Check(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status     string
		wantStatus int
	}{
		{"healthy", http.StatusOK},
		{"degraded", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
		{"unknown", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			handler := NewHealthHandler(testLogger(), staticHealth{status: tt.status})
			router := gin.New()
			router.GET("/health", handler.Check)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
