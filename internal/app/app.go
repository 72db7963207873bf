package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/catalog"
	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/internal/database"
	"github.com/temcen/coursehybrid/internal/handlers"
	"github.com/temcen/coursehybrid/internal/middleware"
	"github.com/temcen/coursehybrid/internal/ml"
	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(ctx, cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	domain, metrics, err := app.buildDomain(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Initialize services
	app.services = services.New(cfg, app.logger, db, domain, metrics)

	// Initialize handlers
	app.handlers = handlers.New(app.logger, app.services)

	// Setup router
	app.setupRouter()

	return app, nil
}

// buildDomain loads the dataset and models and assembles the recommender.
func (a *App) buildDomain(ctx context.Context) (*services.Domain, *services.RecommendationMetrics, error) {
	store := catalog.NewPostgresStore(a.db.PG, a.logger)

	ds, err := loadDataset(ctx, store, a.config.Models)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	a.logger.WithFields(logrus.Fields{
		"courses": len(ds.courses),
		"ratings": len(ds.ratings),
	}).Info("Dataset loaded")

	if err := checkEmbeddings(ds.courses, ds.vectors); err != nil {
		return nil, nil, err
	}

	registry := ml.NewModelRegistry(a.logger)
	if err := registerModels(registry, a.config.Models, ds); err != nil {
		return nil, nil, fmt.Errorf("failed to register models: %w", err)
	}

	var graph ratingImporter
	if a.db.Neo4j != nil {
		graph = catalog.NewNeo4jHistory(a.db.Neo4j, a.logger)
	}
	history, err := selectHistory(ctx, a.config, ds.ratings, store, graph, a.logger)
	if err != nil {
		return nil, nil, err
	}

	metrics := services.NewRecommendationMetrics(prometheus.DefaultRegisterer, a.logger)

	rc := a.config.Recommender
	rec, err := recommender.New(ds.cf, ds.vectors, ds.courses, history,
		recommender.WithCandidates(rc.NCandidates),
		recommender.WithWeights(recommender.Weights{CF: rc.CFWeight, Content: rc.ContentWeight}),
		recommender.WithLogger(a.logger),
		recommender.WithSkipCounter(metrics.Skipped),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build recommender: %w", err)
	}

	return &services.Domain{
		Recommender: rec,
		CF:          ds.cf,
		Content:     ds.vectors,
		Courses:     ds.courses,
		Ratings:     ds.ratings,
		History:     history,
		Models:      registry,
	}, metrics, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing services")
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.router = newRouter(a.config, a.logger, a.handlers, a.services.Auth, a.services.RateLimit)
}

func newRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	h *handlers.Handlers,
	auth middleware.TokenValidator,
	limiter middleware.RateLimiter,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg))

	// Health check endpoint (no auth required)
	router.GET("/health", h.Health.Check)

	// Prometheus metrics endpoint (no auth required)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Token exchange (no auth required)
	router.POST("/auth/token", h.Auth.Token)

	// API routes
	api := router.Group("/api/v1")
	{
		// Authentication middleware for API routes
		api.Use(middleware.Auth(auth, logger))
		api.Use(middleware.RateLimit(limiter, middleware.RouteCosts{
			"/api/v1/recommendations/batch": cfg.Auth.RateLimit.BatchCost,
			"/api/v1/metrics/evaluate":      cfg.Auth.RateLimit.EvaluateCost,
		}, logger))

		api.DELETE("/auth/token", h.Auth.Revoke)

		// Recommendation routes
		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("/:userId", h.Recommendation.Get)
			recommendations.POST("/batch", h.Recommendation.GetBatch)
			recommendations.GET("/:userId/explain", h.Recommendation.Explain)
		}

		// User routes
		api.GET("/users/:userId/history", h.User.GetHistory)

		// Dataset routes
		dataset := api.Group("/dataset")
		{
			dataset.GET("/overview", h.Dataset.Overview)
			dataset.GET("/courses", h.Dataset.Courses)
		}

		api.POST("/metrics/evaluate", h.Metrics.Evaluate)
		api.GET("/models", h.Models.List)
	}

	return router
}
