package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/coursehybrid/internal/catalog"
	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/internal/ml"
	"github.com/temcen/coursehybrid/internal/recommender"
	"github.com/temcen/coursehybrid/pkg/models"
)

// datasetStore is the read side of catalog.PostgresStore.
type datasetStore interface {
	LoadCourses(ctx context.Context) ([]models.Course, error)
	LoadRatings(ctx context.Context) ([]models.Rating, error)
}

type dataset struct {
	courses []models.Course
	ratings []models.Rating
	cf      *ml.FactorModel
	vectors *ml.DocVectors
	cfRaw   []byte
	vecRaw  []byte
}

// loadDataset reads the catalog, the rating table and both model artifacts
// concurrently. The first failure cancels the rest.
func loadDataset(ctx context.Context, store datasetStore, cfg config.ModelConfig) (*dataset, error) {
	var ds dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		courses, err := store.LoadCourses(gctx)
		if err != nil {
			return err
		}
		ds.courses = courses
		return nil
	})
	g.Go(func() error {
		ratings, err := store.LoadRatings(gctx)
		if err != nil {
			return err
		}
		ds.ratings = ratings
		return nil
	})
	g.Go(func() error {
		var opts []ml.FactorModelOption
		if cfg.StrictUsers {
			opts = append(opts, ml.WithStrictUsers())
		}
		m, raw, err := ml.LoadFactorModelFile(cfg.CFPath, opts...)
		if err != nil {
			return err
		}
		ds.cf, ds.cfRaw = m, raw
		return nil
	})
	g.Go(func() error {
		dv, raw, err := ml.LoadDocVectorsFile(cfg.EmbeddingPath)
		if err != nil {
			return err
		}
		ds.vectors, ds.vecRaw = dv, raw
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// checkEmbeddings verifies that every catalog position has a document
// vector, since content scoring looks courses up by position.
func checkEmbeddings(courses []models.Course, vectors recommender.ContentModel) error {
	for i, c := range courses {
		if _, err := vectors.VectorFor(strconv.Itoa(i)); err != nil {
			return fmt.Errorf("catalog does not match document vectors at course %s (position %d): %w", c.ID, i, err)
		}
	}
	return nil
}

// registerModels records both artifacts. An artifact without a version is
// identified by its content hash.
func registerModels(registry *ml.ModelRegistry, cfg config.ModelConfig, ds *dataset) error {
	cfSum := ml.Checksum(ds.cfRaw)
	cfVersion := ds.cf.Version()
	if cfVersion == "" {
		cfVersion = cfSum
	}
	if err := registry.RegisterModel(&ml.ModelInfo{
		Name:       ds.cf.Name(),
		Version:    cfVersion,
		Kind:       ml.KindCF,
		Path:       cfg.CFPath,
		Dimensions: ds.cf.Factors(),
		Entries:    ds.cf.Items(),
		Checksum:   cfSum,
	}); err != nil {
		return err
	}

	vecSum := ml.Checksum(ds.vecRaw)
	vecVersion := ds.vectors.Version()
	if vecVersion == "" {
		vecVersion = vecSum
	}
	return registry.RegisterModel(&ml.ModelInfo{
		Name:       ds.vectors.Name(),
		Version:    vecVersion,
		Kind:       ml.KindEmbedding,
		Path:       cfg.EmbeddingPath,
		Dimensions: ds.vectors.Dimensions(),
		Entries:    ds.vectors.Len(),
		Checksum:   vecSum,
	})
}

// ratingImporter is the write side of catalog.Neo4jHistory.
type ratingImporter interface {
	recommender.History
	ImportRatings(ctx context.Context, ratings []models.Rating) error
}

// selectHistory picks the rated-course source named by history_source.
func selectHistory(
	ctx context.Context,
	cfg *config.Config,
	ratings []models.Rating,
	pg recommender.History,
	graph ratingImporter,
	logger *logrus.Logger,
) (recommender.History, error) {
	switch cfg.Recommender.HistorySource {
	case config.HistoryFromPostgres:
		return pg, nil
	case config.HistoryFromNeo4j:
		if graph == nil {
			return nil, fmt.Errorf("neo4j history requested but neo4j is not connected")
		}
		if cfg.Neo4j.SyncRatings {
			if err := graph.ImportRatings(ctx, ratings); err != nil {
				return nil, fmt.Errorf("failed to sync ratings to neo4j: %w", err)
			}
			logger.WithField("ratings", len(ratings)).Info("Rating graph rebuilt")
		}
		return graph, nil
	default:
		return catalog.NewRatingTable(ratings), nil
	}
}
