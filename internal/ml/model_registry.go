package ml

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	KindCF        = "cf"
	KindEmbedding = "embedding"
)

// ModelInfo describes a loaded pre-trained model.
type ModelInfo struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	Dimensions int       `json:"dimensions"`
	Entries    int       `json:"entries"`
	Checksum   string    `json:"checksum"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// ModelRegistry keeps metadata about the models the service was started with.
type ModelRegistry struct {
	models map[string]*ModelInfo
	mutex  sync.RWMutex
	logger *logrus.Logger
}

func NewModelRegistry(logger *logrus.Logger) *ModelRegistry {
	return &ModelRegistry{
		models: make(map[string]*ModelInfo),
		logger: logger,
	}
}

// RegisterModel records a model, replacing any previous entry of that name.
func (mr *ModelRegistry) RegisterModel(info *ModelInfo) error {
	if info.Name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if info.Kind != KindCF && info.Kind != KindEmbedding {
		return fmt.Errorf("invalid model kind: %s", info.Kind)
	}
	if info.LoadedAt.IsZero() {
		info.LoadedAt = time.Now()
	}

	mr.mutex.Lock()
	mr.models[info.Name] = info
	mr.mutex.Unlock()

	mr.logger.WithFields(logrus.Fields{
		"model_name": info.Name,
		"kind":       info.Kind,
		"version":    info.Version,
		"checksum":   info.Checksum,
	}).Info("Model registered successfully")

	return nil
}

func (mr *ModelRegistry) GetModelInfo(name string) (*ModelInfo, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	info, exists := mr.models[name]
	if !exists {
		return nil, fmt.Errorf("model not found: %s", name)
	}
	copied := *info
	return &copied, nil
}

// ListModels returns every registered model ordered by name.
func (mr *ModelRegistry) ListModels() []ModelInfo {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	result := make([]ModelInfo, 0, len(mr.models))
	for _, info := range mr.models {
		result = append(result, *info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Checksum returns a short content hash used as the artifact version when
// the artifact does not carry one.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:16]
}
