package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrUnknownTag        = errors.New("no document vector for tag")
	ErrDimensionMismatch = errors.New("document vector dimension mismatch")
)

type docVectorsArtifact struct {
	Name       string               `json:"name"`
	Version    string               `json:"version"`
	Dimensions int                  `json:"dimensions"`
	Vectors    map[string][]float64 `json:"vectors"`
}

// DocVectors is a read-only store of pre-trained document vectors keyed by
// document tag. The catalog position of a course, as a decimal string, is its
// tag.
type DocVectors struct {
	name       string
	version    string
	dimensions int
	vectors    map[string][]float64
}

func LoadDocVectorsFile(path string) (*DocVectors, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document vectors %s: %w", path, err)
	}
	dv, err := ParseDocVectors(data)
	if err != nil {
		return nil, nil, err
	}
	return dv, data, nil
}

func ParseDocVectors(data []byte) (*DocVectors, error) {
	if err := validateArtifact(vectorSchema, data); err != nil {
		return nil, fmt.Errorf("document vectors: %w", err)
	}

	var a docVectorsArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode document vectors: %w", err)
	}

	for tag, vec := range a.Vectors {
		if len(vec) != a.Dimensions {
			return nil, fmt.Errorf("%w: tag %s has %d dimensions, want %d", ErrDimensionMismatch, tag, len(vec), a.Dimensions)
		}
	}

	return &DocVectors{
		name:       a.Name,
		version:    a.Version,
		dimensions: a.Dimensions,
		vectors:    a.Vectors,
	}, nil
}

// VectorFor returns the stored vector itself; callers must not modify it.
func (d *DocVectors) VectorFor(tag string) ([]float64, error) {
	vec, ok := d.vectors[tag]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTag, tag)
	}
	return vec, nil
}

func (d *DocVectors) Name() string    { return d.name }
func (d *DocVectors) Version() string { return d.version }
func (d *DocVectors) Dimensions() int { return d.dimensions }
func (d *DocVectors) Len() int        { return len(d.vectors) }
