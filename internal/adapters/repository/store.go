// Package repository defines the observation store interface and its
// implementations. Only raw observations are stored; every score and
// trophy is recomputed from them on demand.
package repository

import (
	"context"

	"github.com/ecoquest/bioblitz/internal/domain/model"
)

// Store provides append and read access to the observation set.
type Store interface {
	// Add inserts an observation. Returns false without error when an
	// observation with the same id is already stored.
	Add(ctx context.Context, obs model.Observation) (bool, error)

	// All returns every stored observation in arrival order. Arrival order
	// is what breaks effective-time ties during scoring, so implementations
	// must preserve it.
	All(ctx context.Context) ([]model.Observation, error)

	// Count returns the number of stored observations.
	Count(ctx context.Context) int

	// Close releases any resources held by the store.
	Close() error
}
