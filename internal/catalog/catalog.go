// Package catalog stores hypertable partitioning metadata (dimensions,
// slices, chunks) and serves the slice and chunk lookups the pruning core
// needs. Two implementations exist: an in-memory catalog for tests, tooling
// and declarative schemas, and a SQLite-backed catalog for durable setups.
package catalog

import (
	"context"
	"errors"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/restrict"
)

// ErrNotFound is returned for lookups of unknown hypertables.
var ErrNotFound = errors.New("not found in catalog")

// Catalog is the read contract shared by all implementations: the resolver
// surface consumed by the pruning core plus hypertable lookups.
type Catalog interface {
	restrict.Resolver

	// Hypertable returns a hypertable definition by name.
	Hypertable(ctx context.Context, name string) (*hypertable.Hypertable, error)

	// HypertableNames lists all hypertables, sorted by name.
	HypertableNames(ctx context.Context) ([]string, error)

	// ChunkNames maps chunk ids to their names, preserving order.
	ChunkNames(ctx context.Context, ids []hypertable.ChunkID) ([]string, error)

	// ChunkCount returns the number of chunks of a hypertable.
	ChunkCount(ctx context.Context, hypertableID int32) (int, error)
}

// Contents is the portable form of a catalog's data, used by snapshots and
// by bulk ingest into the SQLite catalog.
type Contents struct {
	Hypertables []hypertable.Hypertable `json:"hypertables"`
	Slices      []hypertable.Slice      `json:"slices"`
	Chunks      []hypertable.Chunk      `json:"chunks"`
}
