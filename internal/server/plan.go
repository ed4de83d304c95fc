package server

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/restrict"
)

// ChunkRef identifies one matched chunk.
type ChunkRef struct {
	ID   hypertable.ChunkID `json:"id"`
	Name string             `json:"name"`
}

// Plan is the result of pruning one hypertable's chunks against a set of
// predicates.
type Plan struct {
	Table      string                     `json:"table"`
	Restricted bool                       `json:"restricted"`
	Dimensions []restrict.DimensionStatus `json:"dimensions"`
	Chunks     []ChunkRef                 `json:"chunks"`
	Total      int                        `json:"total_chunks"`
	Matched    int                        `json:"matched_chunks"`
	Pruned     int                        `json:"pruned_chunks"`
}

// BuildPlan resolves a set of predicates against one hypertable's chunks.
func BuildPlan(ctx context.Context, cat catalog.Catalog, table string, preds []predicate.Comparison, logger log.Logger) (*Plan, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	ht, err := cat.Hypertable(ctx, table)
	if err != nil {
		return nil, err
	}

	rs, err := restrict.New(ht, restrict.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	rs.AddPredicates(preds)

	chunkIDs, err := rs.MatchingChunks(ctx, cat)
	if err != nil {
		return nil, err
	}
	names, err := cat.ChunkNames(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}
	total, err := cat.ChunkCount(ctx, ht.ID)
	if err != nil {
		return nil, err
	}

	chunks := make([]ChunkRef, len(chunkIDs))
	for i, id := range chunkIDs {
		chunks[i] = ChunkRef{ID: id, Name: names[i]}
	}

	level.Info(logger).Log("msg", "plan built", "table", table,
		"predicates", len(preds), "total", total, "matched", len(chunks))

	return &Plan{
		Table:      table,
		Restricted: rs.HasRestrictions(),
		Dimensions: rs.Summary(),
		Chunks:     chunks,
		Total:      total,
		Matched:    len(chunks),
		Pruned:     total - len(chunks),
	}, nil
}
