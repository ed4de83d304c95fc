// Package restrict implements chunk pruning for hypertable queries: scalar
// WHERE-clause predicates are classified per partitioning dimension, folded
// into per-dimension constraint state, and resolved against the slice
// catalog into the minimal set of chunks that could contain matching rows.
package restrict

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
)

// ErrInternal marks invariant violations inside the pruning core. Callers
// abort the planning pass when they see it: it signals a logic defect, not
// bad input, and must never be swallowed.
var ErrInternal = errors.New("internal invariant violation")

// Bound is one side of a range slice lookup: the comparison strategy plus
// the bound's internal int64 coordinate. A nil *Bound means unbounded.
type Bound struct {
	Op    predicate.Operator
	Value int64
}

// SliceResolver looks up dimension slices from the catalog. Lookups are
// synchronous read-only queries under the caller's context.
type SliceResolver interface {
	// RangeSlices returns every slice of the dimension whose interval
	// overlaps the bounds, ordered by slice start. Nil bounds are unbounded,
	// so RangeSlices(ctx, dim, nil, nil) returns all slices.
	RangeSlices(ctx context.Context, dimensionID int32, upper, lower *Bound) ([]*hypertable.Slice, error)

	// EqualSlices returns the slices of a hash dimension containing the
	// partition key.
	EqualSlices(ctx context.Context, dimensionID int32, key int64) ([]*hypertable.Slice, error)
}

// ChunkEnumerator joins per-dimension slice lists into chunk ids: a chunk
// qualifies when it has a matching slice in every dimension.
type ChunkEnumerator interface {
	ChunksForSlices(ctx context.Context, hypertableID int32, slices [][]*hypertable.Slice) ([]hypertable.ChunkID, error)
}

// Resolver is the full collaborator contract MatchingChunks needs.
type Resolver interface {
	SliceResolver
	ChunkEnumerator
}

// RestrictionSet accumulates predicate restrictions for one hypertable
// reference within one planning pass. It is built fresh per reference,
// mutated by AddPredicates, resolved once, then discarded. Not safe for
// concurrent use and never shared across queries.
type RestrictionSet struct {
	ht           *hypertable.Hypertable
	restrictions []dimensionRestriction
	accepted     int
	logger       log.Logger
}

// Option configures a RestrictionSet.
type Option func(*RestrictionSet)

// WithLogger sets the logger used for pruning decisions.
func WithLogger(logger log.Logger) Option {
	return func(rs *RestrictionSet) { rs.logger = logger }
}

// New builds an unconstrained RestrictionSet with one restriction per
// dimension of the hypertable. An unknown dimension kind is an internal
// error: hypertable validation makes it unreachable for catalog-built
// metadata.
func New(ht *hypertable.Hypertable, opts ...Option) (*RestrictionSet, error) {
	rs := &RestrictionSet{
		ht:           ht,
		restrictions: make([]dimensionRestriction, 0, len(ht.Dimensions)),
		logger:       log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(rs)
	}

	for i := range ht.Dimensions {
		dim := &ht.Dimensions[i]
		switch dim.Kind {
		case hypertable.RangeDimension:
			rs.restrictions = append(rs.restrictions, newRangeRestriction(dim))
		case hypertable.HashDimension:
			rs.restrictions = append(rs.restrictions, newDiscreteRestriction(dim))
		default:
			return nil, fmt.Errorf("%w: unknown dimension kind %d on column %q",
				ErrInternal, dim.Kind, dim.Column)
		}
	}
	return rs, nil
}

// AddPredicates folds a query's predicates into the per-dimension
// restrictions. Unusable predicates are silently skipped; they are frequent
// and expected, not errors.
func (rs *RestrictionSet) AddPredicates(preds []predicate.Comparison) {
	for _, pred := range preds {
		rs.add(pred)
	}
}

// HasRestrictions reports whether any predicate was incorporated.
func (rs *RestrictionSet) HasRestrictions() bool {
	return rs.accepted > 0
}

// MatchingChunks resolves the accumulated restrictions to the chunks that
// could contain matching rows. Dimensions resolve in declaration order; the
// moment one yields zero slices the result is provably empty and remaining
// dimensions are never consulted. With no restrictions at all, every
// dimension resolves fully unbounded, i.e. all chunks.
func (rs *RestrictionSet) MatchingChunks(ctx context.Context, r Resolver) ([]hypertable.ChunkID, error) {
	if len(rs.restrictions) != len(rs.ht.Dimensions) {
		return nil, fmt.Errorf("%w: restriction count %d does not match dimension count %d of hypertable %s",
			ErrInternal, len(rs.restrictions), len(rs.ht.Dimensions), rs.ht.Name)
	}

	dimensionSlices := make([][]*hypertable.Slice, 0, len(rs.restrictions))
	for _, dr := range rs.restrictions {
		slices, err := dr.slices(ctx, r)
		if err != nil {
			return nil, err
		}
		if len(slices) == 0 {
			// AND of empty is empty: no chunk can match on every dimension.
			level.Debug(rs.logger).Log("msg", "dimension matches no slices, result is empty",
				"hypertable", rs.ht.Name, "column", dr.dimension().Column)
			resolutionsTotal.WithLabelValues(outcomeEmpty).Inc()
			return []hypertable.ChunkID{}, nil
		}
		dimensionSlices = append(dimensionSlices, slices)
	}

	chunks, err := r.ChunksForSlices(ctx, rs.ht.ID, dimensionSlices)
	if err != nil {
		return nil, err
	}

	resolutionsTotal.WithLabelValues(outcomeMatched).Inc()
	chunksMatchedTotal.Add(float64(len(chunks)))
	level.Debug(rs.logger).Log("msg", "resolved matching chunks",
		"hypertable", rs.ht.Name, "restrictions", rs.accepted, "chunks", len(chunks))
	return chunks, nil
}

// DimensionStatus describes one dimension's accumulated restriction for
// explain output.
type DimensionStatus struct {
	Column     string `json:"column"`
	Kind       string `json:"kind"`
	Restricted bool   `json:"restricted"`
	Detail     string `json:"detail,omitempty"`
}

// Summary renders the per-dimension restriction state.
func (rs *RestrictionSet) Summary() []DimensionStatus {
	out := make([]DimensionStatus, len(rs.restrictions))
	for i, dr := range rs.restrictions {
		detail := dr.describe()
		out[i] = DimensionStatus{
			Column:     dr.dimension().Column,
			Kind:       dr.dimension().Kind.String(),
			Restricted: detail != "",
			Detail:     detail,
		}
	}
	return out
}
