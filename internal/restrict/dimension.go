package restrict

import (
	"context"
	"fmt"
	"sort"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/types"
)

// dimensionValues is a predicate's right-hand side after coercion to the
// dimension column's type: one or more constants plus their combinator.
type dimensionValues struct {
	values []types.Value
	useOr  bool
}

// dimensionRestriction accumulates the constraint state of one dimension.
// It is a closed union: rangeRestriction and discreteRestriction are the
// only implementations, one per dimension kind, fixed at build time.
type dimensionRestriction interface {
	dimension() *hypertable.Dimension

	// fold incorporates one classified predicate. Returns true iff the
	// restriction state changed (or the predicate was provably absorbed),
	// which is what counts toward HasRestrictions.
	fold(op predicate.Operator, vals dimensionValues) bool

	// slices resolves the accumulated state to the dimension's matching
	// slices. An empty result means the dimension provably matches nothing.
	slices(ctx context.Context, r SliceResolver) ([]*hypertable.Slice, error)

	// describe renders the accumulated state for explain output; empty when
	// the dimension is unconstrained.
	describe() string
}

// rangeRestriction tracks the tightest lower and upper bound seen on an
// ordered dimension. Bounds only ever tighten: a fold that would loosen or
// merely repeat a bound is a no-op.
type rangeRestriction struct {
	dim *hypertable.Dimension

	lowerOp predicate.Operator // OpInvalid = unbounded below
	lower   int64
	upperOp predicate.Operator // OpInvalid = unbounded above
	upper   int64
}

func newRangeRestriction(dim *hypertable.Dimension) *rangeRestriction {
	return &rangeRestriction{dim: dim}
}

func (r *rangeRestriction) dimension() *hypertable.Dimension { return r.dim }

func (r *rangeRestriction) fold(op predicate.Operator, vals dimensionValues) bool {
	// A value list, whichever combinator, cannot define a single bound on an
	// ordered dimension.
	if len(vals.values) != 1 {
		return false
	}

	value, err := types.ToInternal(r.dim.Type, vals.values[0])
	if err != nil {
		return false
	}

	switch op {
	case predicate.OpLess, predicate.OpLessEqual:
		if r.upperOp == predicate.OpInvalid || value < r.upper ||
			(value == r.upper && op == predicate.OpLess && r.upperOp == predicate.OpLessEqual) {
			r.upperOp = op
			r.upper = value
			return true
		}
		return false

	case predicate.OpGreater, predicate.OpGreaterEqual:
		if r.lowerOp == predicate.OpInvalid || value > r.lower ||
			(value == r.lower && op == predicate.OpGreater && r.lowerOp == predicate.OpGreaterEqual) {
			r.lowerOp = op
			r.lower = value
			return true
		}
		return false

	case predicate.OpEqual:
		// Equality pins both bounds; it is maximally restrictive.
		r.lowerOp = predicate.OpGreaterEqual
		r.lower = value
		r.upperOp = predicate.OpLessEqual
		r.upper = value
		return true

	default:
		return false
	}
}

func (r *rangeRestriction) slices(ctx context.Context, sr SliceResolver) ([]*hypertable.Slice, error) {
	var upper, lower *Bound
	if r.upperOp != predicate.OpInvalid {
		upper = &Bound{Op: r.upperOp, Value: r.upper}
	}
	if r.lowerOp != predicate.OpInvalid {
		lower = &Bound{Op: r.lowerOp, Value: r.lower}
	}
	return sr.RangeSlices(ctx, r.dim.ID, upper, lower)
}

func (r *rangeRestriction) describe() string {
	switch {
	case r.lowerOp == predicate.OpInvalid && r.upperOp == predicate.OpInvalid:
		return ""
	case r.lowerOp == predicate.OpInvalid:
		return fmt.Sprintf("%s %s", r.upperOp, r.renderCoord(r.upper))
	case r.upperOp == predicate.OpInvalid:
		return fmt.Sprintf("%s %s", r.lowerOp, r.renderCoord(r.lower))
	default:
		return fmt.Sprintf("%s %s AND %s %s",
			r.lowerOp, r.renderCoord(r.lower), r.upperOp, r.renderCoord(r.upper))
	}
}

func (r *rangeRestriction) renderCoord(coord int64) string {
	return types.ValueToString(r.dim.Type, coord)
}

// discreteRestriction tracks the partition keys a hash dimension may still
// match. nil means unconstrained; a non-nil set only ever shrinks by
// intersection, and an empty non-nil set means provably no match.
type discreteRestriction struct {
	dim     *hypertable.Dimension
	matched map[int64]struct{}
}

func newDiscreteRestriction(dim *hypertable.Dimension) *discreteRestriction {
	return &discreteRestriction{dim: dim}
}

func (r *discreteRestriction) dimension() *hypertable.Dimension { return r.dim }

func (r *discreteRestriction) fold(op predicate.Operator, vals dimensionValues) bool {
	// Hash partitioning preserves equality only.
	if op != predicate.OpEqual {
		return false
	}

	keys := make(map[int64]struct{}, len(vals.values))
	for _, v := range vals.values {
		key, err := r.dim.PartitionKey(v)
		if err != nil {
			return false
		}
		keys[key] = struct{}{}
	}

	// ANDed equalities to distinct keys are unsatisfiable.
	if !vals.useOr && len(keys) > 1 {
		r.matched = map[int64]struct{}{}
		return true
	}

	if r.matched == nil {
		r.matched = keys
		return true
	}

	// Intersection with the empty set stays empty, and an empty
	// intersection is itself a restriction.
	for key := range r.matched {
		if _, ok := keys[key]; !ok {
			delete(r.matched, key)
		}
	}
	return true
}

func (r *discreteRestriction) slices(ctx context.Context, sr SliceResolver) ([]*hypertable.Slice, error) {
	// Unconstrained: every slice of the dimension.
	if r.matched == nil {
		return sr.RangeSlices(ctx, r.dim.ID, nil, nil)
	}
	if len(r.matched) == 0 {
		return nil, nil
	}

	// Union of per-key lookups, deduplicated by slice id. Keys are visited
	// in sorted order so resolver calls and output are deterministic.
	keys := r.sortedKeys()
	var out []*hypertable.Slice
	seen := make(map[int64]bool)
	for _, key := range keys {
		slices, err := sr.EqualSlices(ctx, r.dim.ID, key)
		if err != nil {
			return nil, err
		}
		for _, s := range slices {
			if !seen[s.ID] {
				seen[s.ID] = true
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *discreteRestriction) describe() string {
	if r.matched == nil {
		return ""
	}
	if len(r.matched) == 0 {
		return "no partition matches"
	}
	return fmt.Sprintf("in %d partition key(s) %v", len(r.matched), r.sortedKeys())
}

func (r *discreteRestriction) sortedKeys() []int64 {
	keys := make([]int64, 0, len(r.matched))
	for key := range r.matched {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
