package restrict

import (
	"github.com/go-kit/log/level"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/types"
)

// Rejection reasons, used as the metric label and debug log detail.
const (
	rejectVolatile     = "volatile"
	rejectNoColumn     = "no_dimension_column"
	rejectNotDimension = "not_a_dimension"
	rejectOperator     = "unsupported_operator"
	rejectNoConstant   = "no_constant"
	rejectTypeMismatch = "type_mismatch"
	rejectFold         = "not_folded"
)

// add normalizes one predicate and folds it into the owning dimension's
// restriction. Returns true iff the predicate was incorporated.
func (rs *RestrictionSet) add(pred predicate.Comparison) bool {
	// Non-deterministic sub-expressions are unsafe for pruning: the value
	// at execution time may differ from the value reasoned about here.
	if pred.Volatile() {
		return rs.reject(pred, rejectVolatile)
	}

	// Normalize so the partitioning column is the left operand, commuting
	// the operator when it started on the right.
	op := pred.Op
	left, right := pred.Left, pred.Right
	col, ok := left.(predicate.Column)
	if !ok {
		col, ok = right.(predicate.Column)
		if !ok {
			return rs.reject(pred, rejectNoColumn)
		}
		right = left
		op = op.Commute()
	}

	dim := rs.ht.DimensionByColumn(col.Name)
	if dim == nil {
		return rs.reject(pred, rejectNotDimension)
	}

	// Only the default btree ordering/equality strategies prune.
	switch op {
	case predicate.OpLess, predicate.OpLessEqual, predicate.OpEqual,
		predicate.OpGreaterEqual, predicate.OpGreater:
	default:
		return rs.reject(pred, rejectOperator)
	}

	var raw []types.Value
	var useOr bool
	switch rhs := right.(type) {
	case predicate.Const:
		raw = []types.Value{rhs.Value}
	case predicate.Array:
		if len(rhs.Values) == 0 {
			return rs.reject(pred, rejectNoConstant)
		}
		raw = rhs.Values
		useOr = rhs.UseOr
	default:
		return rs.reject(pred, rejectNoConstant)
	}

	// Coerce every constant to the column type; a mismatch rejects the
	// predicate without failing the query.
	vals := dimensionValues{values: make([]types.Value, len(raw)), useOr: useOr}
	for i, v := range raw {
		coerced, ok := types.CoerceValue(dim.Type, v)
		if !ok {
			return rs.reject(pred, rejectTypeMismatch)
		}
		vals.values[i] = coerced
	}

	if !rs.restrictionFor(dim).fold(op, vals) {
		return rs.reject(pred, rejectFold)
	}

	rs.accepted++
	predicatesTotal.WithLabelValues(resultAccepted).Inc()
	level.Debug(rs.logger).Log("msg", "predicate accepted",
		"hypertable", rs.ht.Name, "column", dim.Column, "op", op.String())
	return true
}

func (rs *RestrictionSet) reject(pred predicate.Comparison, reason string) bool {
	predicatesTotal.WithLabelValues(reason).Inc()
	level.Debug(rs.logger).Log("msg", "predicate not usable for pruning",
		"hypertable", rs.ht.Name, "predicate", pred.String(), "reason", reason)
	return false
}

// restrictionFor returns the restriction owning the dimension. New creates
// exactly one restriction per dimension, so the lookup always succeeds for
// dimensions of rs.ht.
func (rs *RestrictionSet) restrictionFor(dim *hypertable.Dimension) dimensionRestriction {
	for _, dr := range rs.restrictions {
		if dr.dimension().ID == dim.ID {
			return dr
		}
	}
	return nil
}
