// Package hypertable holds the partitioning metadata model: hypertables,
// their dimensions, the slices that partition each dimension, and the chunks
// that occupy one slice per dimension.
package hypertable

import (
	"fmt"

	"github.com/chronodb/chronodb/internal/partitioning"
	"github.com/chronodb/chronodb/internal/types"
)

// DimensionKind distinguishes the two partitioning axis kinds.
type DimensionKind uint8

const (
	// RangeDimension is an ordered axis (typically time). Slices are
	// intervals over the int64 internal coordinate space.
	RangeDimension DimensionKind = iota + 1
	// HashDimension is a hash-partitioned axis, matched by equality only.
	// Slices are intervals over the 32-bit hash keyspace.
	HashDimension
)

func (k DimensionKind) String() string {
	switch k {
	case RangeDimension:
		return "range"
	case HashDimension:
		return "hash"
	default:
		return "unknown"
	}
}

// Dimension is one partitioning axis of a hypertable.
type Dimension struct {
	ID         int32
	Column     string
	Type       types.DataType
	Kind       DimensionKind
	Partitions int32 // number of hash partitions; 0 for range dimensions
}

// PartitionKey applies the dimension's partitioning function to a raw value.
// Only valid for hash dimensions. Pure and deterministic: the same value
// always maps to the same key.
func (d *Dimension) PartitionKey(v types.Value) (int64, error) {
	if d.Kind != HashDimension {
		return 0, fmt.Errorf("dimension %q has no partitioning function", d.Column)
	}
	return partitioning.Hash(d.Type, v)
}

// Hypertable is a logical table transparently partitioned into chunks along
// one or more dimensions. Dimension order is fixed at creation and drives
// the order of slice resolution.
type Hypertable struct {
	ID         int32
	Name       string
	Dimensions []Dimension
}

// DimensionByColumn returns the dimension owning the given column, or nil.
func (h *Hypertable) DimensionByColumn(column string) *Dimension {
	for i := range h.Dimensions {
		if h.Dimensions[i].Column == column {
			return &h.Dimensions[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of the hypertable definition.
func (h *Hypertable) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("hypertable has no name")
	}
	if len(h.Dimensions) == 0 {
		return fmt.Errorf("hypertable %s has no dimensions", h.Name)
	}
	seen := make(map[string]bool, len(h.Dimensions))
	for i := range h.Dimensions {
		d := &h.Dimensions[i]
		if d.Column == "" {
			return fmt.Errorf("hypertable %s: dimension %d has no column", h.Name, i)
		}
		if seen[d.Column] {
			return fmt.Errorf("hypertable %s: duplicate dimension column %q", h.Name, d.Column)
		}
		seen[d.Column] = true

		switch d.Kind {
		case RangeDimension:
			if !d.Type.IsOrderable() {
				return fmt.Errorf("hypertable %s: column %q of type %s cannot be a range dimension",
					h.Name, d.Column, d.Type.Name())
			}
		case HashDimension:
			if d.Partitions <= 0 {
				return fmt.Errorf("hypertable %s: hash dimension %q needs a positive partition count",
					h.Name, d.Column)
			}
		default:
			return fmt.Errorf("hypertable %s: dimension %q has unknown kind %d", h.Name, d.Column, d.Kind)
		}
	}
	return nil
}
