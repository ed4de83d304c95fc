// Package partitioning implements the deterministic partitioning function
// for hash dimensions: values are encoded canonically, hashed, and folded
// into a 32-bit keyspace that hash slices split into contiguous intervals.
package partitioning

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/chronodb/chronodb/internal/types"
)

// KeyspaceSize is the size of the hash keyspace. Partition keys are in
// [0, KeyspaceSize).
const KeyspaceSize = int64(1) << 32

// Hash maps a raw value to its partition key. Pure: equal values of the same
// type always produce the same key.
func Hash(dt types.DataType, v types.Value) (int64, error) {
	b, err := CanonicalBytes(dt, v)
	if err != nil {
		return 0, err
	}
	return int64(uint32(xxhash.Sum64(b))), nil
}

// CanonicalBytes encodes a value into the byte form fed to the hash. All
// integer types share the little-endian int64 encoding so that, e.g.,
// Int32(7) and Int64(7) land in the same partition.
func CanonicalBytes(dt types.DataType, v types.Value) ([]byte, error) {
	switch dt {
	case types.TypeString:
		return []byte(v.(string)), nil
	case types.TypeFloat32, types.TypeFloat64:
		f, err := types.ToFloat64(dt, v)
		if err != nil {
			return nil, err
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		return b[:], nil
	default:
		n, err := types.ToInt64(dt, v)
		if err != nil {
			return nil, fmt.Errorf("value is not hashable: %w", err)
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(n))
		return b[:], nil
	}
}

// Interval is one contiguous [Start, End) range of the hash keyspace.
type Interval struct {
	Start int64
	End   int64
}

// SplitKeyspace divides the keyspace into n near-equal contiguous intervals,
// the slice layout for a hash dimension with n partitions. The last interval
// absorbs the remainder so the union always covers the full keyspace.
func SplitKeyspace(n int32) []Interval {
	if n <= 0 {
		return nil
	}
	width := KeyspaceSize / int64(n)
	intervals := make([]Interval, n)
	for i := int32(0); i < n; i++ {
		start := int64(i) * width
		end := start + width
		if i == n-1 {
			end = KeyspaceSize
		}
		intervals[i] = Interval{Start: start, End: end}
	}
	return intervals
}

// PartitionIndex returns which of the n keyspace intervals holds the key.
func PartitionIndex(key int64, n int32) int32 {
	if n <= 0 {
		return 0
	}
	width := KeyspaceSize / int64(n)
	idx := int32(key / width)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
