package hypertable

import "fmt"

// Slice is the interval a chunk occupies on one dimension: [Start, End) over
// the dimension's int64 coordinate space (internal time/integer values for
// range dimensions, the hash keyspace for hash dimensions).
type Slice struct {
	ID          int64
	DimensionID int32
	Start       int64
	End         int64
}

// Contains reports whether the coordinate falls inside the slice.
func (s *Slice) Contains(coord int64) bool {
	return coord >= s.Start && coord < s.End
}

func (s *Slice) String() string {
	return fmt.Sprintf("slice %d dim %d [%d, %d)", s.ID, s.DimensionID, s.Start, s.End)
}

// ChunkID identifies a chunk within a catalog.
type ChunkID int64

// Chunk is a physical partition of a hypertable. It holds exactly one slice
// per dimension; a row belongs to the chunk when its value falls inside the
// chunk's slice on every dimension.
type Chunk struct {
	ID           ChunkID
	HypertableID int32
	Name         string
	SliceIDs     map[int32]int64 // dimension id -> slice id
}
