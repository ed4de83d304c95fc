package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/partitioning"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/restrict"
	"github.com/chronodb/chronodb/internal/types"
)

// DimensionDef declares one dimension when creating a hypertable.
type DimensionDef struct {
	Column     string
	Type       types.DataType
	Kind       hypertable.DimensionKind
	Partitions int32 // hash dimensions only
}

// ChunkSlice places a chunk on one dimension: [Start, End) for range
// dimensions, a partition index for hash dimensions.
type ChunkSlice struct {
	Column    string
	Start     int64
	End       int64
	Partition int32
}

// Memory is an in-memory catalog. Safe for concurrent readers and writers;
// lookups served by the resolver methods take consistent snapshots under the
// read lock.
type Memory struct {
	mu          sync.RWMutex
	hypertables map[string]*hypertable.Hypertable
	byID        map[int32]*hypertable.Hypertable
	dimSlices   map[int32][]*hypertable.Slice // per dimension, sorted by Start
	sliceByID   map[int64]*hypertable.Slice
	chunks      map[hypertable.ChunkID]*hypertable.Chunk
	chunksByHT  map[int32][]*hypertable.Chunk

	nextHypertableID int32
	nextDimensionID  int32
	nextSliceID      int64
	nextChunkID      int64
}

var _ Catalog = (*Memory)(nil)

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		hypertables: make(map[string]*hypertable.Hypertable),
		byID:        make(map[int32]*hypertable.Hypertable),
		dimSlices:   make(map[int32][]*hypertable.Slice),
		sliceByID:   make(map[int64]*hypertable.Slice),
		chunks:      make(map[hypertable.ChunkID]*hypertable.Chunk),
		chunksByHT:  make(map[int32][]*hypertable.Chunk),
	}
}

// CreateHypertable registers a hypertable. Hash dimensions get their full
// slice layout up front: the keyspace split into Partitions intervals.
func (m *Memory) CreateHypertable(name string, dims []DimensionDef) (*hypertable.Hypertable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.hypertables[name]; exists {
		return nil, fmt.Errorf("hypertable %s already exists", name)
	}

	m.nextHypertableID++
	ht := &hypertable.Hypertable{
		ID:         m.nextHypertableID,
		Name:       name,
		Dimensions: make([]hypertable.Dimension, len(dims)),
	}
	for i, def := range dims {
		m.nextDimensionID++
		ht.Dimensions[i] = hypertable.Dimension{
			ID:         m.nextDimensionID,
			Column:     def.Column,
			Type:       def.Type,
			Kind:       def.Kind,
			Partitions: def.Partitions,
		}
	}
	if err := ht.Validate(); err != nil {
		m.nextHypertableID--
		return nil, err
	}

	for i := range ht.Dimensions {
		dim := &ht.Dimensions[i]
		if dim.Kind != hypertable.HashDimension {
			continue
		}
		for _, iv := range partitioning.SplitKeyspace(dim.Partitions) {
			m.addSliceLocked(dim.ID, iv.Start, iv.End)
		}
	}

	m.hypertables[name] = ht
	m.byID[ht.ID] = ht
	return ht, nil
}

// AddChunk registers a chunk with exactly one slice per dimension. Range
// slices are created on demand and shared between chunks with identical
// intervals; hash slices must reference an existing partition index.
func (m *Memory) AddChunk(htName, chunkName string, slices []ChunkSlice) (*hypertable.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ht, ok := m.hypertables[htName]
	if !ok {
		return nil, fmt.Errorf("hypertable %s: %w", htName, ErrNotFound)
	}
	if len(slices) != len(ht.Dimensions) {
		return nil, fmt.Errorf("chunk %s: got %d slices, hypertable %s has %d dimensions",
			chunkName, len(slices), htName, len(ht.Dimensions))
	}

	sliceIDs := make(map[int32]int64, len(slices))
	for _, cs := range slices {
		dim := ht.DimensionByColumn(cs.Column)
		if dim == nil {
			return nil, fmt.Errorf("chunk %s: column %q is not a dimension of %s", chunkName, cs.Column, htName)
		}
		if _, dup := sliceIDs[dim.ID]; dup {
			return nil, fmt.Errorf("chunk %s: duplicate slice for column %q", chunkName, cs.Column)
		}

		switch dim.Kind {
		case hypertable.RangeDimension:
			if cs.Start >= cs.End {
				return nil, fmt.Errorf("chunk %s: empty slice [%d, %d) on %q", chunkName, cs.Start, cs.End, cs.Column)
			}
			sliceIDs[dim.ID] = m.findOrCreateSliceLocked(dim.ID, cs.Start, cs.End).ID
		case hypertable.HashDimension:
			if cs.Partition < 0 || cs.Partition >= dim.Partitions {
				return nil, fmt.Errorf("chunk %s: partition %d out of range for %q (%d partitions)",
					chunkName, cs.Partition, cs.Column, dim.Partitions)
			}
			// Hash slices were created with the dimension, in keyspace order.
			sliceIDs[dim.ID] = m.dimSlices[dim.ID][cs.Partition].ID
		}
	}

	m.nextChunkID++
	chunk := &hypertable.Chunk{
		ID:           hypertable.ChunkID(m.nextChunkID),
		HypertableID: ht.ID,
		Name:         chunkName,
		SliceIDs:     sliceIDs,
	}
	m.chunks[chunk.ID] = chunk
	m.chunksByHT[ht.ID] = append(m.chunksByHT[ht.ID], chunk)
	return chunk, nil
}

func (m *Memory) findOrCreateSliceLocked(dimID int32, start, end int64) *hypertable.Slice {
	for _, s := range m.dimSlices[dimID] {
		if s.Start == start && s.End == end {
			return s
		}
	}
	return m.addSliceLocked(dimID, start, end)
}

func (m *Memory) addSliceLocked(dimID int32, start, end int64) *hypertable.Slice {
	m.nextSliceID++
	s := &hypertable.Slice{ID: m.nextSliceID, DimensionID: dimID, Start: start, End: end}
	m.sliceByID[s.ID] = s
	m.dimSlices[dimID] = append(m.dimSlices[dimID], s)
	sort.Slice(m.dimSlices[dimID], func(i, j int) bool {
		return m.dimSlices[dimID][i].Start < m.dimSlices[dimID][j].Start
	})
	return s
}

// Hypertable returns a hypertable definition by name.
func (m *Memory) Hypertable(ctx context.Context, name string) (*hypertable.Hypertable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ht, ok := m.hypertables[name]
	if !ok {
		return nil, fmt.Errorf("hypertable %s: %w", name, ErrNotFound)
	}
	return ht, nil
}

// HypertableNames lists all hypertables, sorted by name.
func (m *Memory) HypertableNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.hypertables))
	for n := range m.hypertables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// RangeSlices returns the dimension's slices overlapping the bounds, ordered
// by start. A strict lower bound is matched inclusively at slice
// granularity: pruning must only ever overshoot, never undershoot.
func (m *Memory) RangeSlices(ctx context.Context, dimensionID int32, upper, lower *restrict.Bound) ([]*hypertable.Slice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*hypertable.Slice
	for _, s := range m.dimSlices[dimensionID] {
		if !sliceMatchesBounds(s, upper, lower) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func sliceMatchesBounds(s *hypertable.Slice, upper, lower *restrict.Bound) bool {
	if upper != nil {
		if upper.Op == predicate.OpLess && s.Start >= upper.Value {
			return false
		}
		if upper.Op == predicate.OpLessEqual && s.Start > upper.Value {
			return false
		}
	}
	if lower != nil && s.End <= lower.Value {
		return false
	}
	return true
}

// EqualSlices returns the slices containing the partition key.
func (m *Memory) EqualSlices(ctx context.Context, dimensionID int32, key int64) ([]*hypertable.Slice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*hypertable.Slice
	for _, s := range m.dimSlices[dimensionID] {
		if s.Contains(key) {
			out = append(out, s)
		}
	}
	return out, nil
}

// ChunksForSlices returns the ids of chunks having a matching slice in every
// dimension, ordered by chunk id.
func (m *Memory) ChunksForSlices(ctx context.Context, hypertableID int32, slices [][]*hypertable.Slice) ([]hypertable.ChunkID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type dimSet struct {
		dimID int32
		ids   map[int64]bool
	}
	sets := make([]dimSet, 0, len(slices))
	for _, list := range slices {
		if len(list) == 0 {
			return []hypertable.ChunkID{}, nil
		}
		ids := make(map[int64]bool, len(list))
		for _, s := range list {
			ids[s.ID] = true
		}
		sets = append(sets, dimSet{dimID: list[0].DimensionID, ids: ids})
	}

	var out []hypertable.ChunkID
	for _, chunk := range m.chunksByHT[hypertableID] {
		match := true
		for _, set := range sets {
			if !set.ids[chunk.SliceIDs[set.dimID]] {
				match = false
				break
			}
		}
		if match {
			out = append(out, chunk.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ChunkNames maps chunk ids to names, preserving order.
func (m *Memory) ChunkNames(ctx context.Context, ids []hypertable.ChunkID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		chunk, ok := m.chunks[id]
		if !ok {
			return nil, fmt.Errorf("chunk %d: %w", id, ErrNotFound)
		}
		names = append(names, chunk.Name)
	}
	return names, nil
}

// ChunkCount returns the number of chunks of a hypertable.
func (m *Memory) ChunkCount(ctx context.Context, hypertableID int32) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunksByHT[hypertableID]), nil
}

// Contents exports the catalog's data in portable form, for snapshots and
// SQLite ingest. Hypertables, slices and chunks are ordered by id.
func (m *Memory) Contents() Contents {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c Contents
	for _, ht := range m.byID {
		c.Hypertables = append(c.Hypertables, *ht)
	}
	sort.Slice(c.Hypertables, func(i, j int) bool { return c.Hypertables[i].ID < c.Hypertables[j].ID })

	for _, s := range m.sliceByID {
		c.Slices = append(c.Slices, *s)
	}
	sort.Slice(c.Slices, func(i, j int) bool { return c.Slices[i].ID < c.Slices[j].ID })

	for _, chunk := range m.chunks {
		copied := *chunk
		copied.SliceIDs = make(map[int32]int64, len(chunk.SliceIDs))
		for dimID, sliceID := range chunk.SliceIDs {
			copied.SliceIDs[dimID] = sliceID
		}
		c.Chunks = append(c.Chunks, copied)
	}
	sort.Slice(c.Chunks, func(i, j int) bool { return c.Chunks[i].ID < c.Chunks[j].ID })
	return c
}

// NewMemoryFromContents rebuilds a catalog from exported contents,
// preserving ids.
func NewMemoryFromContents(c Contents) (*Memory, error) {
	m := NewMemory()

	for i := range c.Hypertables {
		ht := c.Hypertables[i]
		if err := ht.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.hypertables[ht.Name]; exists {
			return nil, fmt.Errorf("duplicate hypertable %s", ht.Name)
		}
		m.hypertables[ht.Name] = &ht
		m.byID[ht.ID] = &ht
		if ht.ID > m.nextHypertableID {
			m.nextHypertableID = ht.ID
		}
		for j := range ht.Dimensions {
			if ht.Dimensions[j].ID > m.nextDimensionID {
				m.nextDimensionID = ht.Dimensions[j].ID
			}
		}
	}

	for i := range c.Slices {
		s := c.Slices[i]
		if _, exists := m.sliceByID[s.ID]; exists {
			return nil, fmt.Errorf("duplicate slice id %d", s.ID)
		}
		copied := s
		m.sliceByID[s.ID] = &copied
		m.dimSlices[s.DimensionID] = append(m.dimSlices[s.DimensionID], &copied)
		if s.ID > m.nextSliceID {
			m.nextSliceID = s.ID
		}
	}
	for dimID := range m.dimSlices {
		sort.Slice(m.dimSlices[dimID], func(i, j int) bool {
			return m.dimSlices[dimID][i].Start < m.dimSlices[dimID][j].Start
		})
	}

	for i := range c.Chunks {
		chunk := c.Chunks[i]
		if _, exists := m.chunks[chunk.ID]; exists {
			return nil, fmt.Errorf("duplicate chunk id %d", chunk.ID)
		}
		if _, ok := m.byID[chunk.HypertableID]; !ok {
			return nil, fmt.Errorf("chunk %s references unknown hypertable %d", chunk.Name, chunk.HypertableID)
		}
		for _, sliceID := range chunk.SliceIDs {
			if _, ok := m.sliceByID[sliceID]; !ok {
				return nil, fmt.Errorf("chunk %s references unknown slice %d", chunk.Name, sliceID)
			}
		}
		copied := chunk
		m.chunks[chunk.ID] = &copied
		m.chunksByHT[chunk.HypertableID] = append(m.chunksByHT[chunk.HypertableID], &copied)
		if int64(chunk.ID) > m.nextChunkID {
			m.nextChunkID = int64(chunk.ID)
		}
	}

	return m, nil
}
