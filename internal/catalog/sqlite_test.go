package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/restrict"
)

func openTestSQLite(t *testing.T) *catalog.SQLite {
	t.Helper()
	db, err := catalog.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// ingestedSQLite loads the shared memory test layout into a fresh database.
func ingestedSQLite(t *testing.T) (*catalog.SQLite, *catalog.Memory) {
	t.Helper()
	mem := newTestCatalog(t)
	db := openTestSQLite(t)
	require.NoError(t, db.Ingest(context.Background(), mem.Contents()))
	return db, mem
}

func TestSQLiteHypertable(t *testing.T) {
	db, mem := ingestedSQLite(t)
	ctx := context.Background()

	ht, err := db.Hypertable(ctx, "metrics")
	require.NoError(t, err)
	orig, _ := mem.Hypertable(ctx, "metrics")

	require.Equal(t, orig.ID, ht.ID)
	require.Len(t, ht.Dimensions, 2)
	require.Equal(t, orig.Dimensions[0], ht.Dimensions[0])
	require.Equal(t, orig.Dimensions[1], ht.Dimensions[1])

	_, err = db.Hypertable(ctx, "missing")
	require.True(t, errors.Is(err, catalog.ErrNotFound))

	names, err := db.HypertableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"metrics"}, names)
}

// TestSQLiteMatchesMemory runs the same slice and chunk lookups against both
// backends and requires identical answers.
func TestSQLiteMatchesMemory(t *testing.T) {
	db, mem := ingestedSQLite(t)
	ctx := context.Background()
	ht, _ := mem.Hypertable(ctx, "metrics")
	timeDim, hashDim := ht.Dimensions[0].ID, ht.Dimensions[1].ID

	bounds := []struct {
		name  string
		upper *restrict.Bound
		lower *restrict.Bound
	}{
		{"unbounded", nil, nil},
		{"strict upper", &restrict.Bound{Op: predicate.OpLess, Value: 100}, nil},
		{"inclusive upper", &restrict.Bound{Op: predicate.OpLessEqual, Value: 100}, nil},
		{"lower", nil, &restrict.Bound{Op: predicate.OpGreaterEqual, Value: 150}},
		{"both", &restrict.Bound{Op: predicate.OpLess, Value: 250},
			&restrict.Bound{Op: predicate.OpGreater, Value: 50}},
		{"disjoint", &restrict.Bound{Op: predicate.OpLess, Value: 0},
			&restrict.Bound{Op: predicate.OpGreaterEqual, Value: 300}},
	}
	for _, tt := range bounds {
		t.Run(tt.name, func(t *testing.T) {
			fromMem, err := mem.RangeSlices(ctx, timeDim, tt.upper, tt.lower)
			require.NoError(t, err)
			fromDB, err := db.RangeSlices(ctx, timeDim, tt.upper, tt.lower)
			require.NoError(t, err)

			require.Equal(t, len(fromMem), len(fromDB))
			for i := range fromMem {
				require.Equal(t, *fromMem[i], *fromDB[i])
			}
		})
	}

	for _, key := range []int64{0, int64(1) << 31, (int64(1) << 32) - 1} {
		fromMem, err := mem.EqualSlices(ctx, hashDim, key)
		require.NoError(t, err)
		fromDB, err := db.EqualSlices(ctx, hashDim, key)
		require.NoError(t, err)
		require.Equal(t, len(fromMem), len(fromDB), "key %d", key)
		for i := range fromMem {
			require.Equal(t, *fromMem[i], *fromDB[i])
		}
	}

	timeSlices, err := db.RangeSlices(ctx, timeDim, &restrict.Bound{Op: predicate.OpLess, Value: 100}, nil)
	require.NoError(t, err)
	hashSlices, err := db.EqualSlices(ctx, hashDim, 0)
	require.NoError(t, err)

	fromMem, err := mem.ChunksForSlices(ctx, ht.ID, [][]*hypertable.Slice{timeSlices, hashSlices})
	require.NoError(t, err)
	fromDB, err := db.ChunksForSlices(ctx, ht.ID, [][]*hypertable.Slice{timeSlices, hashSlices})
	require.NoError(t, err)
	require.Equal(t, fromMem, fromDB)
}

func TestSQLiteChunkLookups(t *testing.T) {
	db, _ := ingestedSQLite(t)
	ctx := context.Background()

	names, err := db.ChunkNames(ctx, []hypertable.ChunkID{1, 4})
	require.NoError(t, err)
	require.Equal(t, []string{"metrics_0_0", "metrics_1_1"}, names)

	_, err = db.ChunkNames(ctx, []hypertable.ChunkID{99})
	require.True(t, errors.Is(err, catalog.ErrNotFound))

	n, err := db.ChunkCount(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 6, n)
}

func TestSQLiteEmptySliceList(t *testing.T) {
	db, _ := ingestedSQLite(t)

	chunks, err := db.ChunksForSlices(context.Background(), 1, [][]*hypertable.Slice{nil})
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestSQLiteContentsExport(t *testing.T) {
	db, mem := ingestedSQLite(t)

	exported, err := db.Contents(context.Background())
	require.NoError(t, err)
	require.Equal(t, mem.Contents(), exported)
}

func TestSQLiteEndToEndPruning(t *testing.T) {
	db, _ := ingestedSQLite(t)
	ctx := context.Background()

	ht, err := db.Hypertable(ctx, "metrics")
	require.NoError(t, err)
	rs, err := restrict.New(ht)
	require.NoError(t, err)

	preds, err := predicate.ParseWhere("t >= 100 AND t < 200")
	require.NoError(t, err)
	rs.AddPredicates(preds)

	chunks, err := rs.MatchingChunks(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []hypertable.ChunkID{3, 4}, chunks)
}
