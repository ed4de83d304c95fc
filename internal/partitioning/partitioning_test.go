package partitioning_test

import (
	"testing"

	"github.com/chronodb/chronodb/internal/partitioning"
	"github.com/chronodb/chronodb/internal/types"
)

func TestHashDeterministic(t *testing.T) {
	a, err := partitioning.Hash(types.TypeString, "device-42")
	if err != nil {
		t.Fatal(err)
	}
	b, err := partitioning.Hash(types.TypeString, "device-42")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("hash is not deterministic: %d != %d", a, b)
	}
	if a < 0 || a >= partitioning.KeyspaceSize {
		t.Fatalf("key %d outside keyspace", a)
	}
}

func TestHashIntegerWidthsAgree(t *testing.T) {
	// Equal integer values must land in the same partition regardless of the
	// declared column width.
	k32, err := partitioning.Hash(types.TypeInt32, int32(7))
	if err != nil {
		t.Fatal(err)
	}
	k64, err := partitioning.Hash(types.TypeInt64, int64(7))
	if err != nil {
		t.Fatal(err)
	}
	if k32 != k64 {
		t.Fatalf("Int32(7) and Int64(7) disagree: %d != %d", k32, k64)
	}
}

func TestHashRejectsNonHashable(t *testing.T) {
	if _, err := partitioning.Hash(types.TypeString, int64(1)); err == nil {
		t.Fatal("expected error hashing a non-string value as String")
	}
}

func TestSplitKeyspace(t *testing.T) {
	for _, n := range []int32{1, 2, 3, 4, 7, 16} {
		intervals := partitioning.SplitKeyspace(n)
		if len(intervals) != int(n) {
			t.Fatalf("n=%d: got %d intervals", n, len(intervals))
		}
		if intervals[0].Start != 0 {
			t.Fatalf("n=%d: first interval starts at %d", n, intervals[0].Start)
		}
		if intervals[n-1].End != partitioning.KeyspaceSize {
			t.Fatalf("n=%d: last interval ends at %d", n, intervals[n-1].End)
		}
		for i := 1; i < len(intervals); i++ {
			if intervals[i].Start != intervals[i-1].End {
				t.Fatalf("n=%d: gap between interval %d and %d", n, i-1, i)
			}
		}
	}

	if partitioning.SplitKeyspace(0) != nil {
		t.Fatal("n=0 must yield no intervals")
	}
}

func TestPartitionIndexMatchesSplit(t *testing.T) {
	const n = int32(5)
	intervals := partitioning.SplitKeyspace(n)

	keys := []int64{0, 1, partitioning.KeyspaceSize / 2, partitioning.KeyspaceSize - 1}
	for _, key := range keys {
		idx := partitioning.PartitionIndex(key, n)
		iv := intervals[idx]
		if key < iv.Start || key >= iv.End {
			t.Fatalf("key %d mapped to interval %d [%d, %d) which does not contain it",
				key, idx, iv.Start, iv.End)
		}
	}
}
