package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chronodb/chronodb/internal/config"
	"github.com/chronodb/chronodb/internal/hypertable"
)

const testSchema = `
hypertables:
  - name: metrics
    dimensions:
      - column: time
        type: Timestamp
        kind: range
      - column: device
        type: String
        kind: hash
        partitions: 2
    chunks:
      - name: metrics_jan_0
        slices:
          - column: time
            start: "2024-01-01"
            end: "2024-02-01"
          - column: device
            partition: 0
      - name: metrics_jan_1
        slices:
          - column: time
            start: "2024-01-01"
            end: "2024-02-01"
          - column: device
            partition: 1
`

func TestParseSchemaAndBuildCatalog(t *testing.T) {
	schema, err := config.ParseSchema([]byte(testSchema))
	require.NoError(t, err)
	require.Len(t, schema.Hypertables, 1)

	cat, err := config.BuildCatalog(schema)
	require.NoError(t, err)

	ctx := context.Background()
	ht, err := cat.Hypertable(ctx, "metrics")
	require.NoError(t, err)
	require.Equal(t, hypertable.RangeDimension, ht.Dimensions[0].Kind)
	require.Equal(t, hypertable.HashDimension, ht.Dimensions[1].Kind)
	require.Equal(t, int32(2), ht.Dimensions[1].Partitions)

	n, err := cat.ChunkCount(ctx, ht.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCoordDecoding(t *testing.T) {
	schema, err := config.ParseSchema([]byte(`
hypertables:
  - name: events
    dimensions:
      - column: id
        type: Int64
        kind: range
    chunks:
      - name: events_1
        slices:
          - column: id
            start: 0
            end: 1000
`))
	require.NoError(t, err)
	cs := schema.Hypertables[0].Chunks[0].Slices[0]
	require.EqualValues(t, 0, cs.Start.Value)
	require.EqualValues(t, 1000, cs.End.Value)

	// Timestamp strings decode to epoch microseconds.
	schema, err = config.ParseSchema([]byte(testSchema))
	require.NoError(t, err)
	cs = schema.Hypertables[0].Chunks[0].Slices[0]
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	require.Equal(t, want, cs.Start.Value)
}

func TestSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", `
hypertables:
  - name: x
    dimensions:
      - column: a
        type: Decimal
        kind: range
`},
		{"unknown kind", `
hypertables:
  - name: x
    dimensions:
      - column: a
        type: Int64
        kind: diagonal
`},
		{"bad coordinate", `
hypertables:
  - name: x
    dimensions:
      - column: a
        type: Int64
        kind: range
    chunks:
      - name: c
        slices:
          - column: a
            start: "not a time"
            end: 10
`},
		{"slice without placement", `
hypertables:
  - name: x
    dimensions:
      - column: a
        type: Int64
        kind: range
    chunks:
      - name: c
        slices:
          - column: a
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := config.ParseSchema([]byte(tt.yaml))
			if err != nil {
				return
			}
			_, err = config.BuildCatalog(schema)
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chronodb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
catalog:
  schema_path: schema.yaml
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "schema.yaml", cfg.Catalog.SchemaPath)
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "default-addr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  sqlite_path: catalog.db
`), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)

	path = filepath.Join(dir, "no-backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: ':1'\n"), 0o644))
	_, err = config.Load(path)
	require.Error(t, err)

	path = filepath.Join(dir, "both-backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  sqlite_path: a.db
  schema_path: b.yaml
`), 0o644))
	_, err = config.Load(path)
	require.Error(t, err)
}
