package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/predicate"
	"github.com/chronodb/chronodb/internal/restrict"
	"github.com/chronodb/chronodb/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a catalog backed by a SQLite database. Resolver lookups are
// plain read queries under the caller's context; writes go through Ingest.
type SQLite struct {
	db *sql.DB
}

var _ Catalog = (*SQLite)(nil)

// OpenSQLite creates or opens a catalog database at the given path,
// applying pragmas and schema. Idempotent.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on ingest.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (c *SQLite) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ingest copies exported catalog contents into the database in a single
// transaction, preserving ids.
func (c *SQLite) Ingest(ctx context.Context, contents Contents) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	for i := range contents.Hypertables {
		ht := &contents.Hypertables[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hypertable (id, name) VALUES (?, ?)`, ht.ID, ht.Name); err != nil {
			return fmt.Errorf("ingest hypertable %s: %w", ht.Name, err)
		}
		for pos, dim := range ht.Dimensions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO dimension (id, hypertable_id, position, column_name, column_type, kind, partitions)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				dim.ID, ht.ID, pos, dim.Column, dim.Type.Name(), dim.Kind.String(), dim.Partitions); err != nil {
				return fmt.Errorf("ingest dimension %s.%s: %w", ht.Name, dim.Column, err)
			}
		}
	}

	for _, s := range contents.Slices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dimension_slice (id, dimension_id, range_start, range_end) VALUES (?, ?, ?, ?)`,
			s.ID, s.DimensionID, s.Start, s.End); err != nil {
			return fmt.Errorf("ingest slice %d: %w", s.ID, err)
		}
	}

	for _, chunk := range contents.Chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunk (id, hypertable_id, name) VALUES (?, ?, ?)`,
			chunk.ID, chunk.HypertableID, chunk.Name); err != nil {
			return fmt.Errorf("ingest chunk %s: %w", chunk.Name, err)
		}
		for _, sliceID := range chunk.SliceIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunk_constraint (chunk_id, dimension_slice_id) VALUES (?, ?)`,
				chunk.ID, sliceID); err != nil {
				return fmt.Errorf("ingest chunk constraint %s/%d: %w", chunk.Name, sliceID, err)
			}
		}
	}

	return tx.Commit()
}

// Hypertable returns a hypertable definition by name.
func (c *SQLite) Hypertable(ctx context.Context, name string) (*hypertable.Hypertable, error) {
	ht := &hypertable.Hypertable{Name: name}
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM hypertable WHERE name = ?`, name).Scan(&ht.ID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("hypertable %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("look up hypertable %s: %w", name, err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, column_name, column_type, kind, partitions
		 FROM dimension WHERE hypertable_id = ? ORDER BY position`, ht.ID)
	if err != nil {
		return nil, fmt.Errorf("load dimensions of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dim hypertable.Dimension
		var typeName, kind string
		if err := rows.Scan(&dim.ID, &dim.Column, &typeName, &kind, &dim.Partitions); err != nil {
			return nil, err
		}
		dim.Type, err = types.ParseDataType(typeName)
		if err != nil {
			return nil, fmt.Errorf("dimension %s.%s: %w", name, dim.Column, err)
		}
		switch kind {
		case "range":
			dim.Kind = hypertable.RangeDimension
		case "hash":
			dim.Kind = hypertable.HashDimension
		default:
			return nil, fmt.Errorf("dimension %s.%s has unknown kind %q", name, dim.Column, kind)
		}
		ht.Dimensions = append(ht.Dimensions, dim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ht, nil
}

// HypertableNames lists all hypertables, sorted by name.
func (c *SQLite) HypertableNames(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM hypertable ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// RangeSlices returns the dimension's slices overlapping the bounds, ordered
// by start. Strict lower bounds match inclusively at slice granularity, as
// in the memory catalog.
func (c *SQLite) RangeSlices(ctx context.Context, dimensionID int32, upper, lower *restrict.Bound) ([]*hypertable.Slice, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, dimension_id, range_start, range_end FROM dimension_slice WHERE dimension_id = ?`)
	args := []interface{}{dimensionID}

	if upper != nil {
		if upper.Op == predicate.OpLess {
			sb.WriteString(` AND range_start < ?`)
		} else {
			sb.WriteString(` AND range_start <= ?`)
		}
		args = append(args, upper.Value)
	}
	if lower != nil {
		sb.WriteString(` AND range_end > ?`)
		args = append(args, lower.Value)
	}
	sb.WriteString(` ORDER BY range_start`)

	return c.querySlices(ctx, sb.String(), args...)
}

// EqualSlices returns the slices containing the partition key.
func (c *SQLite) EqualSlices(ctx context.Context, dimensionID int32, key int64) ([]*hypertable.Slice, error) {
	return c.querySlices(ctx,
		`SELECT id, dimension_id, range_start, range_end FROM dimension_slice
		 WHERE dimension_id = ? AND range_start <= ? AND range_end > ?
		 ORDER BY range_start`,
		dimensionID, key, key)
}

func (c *SQLite) querySlices(ctx context.Context, query string, args ...interface{}) ([]*hypertable.Slice, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slices: %w", err)
	}
	defer rows.Close()

	var out []*hypertable.Slice
	for rows.Next() {
		s := &hypertable.Slice{}
		if err := rows.Scan(&s.ID, &s.DimensionID, &s.Start, &s.End); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ChunksForSlices returns the ids of chunks having a matching slice in every
// dimension, ordered by chunk id.
func (c *SQLite) ChunksForSlices(ctx context.Context, hypertableID int32, slices [][]*hypertable.Slice) ([]hypertable.ChunkID, error) {
	if len(slices) == 0 {
		return []hypertable.ChunkID{}, nil
	}

	// One membership scan per dimension, intersected in Go. Dimension slice
	// lists are small, so IN lists stay short.
	var matched map[hypertable.ChunkID]bool
	for _, list := range slices {
		if len(list) == 0 {
			return []hypertable.ChunkID{}, nil
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(list)), ",")
		args := make([]interface{}, 0, len(list)+1)
		args = append(args, hypertableID)
		for _, s := range list {
			args = append(args, s.ID)
		}

		rows, err := c.db.QueryContext(ctx,
			`SELECT DISTINCT cc.chunk_id
			 FROM chunk_constraint cc JOIN chunk ch ON ch.id = cc.chunk_id
			 WHERE ch.hypertable_id = ? AND cc.dimension_slice_id IN (`+placeholders+`)
			 ORDER BY cc.chunk_id`, args...)
		if err != nil {
			return nil, fmt.Errorf("enumerate chunks: %w", err)
		}

		found := make(map[hypertable.ChunkID]bool)
		for rows.Next() {
			var id hypertable.ChunkID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			if matched == nil || matched[id] {
				found[id] = true
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		matched = found
		if len(matched) == 0 {
			return []hypertable.ChunkID{}, nil
		}
	}

	out := make([]hypertable.ChunkID, 0, len(matched))
	for id := range matched {
		out = append(out, id)
	}
	// Map iteration order is random; chunk lists are part of the API surface.
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Contents exports the full catalog, for snapshots. Ordered by id, matching
// the memory catalog's export.
func (c *SQLite) Contents(ctx context.Context) (Contents, error) {
	var out Contents

	names, err := c.HypertableNames(ctx)
	if err != nil {
		return Contents{}, err
	}
	for _, name := range names {
		ht, err := c.Hypertable(ctx, name)
		if err != nil {
			return Contents{}, err
		}
		out.Hypertables = append(out.Hypertables, *ht)
	}
	sort.Slice(out.Hypertables, func(i, j int) bool {
		return out.Hypertables[i].ID < out.Hypertables[j].ID
	})

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, dimension_id, range_start, range_end FROM dimension_slice ORDER BY id`)
	if err != nil {
		return Contents{}, fmt.Errorf("export slices: %w", err)
	}
	for rows.Next() {
		var s hypertable.Slice
		if err := rows.Scan(&s.ID, &s.DimensionID, &s.Start, &s.End); err != nil {
			rows.Close()
			return Contents{}, err
		}
		out.Slices = append(out.Slices, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Contents{}, err
	}
	rows.Close()

	rows, err = c.db.QueryContext(ctx,
		`SELECT ch.id, ch.hypertable_id, ch.name, cc.dimension_slice_id, ds.dimension_id
		 FROM chunk ch
		 JOIN chunk_constraint cc ON cc.chunk_id = ch.id
		 JOIN dimension_slice ds ON ds.id = cc.dimension_slice_id
		 ORDER BY ch.id`)
	if err != nil {
		return Contents{}, fmt.Errorf("export chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[hypertable.ChunkID]*hypertable.Chunk)
	var order []hypertable.ChunkID
	for rows.Next() {
		var (
			id      hypertable.ChunkID
			htID    int32
			name    string
			sliceID int64
			dimID   int32
		)
		if err := rows.Scan(&id, &htID, &name, &sliceID, &dimID); err != nil {
			return Contents{}, err
		}
		chunk, ok := byID[id]
		if !ok {
			chunk = &hypertable.Chunk{
				ID:           id,
				HypertableID: htID,
				Name:         name,
				SliceIDs:     make(map[int32]int64),
			}
			byID[id] = chunk
			order = append(order, id)
		}
		chunk.SliceIDs[dimID] = sliceID
	}
	if err := rows.Err(); err != nil {
		return Contents{}, err
	}
	for _, id := range order {
		out.Chunks = append(out.Chunks, *byID[id])
	}

	return out, nil
}

// ChunkNames maps chunk ids to names, preserving order.
func (c *SQLite) ChunkNames(ctx context.Context, ids []hypertable.ChunkID) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		var name string
		err := c.db.QueryRowContext(ctx, `SELECT name FROM chunk WHERE id = ?`, id).Scan(&name)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("chunk %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// ChunkCount returns the number of chunks of a hypertable.
func (c *SQLite) ChunkCount(ctx context.Context, hypertableID int32) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunk WHERE hypertable_id = ?`, hypertableID).Scan(&n)
	return n, err
}
