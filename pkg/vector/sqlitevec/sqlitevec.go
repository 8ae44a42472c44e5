// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

// minNarrowedK is the smallest KNN candidate set fetched when a search carries
// a filter or namespace, since those are applied after the KNN scan.
const minNarrowedK = 100

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
type SQLiteVecDriver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	// Must be set; it fixes the vec0 column size.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *slog.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	dimensions := c.Dimensions
	if dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database only lives as long as its connection.
	if c.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so entries keep a mapping from
	// string IDs to rowids alongside their namespace and metadata.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL UNIQUE,
			namespace TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating entries table: %w", err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", dimensions,
		"vec_version", vecVersion,
	)

	return &SQLiteVecDriver{
		db:         db,
		dimensions: dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func encodeMetadata(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func decodeMetadata(s string) (map[string]string, error) {
	m := map[string]string{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return m, nil
}

// Store upserts entries with their embeddings.
func (d *SQLiteVecDriver) Store(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		if uint(len(entry.Values)) != d.dimensions {
			return fmt.Errorf("%w: entry %s has %d values, index expects %d",
				vector.ErrDimension, entry.ID, len(entry.Values), d.dimensions)
		}

		embBlob := serializeFloat32(entry.Values)
		meta, err := encodeMetadata(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for entry %s: %w", entry.ID, err)
		}

		// Check if entry already exists
		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_entries WHERE entry_id = ?`, entry.ID,
		).Scan(&existingRowID)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE vec_entries SET namespace = ?, metadata = ? WHERE rowid = ?`,
				entry.Namespace, meta, existingRowID,
			); err != nil {
				return fmt.Errorf("updating entry %s: %w", entry.ID, err)
			}

			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for entry %s: %w", entry.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for entry %s: %w", entry.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				`INSERT INTO vec_entries(entry_id, namespace, metadata) VALUES (?, ?, ?)`,
				entry.ID, entry.Namespace, meta,
			)
			if err != nil {
				return fmt.Errorf("inserting entry %s: %w", entry.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for entry %s: %w", entry.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for entry %s: %w", entry.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("stored entries in sqlite-vec", "count", len(entries))
	return nil
}

// Search finds the most similar entries to the query vector. Namespace and
// filter are applied to an enlarged KNN candidate set.
func (d *SQLiteVecDriver) Search(ctx context.Context, params vector.SearchParams) ([]vector.Result, error) {
	limit := params.Limit()
	k := limit
	if params.Narrowed() {
		k = max(limit*10, minNarrowedK)
	}

	queryBlob := serializeFloat32(params.Vector)

	// Use KNN query via vec0 MATCH, then JOIN back to get ID and metadata.
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			e.entry_id,
			e.namespace,
			e.metadata,
			ve.embedding,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_entries e ON e.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, queryBlob, k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.Result{}
	for rows.Next() {
		var (
			id, namespace, meta string
			embBlob             []byte
			distance            float64
		)
		if err := rows.Scan(&id, &namespace, &meta, &embBlob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		metadata, err := decodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		if !params.Matches(namespace, metadata) {
			continue
		}

		values, err := deserializeFloat32(embBlob)
		if err != nil {
			return nil, err
		}

		results = append(results, vector.Result{
			Entry: vector.Entry{
				ID:        id,
				Values:    values,
				Metadata:  metadata,
				Namespace: namespace,
			},
			// Convert distance to similarity score: lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
		if len(results) == limit {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec", "candidates", k, "results", len(results))
	return results, nil
}

// Get retrieves entries by their IDs.
func (d *SQLiteVecDriver) Get(ctx context.Context, ids []string) ([]vector.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`
		SELECT e.entry_id, e.namespace, e.metadata, ve.embedding
		FROM vec_entries e
		LEFT JOIN vec_embeddings ve ON ve.rowid = e.rowid
		WHERE e.entry_id IN (%s)
	`, placeholders)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []vector.Entry
	for rows.Next() {
		var (
			entry   vector.Entry
			meta    string
			embBlob []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Namespace, &meta, &embBlob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		if entry.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		if len(embBlob) > 0 {
			if entry.Values, err = deserializeFloat32(embBlob); err != nil {
				return nil, err
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// Delete removes entries by their IDs.
func (d *SQLiteVecDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders, args := inClause(ids)

	// First, get the rowids for the entries to delete from vec0
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid FROM vec_entries WHERE entry_id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM vec_entries WHERE entry_id IN (%s)`, placeholders),
		args...,
	); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted entries from sqlite-vec", "count", len(ids))
	return nil
}

// UpdateMetadata merges metadata into an existing entry.
func (d *SQLiteVecDriver) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT metadata FROM vec_entries WHERE entry_id = ?`, id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("reading metadata for entry %s: %w", id, err)
	}

	existing, err := decodeMetadata(current)
	if err != nil {
		return err
	}

	merged, err := encodeMetadata(vector.MergeMetadata(existing, metadata))
	if err != nil {
		return fmt.Errorf("encoding metadata for entry %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE vec_entries SET metadata = ? WHERE entry_id = ?`, merged, id,
	); err != nil {
		return fmt.Errorf("updating metadata for entry %s: %w", id, err)
	}

	return tx.Commit()
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

// inClause builds the placeholder list and arguments for an IN clause.
func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

var _ vector.Driver = (*SQLiteVecDriver)(nil)
