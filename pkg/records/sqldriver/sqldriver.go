// Package sqldriver implements records.Store on database/sql. The sqlite and
// postgres packages open the connection and embed this driver.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/chatvault/pkg/records"
)

// Dialect selects placeholder syntax and DDL.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

var schemas = map[Dialect]string{
	SQLite: `
	CREATE TABLE IF NOT EXISTS records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		archive_id TEXT NOT NULL UNIQUE,
		conversation_id TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		topics TEXT NOT NULL,
		key_points TEXT NOT NULL,
		source TEXT NOT NULL,
		scraped_at TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		token_count INTEGER NOT NULL,
		embedding TEXT NOT NULL,
		reference_path TEXT NOT NULL,
		content_key TEXT NOT NULL,
		archived_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS records_conversation_id ON records (conversation_id);`,

	Postgres: `
	CREATE TABLE IF NOT EXISTS records (
		seq BIGSERIAL PRIMARY KEY,
		archive_id TEXT NOT NULL UNIQUE,
		conversation_id TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		topics JSONB NOT NULL,
		key_points JSONB NOT NULL,
		source TEXT NOT NULL,
		scraped_at TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		token_count INTEGER NOT NULL,
		embedding JSONB NOT NULL,
		reference_path TEXT NOT NULL,
		content_key TEXT NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS records_conversation_id ON records (conversation_id);`,
}

const columns = `archive_id, conversation_id, title, summary, topics, key_points, source,
	scraped_at, message_count, token_count, embedding, reference_path, content_key, archived_at`

// Driver implements records.Store over a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the records table and its index.
func (d *Driver) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemas[d.Dialect], ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating records: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $N for postgres.
func (d *Driver) rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// Save appends record.
func (d *Driver) Save(ctx context.Context, record *records.Record) error {
	topics, err := encodeJSON(nonNil(record.Topics))
	if err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}
	keyPoints, err := encodeJSON(nonNil(record.KeyPoints))
	if err != nil {
		return fmt.Errorf("encoding key points: %w", err)
	}
	embedding, err := encodeJSON(record.Embedding)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}

	res, err := d.DB.ExecContext(ctx, d.rebind(`
		INSERT INTO records (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (archive_id) DO NOTHING`),
		record.ArchiveID, record.ID, record.Title, record.Summary, topics, keyPoints,
		record.Source, record.Timestamp, record.MessageCount, record.TokenCount,
		embedding, record.ReferencePath, record.ContentKey, record.ArchivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", record.ArchiveID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", record.ArchiveID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", records.ErrDuplicate, record.ArchiveID)
	}

	return nil
}

// Get returns the record with the given ArchiveID.
func (d *Driver) Get(ctx context.Context, archiveID string) (*records.Record, error) {
	rs, err := d.query(ctx, `SELECT `+columns+` FROM records WHERE archive_id = ?`, archiveID)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, records.NotFoundError{ID: archiveID}
	}
	return rs[0], nil
}

// History returns every record for a conversation id, oldest first.
func (d *Driver) History(ctx context.Context, id string) ([]*records.Record, error) {
	return d.query(ctx, `SELECT `+columns+` FROM records WHERE conversation_id = ? ORDER BY seq ASC`, id)
}

// Latest returns the newest record for a conversation id.
func (d *Driver) Latest(ctx context.Context, id string) (*records.Record, error) {
	rs, err := d.query(ctx, `SELECT `+columns+` FROM records WHERE conversation_id = ? ORDER BY seq DESC LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, records.NotFoundError{ID: id}
	}
	return rs[0], nil
}

// List returns records newest first.
func (d *Driver) List(ctx context.Context, opts records.ListOptions) ([]*records.Record, error) {
	q := `SELECT ` + columns + ` FROM records`
	var args []any
	if opts.Source != "" {
		q += ` WHERE source = ?`
		args = append(args, opts.Source)
	}
	q += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	return d.query(ctx, q, args...)
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func (d *Driver) query(ctx context.Context, q string, args ...any) ([]*records.Record, error) {
	rows, err := d.DB.QueryContext(ctx, d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	out := []*records.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (*records.Record, error) {
	var (
		r                           records.Record
		topics, keyPoints, embedded []byte
		archivedAt                  time.Time
	)
	if err := rows.Scan(
		&r.ArchiveID, &r.ID, &r.Title, &r.Summary, &topics, &keyPoints, &r.Source,
		&r.Timestamp, &r.MessageCount, &r.TokenCount, &embedded, &r.ReferencePath,
		&r.ContentKey, &archivedAt,
	); err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	if err := errors.Join(
		json.Unmarshal(topics, &r.Topics),
		json.Unmarshal(keyPoints, &r.KeyPoints),
		json.Unmarshal(embedded, &r.Embedding),
	); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", r.ArchiveID, err)
	}

	r.ArchivedAt = archivedAt.UTC()
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ records.Store = (*Driver)(nil)
