// Package sqlite implements store.TransferLog on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anha-cs/filechat/internal/store"
)

// SQLiteLog implements store.TransferLog for SQLite.
type SQLiteLog struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transfer_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	type       TEXT NOT NULL,
	sender     TEXT NOT NULL DEFAULT '',
	recipient  TEXT NOT NULL DEFAULT '',
	filename   TEXT NOT NULL DEFAULT '',
	size_label TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// New opens (or creates) the transfer log at dbPath.
func New(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

// RecordTransferEvent appends one handshake milestone.
func (s *SQLiteLog) RecordTransferEvent(ctx context.Context, ev store.TransferEvent) (int64, error) {
	query := `
		INSERT INTO transfer_events (type, sender, recipient, filename, size_label, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		string(ev.Type), ev.Sender, ev.Recipient, ev.Filename, ev.SizeLabel, ev.Detail)
	if err != nil {
		return 0, fmt.Errorf("insert transfer event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// ListTransferEvents returns up to limit most recent events, newest first.
func (s *SQLiteLog) ListTransferEvents(ctx context.Context, limit int) ([]store.TransferEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, type, sender, recipient, filename, size_label, detail, created_at
		FROM transfer_events
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query transfer events: %w", err)
	}
	defer rows.Close()

	var events []store.TransferEvent
	for rows.Next() {
		var ev store.TransferEvent
		var typ string
		if err := rows.Scan(&ev.ID, &typ, &ev.Sender, &ev.Recipient, &ev.Filename, &ev.SizeLabel, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer event: %w", err)
		}
		ev.Type = store.TransferEventType(typ)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer events: %w", err)
	}
	return events, nil
}
