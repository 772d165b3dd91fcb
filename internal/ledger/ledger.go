// Package ledger keeps an append-only history of commands sent to a bridge.
// It is used for auditing what huectl changed and when.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dokzlo13/huetoolkit/internal/hue"
)

// Entry represents a single command in the ledger
type Entry struct {
	ID        string
	Timestamp time.Time
	Bridge    string
	Method    string
	Address   string
	Body      string
	Status    int
	Error     string // Empty when the bridge accepted the command
}

// Ledger provides append-only command logging
type Ledger struct {
	db     *sql.DB
	bridge string
	now    func() time.Time
}

// New creates a new Ledger recording commands for the given bridge address
func New(db *sql.DB, bridge string) *Ledger {
	return &Ledger{db: db, bridge: bridge, now: time.Now}
}

// Record implements hue.Recorder
func (l *Ledger) Record(ctx context.Context, cmd hue.Command, status int, cmdErr error) error {
	var errText sql.NullString
	if cmdErr != nil {
		errText = sql.NullString{String: cmdErr.Error(), Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO command_ledger (id, timestamp, bridge, method, address, body, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cmd.ID, l.now().UTC().UnixMilli(), l.bridge, cmd.Method, cmd.Address, cmd.Body, status, errText)
	if err != nil {
		return fmt.Errorf("failed to append command: %w", err)
	}
	return nil
}

// Recent returns the newest entries first
func (l *Ledger) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, bridge, method, address, body, status, error
		FROM command_ledger
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByTimeRange returns entries within a time range, newest first
func (l *Ledger) GetByTimeRange(ctx context.Context, start, end time.Time, limit int) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, bridge, method, address, body, status, error
		FROM command_ledger
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, start.UTC().UnixMilli(), end.UTC().UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().UnixMilli()
	result, err := l.db.ExecContext(ctx, `
		DELETE FROM command_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var body, errText sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &timestamp, &entry.Bridge, &entry.Method, &entry.Address, &body, &entry.Status, &errText,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.UnixMilli(timestamp).UTC()
		entry.Body = body.String
		entry.Error = errText.String

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
