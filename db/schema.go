// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates the journal tables.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Portable between SQLite and PostgreSQL. Timestamps are fixed-width
// RFC 3339 text in UTC so they sort lexically.
const schema = `
CREATE TABLE IF NOT EXISTS journal_event (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    subject TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    occurred_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_event_occurred_at ON journal_event(occurred_at);
CREATE INDEX IF NOT EXISTS idx_journal_event_kind ON journal_event(kind);
`
