// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event kinds
const (
	KindFallback              = "fallback"
	KindVoteSubmitted         = "vote_submitted"
	KindVoteFailed            = "vote_failed"
	KindRegistrationSubmitted = "registration_submitted"
	KindRegistrationFailed    = "registration_failed"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Journal is the diagnostic channel for demo fallbacks and submission
// outcomes. It holds no election or voter data.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Record appends an event
func (j *Journal) Record(ctx context.Context, kind, subject, detail string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO journal_event (id, kind, subject, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), kind, subject, detail, j.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", kind, err)
	}
	return nil
}

// RecordFallback notes that sample data replaced a failed upstream read
func (j *Journal) RecordFallback(ctx context.Context, path, reason string) error {
	return j.Record(ctx, KindFallback, path, reason)
}

// Recent returns up to limit events, newest first. An empty kind matches all.
func (j *Journal) Recent(ctx context.Context, kind string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = j.db.QueryContext(ctx, `
			SELECT id, kind, subject, detail, occurred_at
			FROM journal_event
			ORDER BY occurred_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, `
			SELECT id, kind, subject, detail, occurred_at
			FROM journal_event
			WHERE kind = $1
			ORDER BY occurred_at DESC
			LIMIT $2
		`, kind, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var at string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("failed to scan journal event: %w", err)
		}
		e.OccurredAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("bad journal timestamp %q: %w", at, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
