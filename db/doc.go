// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db holds the diagnostic journal and its schema.

# Schema Creation

CreateSchema initializes the journal table:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The SQL runs unchanged on SQLite (modernc.org/sqlite, the default) and
PostgreSQL (lib/pq).

# Journal

The journal is an operator-facing log, not a data store. It records:

  - fallback: sample data replaced a failed election API read (demo mode)
  - vote_submitted / vote_failed: transaction boundary outcomes
  - registration_submitted / registration_failed: registration outcomes

Subjects are upstream paths or wallet fingerprints, never raw addresses.

	journal := db.NewJournal(conn)
	events, err := journal.Recent(ctx, db.KindFallback, 20)
*/
package db
