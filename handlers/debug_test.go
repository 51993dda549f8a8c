// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/testutil"
)

func TestJournalRecent(t *testing.T) {
	journal := db.NewJournal(testutil.SetupTestDB(t))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := journal.RecordFallback(ctx, "/api/elections", "down"); err != nil {
			t.Fatal(err)
		}
	}
	if err := journal.Record(ctx, db.KindVoteFailed, "abcd", "1 rejected"); err != nil {
		t.Fatal(err)
	}
	h := NewJournalHandler(journal)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"all", "", http.StatusOK, 4},
		{"by kind", "?kind=fallback", http.StatusOK, 3},
		{"limited", "?limit=2", http.StatusOK, 2},
		{"unknown kind", "?kind=nope", http.StatusOK, 0},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Recent(w, httptest.NewRequest("GET", "/debug/journal"+tt.query, nil))
			testutil.AssertStatus(t, w, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var resp JournalResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Events) != tt.count {
				t.Errorf("expected %d events, got %d", tt.count, len(resp.Events))
			}
		})
	}
}
