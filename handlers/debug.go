// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/middleware"
)

const maxJournalLimit = 500

type JournalResponse struct {
	Kind   string     `json:"kind,omitempty"`
	Events []db.Event `json:"events"`
}

type JournalHandler struct {
	journal *db.Journal
}

func NewJournalHandler(journal *db.Journal) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// Recent handles GET /debug/journal?kind=&limit=
func (h *JournalHandler) Recent(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	events, err := h.journal.Recent(r.Context(), kind, limit)
	if err != nil {
		slog.Error("failed to read journal", "kind", kind, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, JournalResponse{Kind: kind, Events: events})
}
