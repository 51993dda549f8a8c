// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/trustvote/catalog"
	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/remote"
	"github.com/danielhkuo/trustvote/views"
)

type ElectionListResponse struct {
	Status    string               `json:"status"`
	Search    string               `json:"search"`
	Total     int                  `json:"total"`
	Elections []views.ElectionCard `json:"elections"`
	// Empty is the message shown when nothing matches
	Empty string `json:"empty,omitempty"`
}

type ElectionHandler struct {
	client *remote.Client
}

func NewElectionHandler(client *remote.Client) *ElectionHandler {
	return &ElectionHandler{client: client}
}

// List handles GET /elections?status=&q=
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("q"),
	}
	if q.Status == "" {
		q.Status = catalog.StatusAll
	}

	elections, err := h.client.Elections(r.Context())
	if err != nil {
		slog.Error("failed to fetch elections", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Election service unavailable")
		return
	}

	filtered, err := catalog.Filter(elections, q)
	if errors.Is(err, catalog.ErrUnknownStatus) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be one of: all, active, upcoming, ended")
		return
	}
	if err != nil {
		slog.Error("failed to filter elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list elections")
		return
	}

	resp := ElectionListResponse{
		Status:    q.Status,
		Search:    q.Search,
		Total:     len(elections),
		Elections: views.Cards(filtered),
	}
	if len(filtered) == 0 {
		resp.Empty = "No elections found matching your criteria."
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
