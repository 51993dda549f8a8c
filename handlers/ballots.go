// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/trustvote/ballot"
	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/remote"
	"github.com/danielhkuo/trustvote/session"
	"github.com/danielhkuo/trustvote/viewstate"
	"github.com/danielhkuo/trustvote/views"
)

type BallotResponse struct {
	ViewID  string        `json:"view_id"`
	Badge   views.Badge   `json:"badge"`
	Dates   string        `json:"dates"`
	Notice  *views.Notice `json:"notice,omitempty"`
	Results views.Results `json:"results"`
	ballot.State
}

type BallotHandler struct {
	client *remote.Client
	booths *viewstate.Registry[*ballot.Booth]
	deps   ballot.Deps
}

func NewBallotHandler(client *remote.Client, booths *viewstate.Registry[*ballot.Booth], deps ballot.Deps) *BallotHandler {
	return &BallotHandler{client: client, booths: booths, deps: deps}
}

// Open handles GET /elections/{id}
// Loads the election and the wallet's vote status, then opens a ballot view
func (h *BallotHandler) Open(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}
	sess := session.FromContext(r.Context())

	var (
		election *models.Election
		hasVoted bool
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		election, err = h.client.Election(ctx, electionID)
		return err
	})
	g.Go(func() error {
		var err error
		hasVoted, err = h.client.HasVoted(ctx, electionID, sess.Address)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
			return
		}
		slog.Error("failed to load election", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Election service unavailable")
		return
	}

	viewID, booth, err := h.booths.Open(sess.Owner(), func(ctx context.Context) (*ballot.Booth, error) {
		return ballot.NewBooth(ctx, sess, *election, hasVoted, h.deps), nil
	})
	if err != nil {
		slog.Error("failed to open ballot view", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open ballot")
		return
	}

	slog.Info("ballot view opened", "election_id", electionID, "view_id", viewID, "has_voted", hasVoted)
	middleware.JSONResponse(w, http.StatusOK, ballotResponse(viewID, booth.State()))
}

// Get handles GET /ballots/{view}
func (h *BallotHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewID, booth, ok := h.lookup(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ballotResponse(viewID, booth.State()))
}

// Select handles POST /ballots/{view}/select
func (h *BallotHandler) Select(w http.ResponseWriter, r *http.Request) {
	viewID, booth, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.SelectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PositionID == "" || req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "positionId and candidateId are required")
		return
	}

	// Rejected picks leave the state unchanged, still 200
	st := booth.Select(req.PositionID, req.CandidateID)
	middleware.JSONResponse(w, http.StatusOK, ballotResponse(viewID, st))
}

// Submit handles POST /ballots/{view}/submit[?wait=true]
func (h *BallotHandler) Submit(w http.ResponseWriter, r *http.Request) {
	viewID, booth, ok := h.lookup(w, r)
	if !ok {
		return
	}

	err := booth.Submit()
	switch {
	case errors.Is(err, ballot.ErrIncomplete):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "Select a candidate for every position")
		return
	case errors.Is(err, ballot.ErrNotVotable), errors.Is(err, ballot.ErrAlreadyVoted), errors.Is(err, ballot.ErrPending):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ballot.ErrNotConnected):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Wallet not connected")
		return
	case errors.Is(err, ballot.ErrClosed):
		middleware.ErrorResponse(w, http.StatusGone, "Ballot view closed")
		return
	case err != nil:
		slog.Error("failed to submit ballot", "view_id", viewID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	status := http.StatusAccepted
	if r.URL.Query().Get("wait") == "true" {
		if err := booth.Wait(r.Context()); err != nil {
			// Client gave up; the submission keeps going
			return
		}
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, ballotResponse(viewID, booth.State()))
}

// Close handles DELETE /ballots/{view}
func (h *BallotHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.booths.Close(r.PathValue("view"), sess.Owner()); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Ballot view not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BallotHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *ballot.Booth, bool) {
	viewID := r.PathValue("view")
	sess := session.FromContext(r.Context())
	booth, err := h.booths.Get(viewID, sess.Owner())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Ballot view not found")
		return "", nil, false
	}
	return viewID, booth, true
}

func ballotResponse(viewID string, st ballot.State) BallotResponse {
	return BallotResponse{
		ViewID:  viewID,
		Badge:   views.BadgeFor(st.Election.Status),
		Dates:   views.FormatDate(st.Election.StartDate) + " - " + views.FormatDate(st.Election.EndDate),
		Notice:  views.NoticeFor(st.Election, st.HasVoted),
		Results: views.Tally(st.Election),
		State:   st,
	}
}
