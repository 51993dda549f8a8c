// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/remote"
	"github.com/danielhkuo/trustvote/session"
	"github.com/danielhkuo/trustvote/views"
)

type HomeResponse struct {
	Connected  bool   `json:"connected"`
	Address    string `json:"address,omitempty"`
	Registered bool   `json:"registered"`
	// Next is where "Get started" leads; empty until a wallet connects
	Next            string               `json:"next,omitempty"`
	ActiveElections []views.ElectionCard `json:"active_elections,omitempty"`
	DemoMode        bool                 `json:"demo_mode"`
}

type SuccessResponse struct {
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps"`
	Links     []Link   `json:"links"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type HomeHandler struct {
	client *remote.Client
}

func NewHomeHandler(client *remote.Client) *HomeHandler {
	return &HomeHandler{client: client}
}

// Home handles GET /
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	resp := HomeResponse{
		Connected: sess.Connected,
		Address:   sess.Address,
		DemoMode:  h.client.DemoMode(),
	}
	if !sess.Connected {
		middleware.JSONResponse(w, http.StatusOK, resp)
		return
	}

	registered, err := h.client.IsRegistered(r.Context(), sess.Address)
	if err != nil {
		// Unknown registration reads as not registered; the register
		// page is still reachable.
		slog.Warn("registration check failed", "error", err)
	}
	resp.Registered = registered
	resp.Next = "/register"
	if registered {
		resp.Next = "/elections"
	}

	active, err := h.client.ActiveElections(r.Context())
	if err != nil {
		slog.Warn("active elections unavailable", "error", err)
		active = nil
	}
	resp.ActiveElections = views.Cards(active)

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// RegisterSuccess handles GET /register/success
func (h *HomeHandler) RegisterSuccess(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, SuccessResponse{
		Title:   "Registration Submitted",
		Message: "Your voter registration has been submitted and is being processed. You will receive a confirmation once your identity has been verified.",
		NextSteps: []string{
			"Our system will verify your identity using the information you provided.",
			"Once verified, you'll receive a confirmation notification.",
			"You can then participate in all eligible elections on the platform.",
		},
		Links: []Link{
			{Label: "View Elections", Href: "/elections"},
			{Label: "Return to Home", Href: "/"},
		},
	})
}
