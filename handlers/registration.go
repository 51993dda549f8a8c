// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/trustvote/capture"
	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/registration"
	"github.com/danielhkuo/trustvote/session"
	"github.com/danielhkuo/trustvote/viewstate"
)

const (
	// MaxImageBytes bounds ID uploads and camera frames
	MaxImageBytes = 5 << 20

	captureTimeout = 10 * time.Second
)

// RegistrationView pairs a wizard with the browser-fed camera it captures
// from
type RegistrationView struct {
	Wizard *registration.Wizard
	Camera *capture.Relay
}

func (v *RegistrationView) Close() error {
	return v.Wizard.Close()
}

type RegistrationResponse struct {
	ViewID string `json:"view_id"`
	registration.State
}

type RegistrationHandler struct {
	views *viewstate.Registry[*RegistrationView]
	deps  registration.Deps
}

// NewRegistrationHandler takes the shared wizard deps; each view gets its
// own camera
func NewRegistrationHandler(views *viewstate.Registry[*RegistrationView], deps registration.Deps) *RegistrationHandler {
	return &RegistrationHandler{views: views, deps: deps}
}

// Open handles GET /register
func (h *RegistrationHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	viewID, view, err := h.views.Open(sess.Owner(), func(ctx context.Context) (*RegistrationView, error) {
		cam := capture.NewRelay()
		deps := h.deps
		deps.Camera = cam
		return &RegistrationView{Wizard: registration.NewWizard(ctx, sess, deps), Camera: cam}, nil
	})
	if err != nil {
		slog.Error("failed to open registration view", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start registration")
		return
	}

	slog.Info("registration view opened", "view_id", viewID)
	h.respond(w, http.StatusOK, viewID, view)
}

// Get handles GET /registrations/{view}
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// Personal handles PUT /registrations/{view}/personal
func (h *RegistrationHandler) Personal(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.PersonalInfoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := view.Wizard.SetPersonal(req.FullName, req.VoterID, req.Birthdate); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// IDImage handles POST /registrations/{view}/id-image (multipart, field idImage)
func (h *RegistrationHandler) IDImage(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<10)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			"ID image must be at most "+humanize.Bytes(MaxImageBytes))
		return
	}
	file, _, err := r.FormFile("idImage")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "idImage file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read idImage")
		return
	}
	if len(data) > MaxImageBytes {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			"ID image must be at most "+humanize.Bytes(MaxImageBytes))
		return
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "idImage must be an image")
		return
	}

	if err := view.Wizard.AttachIDImage(registration.Image{Data: data, ContentType: ct}); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	slog.Info("id image attached", "view_id", viewID, "size", humanize.Bytes(uint64(len(data))))
	h.respond(w, http.StatusOK, viewID, view)
}

// Next handles POST /registrations/{view}/next[?wait=true]
func (h *RegistrationHandler) Next(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	before := view.Wizard.State().Step
	if err := view.Wizard.Next(); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	if before != registration.StepBiometric {
		h.respond(w, http.StatusOK, viewID, view)
		return
	}

	// Submission started
	status := http.StatusAccepted
	if r.URL.Query().Get("wait") == "true" {
		if err := view.Wizard.Wait(r.Context()); err != nil {
			return
		}
		status = http.StatusOK
	}
	h.respond(w, status, viewID, view)
}

// Back handles POST /registrations/{view}/back
func (h *RegistrationHandler) Back(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := view.Wizard.Back(); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// StartCamera handles POST /registrations/{view}/camera/start
func (h *RegistrationHandler) StartCamera(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := view.Wizard.StartCamera(); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// Frame handles POST /registrations/{view}/camera/frame with a raw JPEG or
// PNG body
func (h *RegistrationHandler) Frame(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			"Frame must be at most "+humanize.Bytes(MaxImageBytes))
		return
	}

	switch err := view.Camera.Push(data); {
	case errors.Is(err, capture.ErrNotImage):
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, capture.ErrNotStreaming), errors.Is(err, capture.ErrStopped):
		middleware.ErrorResponse(w, http.StatusConflict, "Camera is not streaming")
	case err != nil:
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept frame")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Capture handles POST /registrations/{view}/camera/capture
func (h *RegistrationHandler) Capture(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), captureTimeout)
	defer cancel()
	if err := view.Wizard.Capture(ctx); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// Retake handles POST /registrations/{view}/camera/retake
func (h *RegistrationHandler) Retake(w http.ResponseWriter, r *http.Request) {
	viewID, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := view.Wizard.Retake(); err != nil {
		h.fail(w, viewID, view, err)
		return
	}
	h.respond(w, http.StatusOK, viewID, view)
}

// Close handles DELETE /registrations/{view}
func (h *RegistrationHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.views.Close(r.PathValue("view"), sess.Owner()); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration view not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistrationHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *RegistrationView, bool) {
	viewID := r.PathValue("view")
	sess := session.FromContext(r.Context())
	view, err := h.views.Get(viewID, sess.Owner())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration view not found")
		return "", nil, false
	}
	return viewID, view, true
}

func (h *RegistrationHandler) respond(w http.ResponseWriter, status int, viewID string, view *RegistrationView) {
	middleware.JSONResponse(w, status, RegistrationResponse{ViewID: viewID, State: view.Wizard.State()})
}

// fail maps wizard errors to statuses. Errors the page shows inline come
// back with the state so it can render them.
func (h *RegistrationHandler) fail(w http.ResponseWriter, viewID string, view *RegistrationView, err error) {
	switch {
	case errors.Is(err, registration.ErrInvalid):
		h.respond(w, http.StatusUnprocessableEntity, viewID, view)
	case errors.Is(err, registration.ErrCamera):
		h.respond(w, http.StatusServiceUnavailable, viewID, view)
	case errors.Is(err, registration.ErrWrongStep), errors.Is(err, registration.ErrWrongCapture):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, registration.ErrNotConnected):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Wallet not connected")
	case errors.Is(err, registration.ErrClosed):
		middleware.ErrorResponse(w, http.StatusGone, "Registration view closed")
	default:
		slog.Error("registration action failed", "view_id", viewID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Registration action failed")
	}
}
