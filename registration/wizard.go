// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/danielhkuo/trustvote/capture"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/session"
)

// User-visible messages
const (
	MsgFullName     = "Please enter your full name"
	MsgVoterID      = "Please enter your voter ID"
	MsgBirthdate    = "Please enter your birthdate"
	MsgIDImage      = "Please upload an image of your voter ID"
	MsgFaceImage    = "Please capture your face image"
	MsgCamera       = "Could not access camera. Please ensure you have granted camera permissions."
	MsgSubmitFailed = "Registration failed. Please try again."
)

// SuccessPath is where a finished registration sends the browser
const SuccessPath = "/register/success"

var (
	ErrInvalid      = errors.New("validation failed")
	ErrWrongStep    = errors.New("not allowed at this step")
	ErrWrongCapture = errors.New("not allowed in this capture state")
	ErrCamera       = errors.New("camera unavailable")
	ErrNotConnected = errors.New("wallet not connected")
	ErrClosed       = errors.New("registration view closed")
)

type Step int

const (
	StepPersonal Step = iota + 1
	StepBiometric
	StepSubmitting
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepBiometric:
		return "biometric"
	case StepSubmitting:
		return "submitting"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// CaptureState is the camera sub-state of the biometric step
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureCapturing CaptureState = "capturing"
	CaptureCaptured  CaptureState = "captured"
)

// Image is an uploaded or captured picture
type Image struct {
	Data        []byte
	ContentType string
}

// Draft holds everything entered so far
type Draft struct {
	FullName  string
	VoterID   string
	Birthdate string
	IDImage   *Image
	FaceImage *Image
}

// Submitter sends a completed draft to the registration service
type Submitter interface {
	Submit(ctx context.Context, address string, draft Draft) error
}

// Recorder receives submission outcomes for the diagnostic journal
type Recorder interface {
	Record(ctx context.Context, kind, subject, detail string) error
}

// Deps are the collaborators a wizard works with
type Deps struct {
	Camera    capture.Camera
	Submitter Submitter
	Journal   Recorder
	Salt      string
}

// Wizard is the two-step voter registration flow for one open page.
// Methods are safe for concurrent use and each applies atomically.
type Wizard struct {
	mu sync.Mutex

	ctx  context.Context
	sess session.Session
	deps Deps

	step    Step
	draft   Draft
	capture CaptureState
	stream  capture.Stream
	errMsg  string
	settled chan struct{}
}

// NewWizard starts at the personal information step. Cancelling ctx
// invalidates late submission results; Close releases the camera.
func NewWizard(ctx context.Context, sess session.Session, deps Deps) *Wizard {
	return &Wizard{
		ctx:     ctx,
		sess:    sess,
		deps:    deps,
		step:    StepPersonal,
		capture: CaptureIdle,
	}
}

// State is a rendering snapshot. Image bytes are not included.
type State struct {
	Step         Step         `json:"step"`
	StepName     string       `json:"step_name"`
	FullName     string       `json:"full_name"`
	VoterID      string       `json:"voter_id"`
	Birthdate    string       `json:"birthdate"`
	HasIDImage   bool         `json:"has_id_image"`
	IDImageType  string       `json:"id_image_type,omitempty"`
	HasFaceImage bool         `json:"has_face_image"`
	Capture      CaptureState `json:"capture"`
	Submitting   bool         `json:"submitting"`
	Error        string       `json:"error,omitempty"`
	Redirect     string       `json:"redirect,omitempty"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wizard) stateLocked() State {
	st := State{
		Step:         w.step,
		StepName:     w.step.String(),
		FullName:     w.draft.FullName,
		VoterID:      w.draft.VoterID,
		Birthdate:    w.draft.Birthdate,
		HasIDImage:   w.draft.IDImage != nil,
		HasFaceImage: w.draft.FaceImage != nil,
		Capture:      w.capture,
		Submitting:   w.step == StepSubmitting,
		Error:        w.errMsg,
	}
	if w.draft.IDImage != nil {
		st.IDImageType = w.draft.IDImage.ContentType
	}
	if w.step == StepDone {
		st.Redirect = SuccessPath
	}
	return st
}

// SetPersonal stores the personal information fields
func (w *Wizard) SetPersonal(fullName, voterID, birthdate string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(StepPersonal); err != nil {
		return err
	}
	w.draft.FullName = fullName
	w.draft.VoterID = voterID
	w.draft.Birthdate = birthdate
	return nil
}

// AttachIDImage stores the voter ID picture
func (w *Wizard) AttachIDImage(img Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(StepPersonal); err != nil {
		return err
	}
	w.draft.IDImage = &img
	return nil
}

// Next validates the current step and advances. From the biometric step it
// starts the submission and returns with the wizard in StepSubmitting.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return ErrClosed
	}

	switch w.step {
	case StepPersonal:
		if msg := validatePersonal(w.draft); msg != "" {
			w.errMsg = msg
			return fmt.Errorf("%w: %s", ErrInvalid, msg)
		}
		w.errMsg = ""
		w.step = StepBiometric
		return nil

	case StepBiometric:
		if w.draft.FaceImage == nil {
			w.errMsg = MsgFaceImage
			return fmt.Errorf("%w: %s", ErrInvalid, MsgFaceImage)
		}
		if !w.sess.Connected {
			return ErrNotConnected
		}
		w.errMsg = ""
		w.stopCameraLocked()
		w.step = StepSubmitting
		done := make(chan struct{})
		w.settled = done
		go w.submit(w.draft, done)
		return nil
	}
	return ErrWrongStep
}

// validatePersonal returns the message for the first failing check
func validatePersonal(d Draft) string {
	switch {
	case strings.TrimSpace(d.FullName) == "":
		return MsgFullName
	case strings.TrimSpace(d.VoterID) == "":
		return MsgVoterID
	case d.Birthdate == "":
		return MsgBirthdate
	case d.IDImage == nil:
		return MsgIDImage
	}
	return ""
}

func (w *Wizard) submit(draft Draft, done chan struct{}) {
	defer close(done)

	err := w.deps.Submitter.Submit(w.ctx, w.sess.Address, draft)

	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		slog.Info("registration view closed before submission settled")
		return
	}
	if err != nil {
		w.step = StepBiometric
		w.errMsg = MsgSubmitFailed
	} else {
		w.step = StepDone
	}
	w.mu.Unlock()

	subject := session.Fingerprint(w.sess.Address, w.deps.Salt)
	kind, detail := db.KindRegistrationSubmitted, ""
	if err != nil {
		slog.Error("registration failed", "error", err)
		kind, detail = db.KindRegistrationFailed, err.Error()
	} else {
		slog.Info("registration submitted")
	}
	if w.deps.Journal != nil {
		if jerr := w.deps.Journal.Record(context.WithoutCancel(w.ctx), kind, subject, detail); jerr != nil {
			slog.Error("failed to journal registration outcome", "error", jerr)
		}
	}
}

// Back returns from the biometric step to personal information, keeping
// every field and stopping the camera
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(StepBiometric); err != nil {
		return err
	}
	w.stopCameraLocked()
	w.step = StepPersonal
	return nil
}

// StartCamera opens the camera for a face capture
func (w *Wizard) StartCamera() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(StepBiometric); err != nil {
		return err
	}
	if w.capture != CaptureIdle {
		return ErrWrongCapture
	}
	return w.startCameraLocked()
}

func (w *Wizard) startCameraLocked() error {
	w.capture = CaptureCapturing
	stream, err := w.deps.Camera.Open(w.ctx)
	if err != nil {
		slog.Warn("camera open failed", "error", err)
		w.capture = CaptureIdle
		w.errMsg = MsgCamera
		return fmt.Errorf("%w: %v", ErrCamera, err)
	}
	w.stream = stream
	w.errMsg = ""
	return nil
}

// Capture takes a still from the live stream, stores it as the face image
// and releases the camera
func (w *Wizard) Capture(ctx context.Context) error {
	w.mu.Lock()
	if err := w.usableLocked(StepBiometric); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.capture != CaptureCapturing {
		w.mu.Unlock()
		return ErrWrongCapture
	}
	stream := w.stream
	w.mu.Unlock()

	// No lock while waiting for a frame so Back and Close stay responsive
	frame, err := stream.Snapshot(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stream != stream || w.capture != CaptureCapturing {
		// stopped or restarted while we waited
		return ErrWrongCapture
	}
	if err != nil {
		w.stopCameraLocked()
		w.errMsg = MsgCamera
		return fmt.Errorf("%w: %v", ErrCamera, err)
	}
	w.draft.FaceImage = &Image{Data: frame.Data, ContentType: frame.ContentType}
	w.stopCameraLocked()
	w.capture = CaptureCaptured
	w.errMsg = ""
	return nil
}

// Retake discards the captured face image and reopens the camera
func (w *Wizard) Retake() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(StepBiometric); err != nil {
		return err
	}
	if w.capture != CaptureCaptured {
		return ErrWrongCapture
	}
	w.draft.FaceImage = nil
	return w.startCameraLocked()
}

// stopCameraLocked releases the live stream if any. A captured image keeps
// the Captured state; otherwise the camera returns to Idle.
func (w *Wizard) stopCameraLocked() {
	if w.stream != nil {
		if err := w.stream.Stop(); err != nil {
			slog.Warn("failed to stop camera stream", "error", err)
		}
		w.stream = nil
	}
	if w.capture == CaptureCapturing {
		w.capture = CaptureIdle
	}
}

func (w *Wizard) usableLocked(step Step) error {
	if w.ctx.Err() != nil {
		return ErrClosed
	}
	if w.step != step {
		return ErrWrongStep
	}
	return nil
}

// Wait blocks until the in-flight submission settles or ctx ends
func (w *Wizard) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.settled
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the camera. Called on every teardown path.
func (w *Wizard) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopCameraLocked()
	return nil
}
