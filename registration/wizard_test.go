// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/trustvote/capture"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/session"
)

var (
	connected = session.Session{Connected: true, Address: "0x00000000000000000000000000000000000000A1"}
	pngFrame  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	idImage   = Image{Data: []byte("id"), ContentType: "image/jpeg"}
)

type stubSubmitter struct {
	err error

	mu     sync.Mutex
	drafts []Draft
}

func (s *stubSubmitter) Submit(_ context.Context, _ string, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = append(s.drafts, d)
	return s.err
}

type memRecorder struct {
	mu    sync.Mutex
	kinds []string
}

func (m *memRecorder) Record(_ context.Context, kind, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
	return nil
}

type brokenCamera struct{}

func (brokenCamera) Open(context.Context) (capture.Stream, error) {
	return nil, errors.New("permission denied")
}

func newWizard(t *testing.T, cam capture.Camera, sub Submitter) (*Wizard, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewWizard(ctx, connected, Deps{Camera: cam, Submitter: sub, Journal: &memRecorder{}, Salt: "salt"}), cancel
}

func completePersonal(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.SetPersonal("Juan Dela Cruz", "VID-123", "1990-01-01"))
	require.NoError(t, w.AttachIDImage(idImage))
	require.NoError(t, w.Next())
}

// captureFace runs the camera flow on a relay and returns once captured
func captureFace(t *testing.T, w *Wizard, cam *capture.Relay) {
	t.Helper()
	require.NoError(t, w.StartCamera())
	require.NoError(t, cam.Push(pngFrame))
	require.NoError(t, w.Capture(context.Background()))
}

func TestWizard_PersonalValidation(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		voterID   string
		birthdate string
		image     bool
		want      string
	}{
		{"missing name", "", "VID-1", "1990-01-01", true, MsgFullName},
		{"blank name", "   ", "VID-1", "1990-01-01", true, MsgFullName},
		{"missing voter id", "Juan", "", "1990-01-01", true, MsgVoterID},
		{"missing birthdate", "Juan", "VID-1", "", true, MsgBirthdate},
		{"missing id image", "Juan", "VID-1", "1990-01-01", false, MsgIDImage},
		{"first failure wins", "", "", "", false, MsgFullName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newWizard(t, capture.NewRelay(), &stubSubmitter{})
			require.NoError(t, w.SetPersonal(tt.fullName, tt.voterID, tt.birthdate))
			if tt.image {
				require.NoError(t, w.AttachIDImage(idImage))
			}

			err := w.Next()
			assert.ErrorIs(t, err, ErrInvalid)
			st := w.State()
			assert.Equal(t, tt.want, st.Error)
			assert.Equal(t, StepPersonal, st.Step)
		})
	}
}

func TestWizard_BackPreservesFields(t *testing.T) {
	cam := capture.NewRelay()
	w, _ := newWizard(t, cam, &stubSubmitter{})
	completePersonal(t, w)
	assert.Equal(t, StepBiometric, w.State().Step)

	require.NoError(t, w.StartCamera())
	require.True(t, cam.Active())

	require.NoError(t, w.Back())
	st := w.State()
	assert.Equal(t, StepPersonal, st.Step)
	assert.Equal(t, "Juan Dela Cruz", st.FullName)
	assert.Equal(t, "VID-123", st.VoterID)
	assert.Equal(t, "1990-01-01", st.Birthdate)
	assert.True(t, st.HasIDImage)
	assert.False(t, cam.Active(), "back must release the camera")
	assert.Equal(t, CaptureIdle, st.Capture)
}

func TestWizard_WrongStep(t *testing.T) {
	w, _ := newWizard(t, capture.NewRelay(), &stubSubmitter{})

	assert.ErrorIs(t, w.Back(), ErrWrongStep)
	assert.ErrorIs(t, w.StartCamera(), ErrWrongStep)
	assert.ErrorIs(t, w.Retake(), ErrWrongStep)

	completePersonal(t, w)
	assert.ErrorIs(t, w.SetPersonal("a", "b", "c"), ErrWrongStep)
	assert.ErrorIs(t, w.AttachIDImage(idImage), ErrWrongStep)
	assert.ErrorIs(t, w.Capture(context.Background()), ErrWrongCapture)
	assert.ErrorIs(t, w.Retake(), ErrWrongCapture)
}

func TestWizard_CaptureAndRetake(t *testing.T) {
	cam := capture.NewRelay()
	w, _ := newWizard(t, cam, &stubSubmitter{})
	completePersonal(t, w)

	captureFace(t, w, cam)
	st := w.State()
	assert.Equal(t, CaptureCaptured, st.Capture)
	assert.True(t, st.HasFaceImage)
	assert.False(t, cam.Active(), "capture must release the camera")

	require.NoError(t, w.Retake())
	st = w.State()
	assert.Equal(t, CaptureCapturing, st.Capture)
	assert.False(t, st.HasFaceImage)
	assert.True(t, cam.Active())
}

func TestWizard_CameraFailure(t *testing.T) {
	w, _ := newWizard(t, brokenCamera{}, &stubSubmitter{})
	completePersonal(t, w)

	err := w.StartCamera()
	assert.ErrorIs(t, err, ErrCamera)
	st := w.State()
	assert.Equal(t, MsgCamera, st.Error)
	assert.Equal(t, CaptureIdle, st.Capture)
	assert.Equal(t, StepBiometric, st.Step)
}

func TestWizard_TeardownReleasesCamera(t *testing.T) {
	cam := capture.NewRelay()
	w, cancel := newWizard(t, cam, &stubSubmitter{})
	completePersonal(t, w)
	require.NoError(t, w.StartCamera())
	require.True(t, cam.Active())

	cancel()
	require.NoError(t, w.Close())
	assert.False(t, cam.Active())
	assert.ErrorIs(t, w.StartCamera(), ErrClosed)
}

func TestWizard_CaptureUnblocksOnClose(t *testing.T) {
	cam := capture.NewRelay()
	w, _ := newWizard(t, cam, &stubSubmitter{})
	completePersonal(t, w)
	require.NoError(t, w.StartCamera())

	errc := make(chan error, 1)
	go func() { errc <- w.Capture(context.Background()) }()

	// No frame ever arrives; closing the view must not leave Capture hanging
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, w.Close())

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Capture did not return after Close")
	}
	assert.False(t, cam.Active())
}

func TestWizard_NextNeedsFace(t *testing.T) {
	w, _ := newWizard(t, capture.NewRelay(), &stubSubmitter{})
	completePersonal(t, w)

	assert.ErrorIs(t, w.Next(), ErrInvalid)
	assert.Equal(t, MsgFaceImage, w.State().Error)
	assert.Equal(t, StepBiometric, w.State().Step)
}

func TestWizard_SubmitSuccess(t *testing.T) {
	cam := capture.NewRelay()
	sub := &stubSubmitter{}
	rec := &memRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWizard(ctx, connected, Deps{Camera: cam, Submitter: sub, Journal: rec})

	completePersonal(t, w)
	captureFace(t, w, cam)
	require.NoError(t, w.Next())
	require.NoError(t, w.Wait(context.Background()))

	st := w.State()
	assert.Equal(t, StepDone, st.Step)
	assert.Equal(t, SuccessPath, st.Redirect)
	require.Len(t, sub.drafts, 1)
	assert.Equal(t, "VID-123", sub.drafts[0].VoterID)
	require.NotNil(t, sub.drafts[0].FaceImage)
	assert.Equal(t, "image/png", sub.drafts[0].FaceImage.ContentType)
	assert.Equal(t, []string{db.KindRegistrationSubmitted}, rec.kinds)
}

func TestWizard_SubmitFailureReturnsToBiometric(t *testing.T) {
	cam := capture.NewRelay()
	w, _ := newWizard(t, cam, &stubSubmitter{err: errors.New("upstream 500")})

	completePersonal(t, w)
	captureFace(t, w, cam)
	require.NoError(t, w.Next())
	require.NoError(t, w.Wait(context.Background()))

	st := w.State()
	assert.Equal(t, StepBiometric, st.Step)
	assert.Equal(t, MsgSubmitFailed, st.Error)
	assert.True(t, st.HasFaceImage, "captured image is kept for a retry")
}

func TestWizard_SubmitNeedsWallet(t *testing.T) {
	cam := capture.NewRelay()
	w := NewWizard(context.Background(), session.Session{}, Deps{Camera: cam, Submitter: &stubSubmitter{}})

	completePersonal(t, w)
	captureFace(t, w, cam)
	assert.ErrorIs(t, w.Next(), ErrNotConnected)
	assert.Equal(t, StepBiometric, w.State().Step)
}
