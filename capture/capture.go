// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capture

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

var (
	ErrBusy         = errors.New("camera already in use")
	ErrStopped      = errors.New("stream stopped")
	ErrNotStreaming = errors.New("no live stream")
	ErrNotImage     = errors.New("frame is not a JPEG or PNG image")
)

// Frame is one still from a video stream
type Frame struct {
	Data        []byte
	ContentType string
}

// Stream is a live video stream. Stop releases the device and is safe to
// call more than once.
type Stream interface {
	Snapshot(ctx context.Context) (Frame, error)
	Stop() error
}

// Camera hands out exclusive streams
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Relay is a camera fed by the browser: while a stream is open the page
// pushes preview frames and Snapshot returns the latest one. Only one
// stream may be open at a time.
type Relay struct {
	mu     sync.Mutex
	active *relayStream
}

func NewRelay() *Relay {
	return &Relay{}
}

func (r *Relay) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, ErrBusy
	}
	s := &relayStream{owner: r, ready: make(chan struct{})}
	r.active = s
	return s, nil
}

// Push delivers a preview frame to the open stream
func (r *Relay) Push(data []byte) error {
	ct := http.DetectContentType(data)
	if ct != "image/jpeg" && ct != "image/png" {
		return ErrNotImage
	}

	r.mu.Lock()
	s := r.active
	r.mu.Unlock()
	if s == nil {
		return ErrNotStreaming
	}
	return s.push(Frame{Data: data, ContentType: ct})
}

// Active reports whether a stream currently holds the device
func (r *Relay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

func (r *Relay) release(s *relayStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == s {
		r.active = nil
	}
}

type relayStream struct {
	owner *Relay

	mu      sync.Mutex
	latest  *Frame
	ready   chan struct{}
	stopped bool
}

func (s *relayStream) push(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	first := s.latest == nil
	s.latest = &f
	if first {
		close(s.ready)
	}
	return nil
}

// Snapshot waits for the first frame if none has arrived yet
func (s *relayStream) Snapshot(ctx context.Context) (Frame, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Frame{}, ErrStopped
	}
	data := make([]byte, len(s.latest.Data))
	copy(data, s.latest.Data)
	return Frame{Data: data, ContentType: s.latest.ContentType}, nil
}

func (s *relayStream) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.latest = nil
	select {
	case <-s.ready:
	default:
		// wake snapshots still waiting for a first frame
		close(s.ready)
	}
	s.mu.Unlock()

	s.owner.release(s)
	return nil
}
