// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package viewstate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	ctx    context.Context
	closed atomic.Int32
}

func (v *fakeView) Close() error {
	v.closed.Add(1)
	return nil
}

func build(ctx context.Context) (*fakeView, error) {
	return &fakeView{ctx: ctx}, nil
}

func TestRegistry_OpenGetClose(t *testing.T) {
	r := New[*fakeView]("test", time.Minute)

	id, v, err := r.Open("alice", build)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(id, "alice")
	require.NoError(t, err)
	assert.Same(t, v, got)

	require.NoError(t, r.Close(id, "alice"))
	assert.Equal(t, int32(1), v.closed.Load())
	assert.Error(t, v.ctx.Err(), "view context must be cancelled on close")
	assert.Equal(t, 0, r.Len())

	_, err = r.Get(id, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Close(id, "alice"), ErrNotFound)
}

func TestRegistry_OwnerIsolation(t *testing.T) {
	r := New[*fakeView]("test", time.Minute)
	id, v, err := r.Open("alice", build)
	require.NoError(t, err)

	_, err = r.Get(id, "mallory")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Close(id, "mallory"), ErrNotFound)
	assert.Equal(t, int32(0), v.closed.Load())
	assert.NoError(t, v.ctx.Err())
}

func TestRegistry_BuildError(t *testing.T) {
	r := New[*fakeView]("test", time.Minute)
	var captured context.Context
	_, _, err := r.Open("alice", func(ctx context.Context) (*fakeView, error) {
		captured = ctx
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Error(t, captured.Err(), "failed build must not leak its context")
}

func TestRegistry_Sweep(t *testing.T) {
	r := New[*fakeView]("test", time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	touchedID, touched, _ := r.Open("alice", build)
	now = now.Add(45 * time.Second)
	idleID, idle, _ := r.Open("alice", build)

	// Touching a view keeps it alive
	now = now.Add(30 * time.Second)
	_, err := r.Get(touchedID, "alice")
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Equal(t, int32(0), touched.closed.Load())

	_, err = r.Get(idleID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_NoTTL(t *testing.T) {
	r := New[*fakeView]("test", 0)
	r.Open("alice", build)
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunClosesAllOnShutdown(t *testing.T) {
	r := New[*fakeView]("test", time.Minute)
	_, a, _ := r.Open("alice", build)
	_, b, _ := r.Open("bob", build)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, int32(1), a.closed.Load())
	assert.Equal(t, int32(1), b.closed.Load())
}
