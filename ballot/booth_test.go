// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/trustvote/chain"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/remote"
	"github.com/danielhkuo/trustvote/session"
)

const voterAddress = "0x00000000000000000000000000000000000000A1"

var connected = session.Session{Connected: true, Address: voterAddress}

// gatedTransactor blocks each Submit until release is closed
type gatedTransactor struct {
	release chan struct{}
	err     error

	mu    sync.Mutex
	calls []chain.Call
}

func newGated(err error) *gatedTransactor {
	return &gatedTransactor{release: make(chan struct{}), err: err}
}

func (g *gatedTransactor) Submit(ctx context.Context, from string, call chain.Call) (models.Vote, error) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()

	<-g.release
	if g.err != nil {
		return models.Vote{}, g.err
	}
	return models.Vote{ID: "v1", VoterAddress: from, TransactionHash: "0xabc"}, nil
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

func (m *memRecorder) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.kinds...)
}

func openBooth(t *testing.T, tx chain.Transactor, rec *memRecorder) (*Booth, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := NewBooth(ctx, connected, remote.SampleElection("1"), false, Deps{
		Contract:   "0xcontract",
		Transactor: tx,
		Journal:    rec,
		Salt:       "salt",
	})
	return b, cancel
}

func fill(b *Booth) {
	b.Select("pos1", "cand1")
	b.Select("pos2", "cand4")
}

func TestBooth_StateCall(t *testing.T) {
	b, _ := openBooth(t, newGated(nil), &memRecorder{})

	st := b.State()
	assert.True(t, st.CanVote)
	assert.False(t, st.Complete)
	assert.Nil(t, st.Call, "no call until the ballot is complete")
	assert.Equal(t, chain.StatusIdle, st.TxStatus)

	fill(b)
	st = b.State()
	require.NotNil(t, st.Call)
	assert.Equal(t, "vote", st.Call.FunctionName)
	assert.Equal(t, "0xcontract", st.Call.Address)
	assert.Equal(t, []interface{}{"1", []string{"cand1", "cand4"}}, st.Call.Args)
}

func TestBooth_SubmitSuccess(t *testing.T) {
	tx := newGated(nil)
	rec := &memRecorder{}
	b, _ := openBooth(t, tx, rec)
	fill(b)

	require.NoError(t, b.Submit())
	assert.Equal(t, chain.StatusPending, b.State().TxStatus)

	// Clicks while pending are ignored
	st := b.Select("pos1", "cand2")
	assert.Equal(t, []string{"cand1"}, st.Selections["pos1"])
	assert.ErrorIs(t, b.Submit(), ErrPending)

	close(tx.release)
	require.NoError(t, b.Wait(context.Background()))

	st = b.State()
	assert.Equal(t, chain.StatusSuccess, st.TxStatus)
	assert.True(t, st.HasVoted)
	assert.True(t, st.ShowConfirmation)
	assert.False(t, st.CanVote)
	require.NotNil(t, st.Receipt)
	assert.Equal(t, "0xabc", st.Receipt.TransactionHash)
	assert.Equal(t, []string{db.KindVoteSubmitted}, rec.Kinds())

	assert.ErrorIs(t, b.Submit(), ErrAlreadyVoted)
}

func TestBooth_SubmitFailure(t *testing.T) {
	tx := newGated(chain.ErrRejected)
	rec := &memRecorder{}
	b, _ := openBooth(t, tx, rec)
	fill(b)

	require.NoError(t, b.Submit())
	close(tx.release)
	require.NoError(t, b.Wait(context.Background()))

	st := b.State()
	assert.Equal(t, chain.StatusError, st.TxStatus)
	assert.Equal(t, SubmitFailedMessage, st.Error)
	assert.False(t, st.HasVoted)
	assert.True(t, st.CanVote, "voter may retry")
	assert.Equal(t, []string{db.KindVoteFailed}, rec.Kinds())
}

func TestBooth_LateResultDropped(t *testing.T) {
	tx := newGated(nil)
	rec := &memRecorder{}
	b, cancel := openBooth(t, tx, rec)
	fill(b)

	require.NoError(t, b.Submit())
	cancel()
	close(tx.release)
	require.NoError(t, b.Wait(context.Background()))

	st := b.State()
	assert.Equal(t, chain.StatusPending, st.TxStatus)
	assert.False(t, st.HasVoted)
	assert.Nil(t, st.Receipt)
	assert.Empty(t, rec.Kinds())
	assert.ErrorIs(t, b.Submit(), ErrClosed)
}

func TestBooth_SubmitRejected(t *testing.T) {
	tests := []struct {
		name     string
		sess     session.Session
		status   models.Status
		hasVoted bool
		fill     bool
		want     error
	}{
		{"not connected", session.Session{}, models.StatusActive, false, true, ErrNotConnected},
		{"incomplete", connected, models.StatusActive, false, false, ErrIncomplete},
		{"upcoming", connected, models.StatusUpcoming, false, false, ErrNotVotable},
		{"ended", connected, models.StatusEnded, false, false, ErrNotVotable},
		{"already voted", connected, models.StatusActive, true, false, ErrAlreadyVoted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := remote.SampleElection("1")
			e.Status = tt.status
			tx := newGated(nil)
			b := NewBooth(context.Background(), tt.sess, e, tt.hasVoted, Deps{Transactor: tx})
			if tt.fill {
				fill(b)
			}

			err := b.Submit()
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
			assert.Empty(t, tx.calls)
		})
	}
}

func TestBooth_WaitHonoursContext(t *testing.T) {
	tx := newGated(nil)
	b, _ := openBooth(t, tx, &memRecorder{})
	fill(b)
	require.NoError(t, b.Submit())
	defer close(tx.release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)
}
