// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielhkuo/trustvote/chain"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/session"
)

// Message shown when the transaction boundary reports a failure
const SubmitFailedMessage = "Failed to submit your vote. Please try again."

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNotVotable   = errors.New("election is not open for voting")
	ErrAlreadyVoted = errors.New("ballot already cast")
	ErrIncomplete   = errors.New("every position needs a selection")
	ErrPending      = errors.New("a submission is already in flight")
	ErrClosed       = errors.New("ballot view closed")
)

// Recorder receives submission outcomes for the diagnostic journal
type Recorder interface {
	Record(ctx context.Context, kind, subject, detail string) error
}

// Deps are the collaborators a booth submits through
type Deps struct {
	Contract   string
	Transactor chain.Transactor
	Journal    Recorder
	// Salt keys wallet fingerprints in the journal
	Salt string
}

// Booth is one open election page: the selection, the vote status and the
// transaction status. All methods are safe for concurrent use; each one
// applies atomically.
type Booth struct {
	mu sync.Mutex

	ctx       context.Context
	sess      session.Session
	election  models.Election
	selection *Selection
	deps      Deps

	status    chain.Status
	errMsg    string
	confirmed bool
	receipt   *models.Vote
	settled   chan struct{}
}

// NewBooth opens a booth bound to ctx. Cancelling ctx closes the booth and
// discards any submission result that arrives afterwards.
func NewBooth(ctx context.Context, sess session.Session, election models.Election, hasVoted bool, deps Deps) *Booth {
	return &Booth{
		ctx:       ctx,
		sess:      sess,
		election:  election,
		selection: NewSelection(election, hasVoted),
		deps:      deps,
		status:    chain.StatusIdle,
	}
}

// State is a rendering snapshot of a booth
type State struct {
	Election         models.Election     `json:"election"`
	Selections       map[string][]string `json:"selections"`
	CanVote          bool                `json:"can_vote"`
	Complete         bool                `json:"complete"`
	HasVoted         bool                `json:"has_voted"`
	TxStatus         chain.Status        `json:"tx_status"`
	Error            string              `json:"error,omitempty"`
	ShowConfirmation bool                `json:"show_confirmation"`
	Receipt          *models.Vote        `json:"receipt,omitempty"`
	Call             *chain.Call         `json:"call,omitempty"`
}

// State returns the current snapshot
func (b *Booth) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Booth) stateLocked() State {
	st := State{
		Election:         b.election,
		Selections:       b.selection.Snapshot(),
		CanVote:          b.selection.Open(),
		Complete:         b.selection.Complete(),
		HasVoted:         b.selection.Voted(),
		TxStatus:         b.status,
		Error:            b.errMsg,
		ShowConfirmation: b.confirmed,
		Receipt:          b.receipt,
	}
	if st.CanVote && st.Complete {
		call := chain.VoteCall(b.deps.Contract, b.election.ID, b.selection.CandidateIDs())
		st.Call = &call
	}
	return st
}

// Select toggles a candidate and returns the new snapshot. Clicks on a
// closed, voted or in-flight ballot are ignored.
func (b *Booth) Select(positionID, candidateID string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() == nil && b.status != chain.StatusPending {
		b.selection.Select(positionID, candidateID)
	}
	return b.stateLocked()
}

// Submit hands the ballot to the transaction boundary and returns at once
// with the booth in the pending state. Use Wait to block until it settles.
func (b *Booth) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.ctx.Err() != nil:
		return ErrClosed
	case !b.sess.Connected:
		return ErrNotConnected
	case b.status == chain.StatusPending:
		return ErrPending
	case b.selection.Voted():
		return ErrAlreadyVoted
	case !b.selection.Open():
		return ErrNotVotable
	case !b.selection.Complete():
		return ErrIncomplete
	}

	call := chain.VoteCall(b.deps.Contract, b.election.ID, b.selection.CandidateIDs())
	b.status = chain.StatusPending
	b.errMsg = ""
	done := make(chan struct{})
	b.settled = done

	go b.submit(call, done)
	return nil
}

func (b *Booth) submit(call chain.Call, done chan struct{}) {
	defer close(done)

	vote, err := b.deps.Transactor.Submit(b.ctx, b.sess.Address, call)

	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		slog.Info("ballot view closed before submission settled", "election_id", b.election.ID)
		return
	}
	if err != nil {
		b.status = chain.StatusError
		b.errMsg = SubmitFailedMessage
	} else {
		b.status = chain.StatusSuccess
		b.selection.MarkVoted()
		b.confirmed = true
		b.receipt = &vote
	}
	b.mu.Unlock()

	subject := session.Fingerprint(b.sess.Address, b.deps.Salt)
	kind, detail := db.KindVoteSubmitted, vote.TransactionHash
	if err != nil {
		slog.Error("vote submission failed", "election_id", b.election.ID, "error", err)
		kind, detail = db.KindVoteFailed, err.Error()
	} else {
		slog.Info("vote submitted", "election_id", b.election.ID, "tx_hash", vote.TransactionHash)
	}
	if b.deps.Journal != nil {
		if jerr := b.deps.Journal.Record(context.WithoutCancel(b.ctx), kind, subject, b.election.ID+" "+detail); jerr != nil {
			slog.Error("failed to journal vote outcome", "error", jerr)
		}
	}
}

// Wait blocks until the in-flight submission settles or ctx ends
func (b *Booth) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.settled
	b.mu.Unlock()
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

// Close has nothing to release; the booth's context is owned by the
// registry that opened it.
func (b *Booth) Close() error {
	return nil
}
