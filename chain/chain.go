// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chain

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/trustvote/cliparse"
	"github.com/danielhkuo/trustvote/models"
)

// Status of a submitted transaction as rendered to the voter
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// BaseChainID is the chain the voting contract lives on
const BaseChainID = 8453

var ErrRejected = errors.New("transaction rejected")

// ABIParam is one input of an ABI function entry
type ABIParam struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ABIEntry describes a contract function
type ABIEntry struct {
	Type            string     `json:"type"`
	Name            string     `json:"name"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// VoteABI is vote(string electionId, string[] candidateIds)
var VoteABI = []ABIEntry{{
	Type: "function",
	Name: "vote",
	Inputs: []ABIParam{
		{Type: "string", Name: "electionId"},
		{Type: "string[]", Name: "candidateIds"},
	},
	Outputs:         []ABIParam{},
	StateMutability: "nonpayable",
}}

// Call is a contract call handed to the wallet
type Call struct {
	ChainID      int64         `json:"chainId"`
	Address      string        `json:"address"`
	ABI          []ABIEntry    `json:"abi"`
	FunctionName string        `json:"functionName"`
	Args         []interface{} `json:"args"`
}

// VoteCall builds the ballot transaction
func VoteCall(contract, electionID string, candidateIDs []string) Call {
	ids := make([]string, len(candidateIDs))
	copy(ids, candidateIDs)
	return Call{
		ChainID:      BaseChainID,
		Address:      contract,
		ABI:          VoteABI,
		FunctionName: "vote",
		Args:         []interface{}{electionID, ids},
	}
}

// Transactor submits calls on behalf of a connected wallet
type Transactor interface {
	Submit(ctx context.Context, from string, call Call) (models.Vote, error)
}

// Simulated waits and then reports success with a random hash. It stands
// in for the wallet in demo mode.
type Simulated struct {
	Delay time.Duration
}

func NewSimulated(cfg cliparse.Config) *Simulated {
	return &Simulated{Delay: cfg.SimulatedDelay}
}

func (s *Simulated) Submit(ctx context.Context, from string, call Call) (models.Vote, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.Vote{}, ctx.Err()
		case <-timer.C:
		}
	}

	hash := make([]byte, 32)
	if _, err := rand.Read(hash); err != nil {
		return models.Vote{}, fmt.Errorf("failed to generate transaction hash: %w", err)
	}

	electionID, candidateIDs := voteArgs(call)
	return models.Vote{
		ID:              uuid.NewString(),
		ElectionID:      electionID,
		VoterAddress:    from,
		CandidateIDs:    candidateIDs,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		TransactionHash: "0x" + hex.EncodeToString(hash),
	}, nil
}

// Relay posts calls to an external wallet relay and expects a Vote back
type Relay struct {
	url    string
	client *http.Client
}

func NewRelay(cfg cliparse.Config) *Relay {
	return &Relay{url: cfg.WalletRelayURL, client: &http.Client{Timeout: cfg.UpstreamTimeout}}
}

type relayRequest struct {
	From string `json:"from"`
	Call Call   `json:"call"`
}

func (r *Relay) Submit(ctx context.Context, from string, call Call) (models.Vote, error) {
	payload, err := json.Marshal(relayRequest{From: from, Call: call})
	if err != nil {
		return models.Vote{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Vote{}, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to read relay response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Vote{}, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var vote models.Vote
	if err := json.Unmarshal(body, &vote); err != nil {
		return models.Vote{}, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if vote.TransactionHash == "" {
		return models.Vote{}, fmt.Errorf("%w: no transaction hash", ErrRejected)
	}
	return vote, nil
}

// ErrNoRelay is returned for every call when no wallet relay is configured
var ErrNoRelay = fmt.Errorf("%w: no wallet relay configured", ErrRejected)

// Unavailable refuses every call
type Unavailable struct{}

func (Unavailable) Submit(context.Context, string, Call) (models.Vote, error) {
	return models.Vote{}, ErrNoRelay
}

// New picks the relay when one is configured. The simulator is only used
// in demo mode; otherwise calls are refused.
func New(cfg cliparse.Config) Transactor {
	switch {
	case cfg.WalletRelayURL != "":
		return NewRelay(cfg)
	case cfg.DemoMode:
		return NewSimulated(cfg)
	default:
		return Unavailable{}
	}
}

func voteArgs(call Call) (string, []string) {
	var electionID string
	var ids []string
	if len(call.Args) > 0 {
		electionID, _ = call.Args[0].(string)
	}
	if len(call.Args) > 1 {
		ids, _ = call.Args[1].([]string)
	}
	return electionID, ids
}
