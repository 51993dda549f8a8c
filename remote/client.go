// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielhkuo/trustvote/cliparse"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/proxy"
)

var (
	ErrNotFound = errors.New("election not found")
	// ErrMalformed is a 2xx reply whose body breaks the election model
	ErrMalformed = errors.New("malformed election data")
)

type validator interface {
	Validate() error
}

// StatusError is a non-2xx reply, or a 2xx reply carrying an API error body
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	API        *models.APIError
}

func (e *StatusError) Error() string {
	if e.API != nil && e.API.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.API.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Journal records demo fallback activations
type Journal interface {
	RecordFallback(ctx context.Context, path, reason string) error
}

// Client talks to the election API through the forwarding boundary.
// Every call is a single attempt. With demo mode on, read failures are
// replaced by the sample data in sample.go.
type Client struct {
	fwd      proxy.Forwarder
	protocol string
	origin   string
	demo     bool
	journal  Journal
}

func NewClient(fwd proxy.Forwarder, cfg cliparse.Config, journal Journal) *Client {
	return &Client{
		fwd:      fwd,
		protocol: cfg.UpstreamProtocol,
		origin:   cfg.UpstreamOrigin,
		demo:     cfg.DemoMode,
		journal:  journal,
	}
}

// DemoMode reports whether sample data may be served
func (c *Client) DemoMode() bool {
	return c.demo
}

// Elections fetches every election
func (c *Client) Elections(ctx context.Context) ([]models.Election, error) {
	const path = "/api/elections"

	var out models.ElectionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		if err := c.fallback(ctx, path, err); err != nil {
			return nil, err
		}
		return SampleElections(), nil
	}
	if out.Elections == nil {
		return []models.Election{}, nil
	}
	return out.Elections, nil
}

// ActiveElections fetches the elections open for voting
func (c *Client) ActiveElections(ctx context.Context) ([]models.Election, error) {
	const path = "/api/elections/active"

	var out models.ElectionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		if err := c.fallback(ctx, path, err); err != nil {
			return nil, err
		}
		return SampleActiveElections(), nil
	}
	if out.Elections == nil {
		return []models.Election{}, nil
	}
	return out.Elections, nil
}

// Election fetches one election with its positions and candidates
func (c *Client) Election(ctx context.Context, id string) (*models.Election, error) {
	path := "/api/elections/" + url.PathEscape(id)

	var out models.ElectionResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		if err := c.fallback(ctx, path, err); err != nil {
			return nil, err
		}
		sample := SampleElection(id)
		return &sample, nil
	}
	if out.Election == nil {
		return nil, ErrNotFound
	}
	return out.Election, nil
}

// HasVoted asks whether address already voted in the election
func (c *Client) HasVoted(ctx context.Context, electionID, address string) (bool, error) {
	if address == "" || electionID == "" {
		return false, nil
	}
	path := "/api/elections/" + url.PathEscape(electionID) + "/check-vote"

	var out models.HasVotedResponse
	if err := c.do(ctx, http.MethodPost, path, models.WalletRequest{WalletAddress: address}, &out); err != nil {
		if err := c.fallback(ctx, path, err); err != nil {
			return false, err
		}
		return false, nil
	}
	return out.HasVoted, nil
}

// IsRegistered asks whether address belongs to a registered voter
func (c *Client) IsRegistered(ctx context.Context, address string) (bool, error) {
	const path = "/api/voters/check"

	var out models.RegisteredResponse
	if err := c.do(ctx, http.MethodPost, path, models.WalletRequest{WalletAddress: address}, &out); err != nil {
		if err := c.fallback(ctx, path, err); err != nil {
			return false, err
		}
		return false, nil
	}
	return out.IsRegistered, nil
}

// RegisterVoter submits a completed registration. Failures are never
// masked by demo data.
func (c *Client) RegisterVoter(ctx context.Context, req models.RegisterVoterRequest) error {
	return c.do(ctx, http.MethodPost, "/api/voters/register", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	req := models.ForwardRequest{
		Protocol: c.protocol,
		Origin:   c.origin,
		Path:     path,
		Method:   method,
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", path, err)
		}
		req.Body = string(body)
	}

	resp, err := c.fwd.Forward(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	apiErr, isErr := models.IsAPIError(resp.Body)
	if !resp.OK() || isErr {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, API: apiErr}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformed, err)
		}
	}
	return nil
}

// fallback decides whether a failed read may be answered with sample data.
// It returns nil when the caller should substitute its fixture.
func (c *Client) fallback(ctx context.Context, path string, cause error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !c.demo {
		return cause
	}

	slog.Warn("election API unavailable, serving sample data",
		"path", path,
		"error", cause,
		"demo_fallback", true,
	)
	if c.journal != nil {
		if err := c.journal.RecordFallback(ctx, path, cause.Error()); err != nil {
			slog.Error("failed to journal fallback", "path", path, "error", err)
		}
	}
	return nil
}
