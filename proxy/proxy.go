// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/trustvote/cliparse"
	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/models"
)

// MaxResponseBytes caps how much of an upstream body is relayed
const MaxResponseBytes = 4 << 20

var (
	ErrProtocol = errors.New("protocol must be http or https")
	ErrOrigin   = errors.New("origin is not allowed")
	ErrPath     = errors.New("path must start with /")
	ErrMethod   = errors.New("method is not allowed")
	ErrTooLarge = errors.New("upstream response too large")
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Response is an upstream reply as seen through the forwarding boundary
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Forwarder sends a forwarding request and returns the upstream reply.
// A non-2xx reply is not an error at this layer.
type Forwarder interface {
	Forward(ctx context.Context, req models.ForwardRequest) (*Response, error)
}

// Relay validates forwarding requests against an origin allow-list and
// performs them. It serves POST /api/proxy and is also used in-process
// by the remote facade.
type Relay struct {
	client  *http.Client
	origins map[string]bool
}

func NewRelay(cfg cliparse.Config) *Relay {
	origins := make(map[string]bool)
	origins[strings.ToLower(cfg.UpstreamOrigin)] = true
	for _, o := range cfg.AllowedOrigins {
		origins[strings.ToLower(o)] = true
	}
	return &Relay{
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
		origins: origins,
	}
}

// Validate checks a forwarding request without sending it
func (p *Relay) Validate(req models.ForwardRequest) error {
	if req.Protocol != "http" && req.Protocol != "https" {
		return ErrProtocol
	}
	if !p.origins[strings.ToLower(req.Origin)] {
		return fmt.Errorf("%w: %s", ErrOrigin, req.Origin)
	}
	if !strings.HasPrefix(req.Path, "/") || strings.HasPrefix(req.Path, "//") {
		return ErrPath
	}
	if !allowedMethods[strings.ToUpper(req.Method)] {
		return fmt.Errorf("%w: %s", ErrMethod, req.Method)
	}
	return nil
}

func (p *Relay) Forward(ctx context.Context, req models.ForwardRequest) (*Response, error) {
	if err := p.Validate(req); err != nil {
		return nil, err
	}

	target := req.Protocol + "://" + req.Origin + req.Path
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	upstreamReq.Header.Set("Accept", "application/json")
	if body != nil {
		upstreamReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.client.Do(upstreamReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if len(data) > MaxResponseBytes {
		return nil, ErrTooLarge
	}

	slog.Debug("forwarded request",
		"method", upstreamReq.Method,
		"origin", req.Origin,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// ServeHTTP handles POST /api/proxy
func (p *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.ForwardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := p.Forward(r.Context(), req)
	switch {
	case errors.Is(err, ErrProtocol), errors.Is(err, ErrPath), errors.Is(err, ErrMethod):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrOrigin):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		slog.Warn("proxy forward failed", "origin", req.Origin, "path", req.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Upstream request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

// Client forwards through a proxy endpoint running elsewhere
type Client struct {
	url    string
	client *http.Client
}

func NewClient(cfg cliparse.Config) *Client {
	return &Client{
		url:    cfg.ProxyURL,
		client: &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

func (c *Client) Forward(ctx context.Context, req models.ForwardRequest) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}
	if len(data) > MaxResponseBytes {
		return nil, ErrTooLarge
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// New returns the forwarder selected by configuration: the external proxy
// when PROXY_URL is set, otherwise the in-process relay.
func New(cfg cliparse.Config, relay *Relay) Forwarder {
	if cfg.ProxyURL != "" {
		return NewClient(cfg)
	}
	return relay
}
