// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/trustvote/cliparse"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/session"
)

// TestSecret signs wallet session tokens in tests
const TestSecret = "test-session-secret"

// TestAddress is a well-formed wallet address
const TestAddress = "0x00000000000000000000000000000000000000A1"

// SetupTestDB opens a fresh in-memory journal database with the schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Each connection to :memory: is its own database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     "sqlite",
		DatabaseURL:      ":memory:",
		UpstreamProtocol: "http",
		UpstreamOrigin:   "upstream.invalid",
		UpstreamTimeout:  2 * time.Second,
		SimulatedDelay:   0,
		SessionSecret:    TestSecret,
		ContractAddress:  cliparse.DefaultContractAddress,
		ViewTTL:          time.Minute,
	}
}

// WalletToken signs a session token for address, valid for an hour
func WalletToken(t *testing.T, secret, address string) string {
	t.Helper()

	claims := session.Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign wallet token: %v", err)
	}
	return token
}

// WalletHeaders returns request headers carrying a connected wallet
func WalletHeaders(t *testing.T, address string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + WalletToken(t, TestSecret, address)}
}

// Upstream is a fake election API. Fields may be changed between requests.
type Upstream struct {
	mu         sync.Mutex
	Elections  []models.Election
	Registered bool
	Voted      bool
	// Fail makes every request answer 500
	Fail          bool
	Registrations []models.RegisterVoterRequest
	// raw bodies served verbatim by path, ahead of the fake handlers
	raw map[string]string

	Server *httptest.Server
}

// NewUpstream starts a fake election API serving elections
func NewUpstream(t *testing.T, elections []models.Election) *Upstream {
	t.Helper()

	u := &Upstream{Elections: elections}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/elections", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, models.ElectionsResponse{Elections: u.Elections})
	})
	mux.HandleFunc("GET /api/elections/active", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		active := []models.Election{}
		for _, e := range u.Elections {
			if e.Status == models.StatusActive {
				active = append(active, e)
			}
		}
		writeJSON(w, models.ElectionsResponse{Elections: active})
	})
	mux.HandleFunc("GET /api/elections/{id}", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		for i := range u.Elections {
			if u.Elections[i].ID == r.PathValue("id") {
				writeJSON(w, models.ElectionResponse{Election: &u.Elections[i]})
				return
			}
		}
		writeJSON(w, models.ElectionResponse{})
	})
	mux.HandleFunc("POST /api/elections/{id}/check-vote", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, models.HasVotedResponse{HasVoted: u.Voted})
	})
	mux.HandleFunc("POST /api/voters/check", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, models.RegisteredResponse{IsRegistered: u.Registered})
	})
	mux.HandleFunc("POST /api/voters/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterVoterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		u.Registrations = append(u.Registrations, req)
		writeJSON(w, map[string]bool{"success": true})
	})

	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		fail := u.Fail
		body, isRaw := u.raw[r.URL.Path]
		u.mu.Unlock()
		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, models.APIError{Error: "internal", Message: "upstream down"})
			return
		}
		if isRaw {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Server.Close)
	return u
}

// SetFail toggles upstream failures
func (u *Upstream) SetFail(fail bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Fail = fail
}

// SetRaw makes path answer 200 with body as is
func (u *Upstream) SetRaw(path, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.raw == nil {
		u.raw = map[string]string{}
	}
	u.raw[path] = body
}

// SetVoted sets the has-voted answer
func (u *Upstream) SetVoted(voted bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Voted = voted
}

// SetRegistered sets the is-registered answer
func (u *Upstream) SetRegistered(registered bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Registered = registered
}

// RegistrationCount reports how many registrations were received
func (u *Upstream) RegistrationCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Registrations)
}

// Configure points cfg at the fake upstream
func (u *Upstream) Configure(cfg cliparse.Config) cliparse.Config {
	parsed, _ := url.Parse(u.Server.URL)
	cfg.UpstreamProtocol = parsed.Scheme
	cfg.UpstreamOrigin = parsed.Host
	return cfg
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	json.NewEncoder(w).Encode(v)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeRawRequest creates a request with a raw body
func MakeRawRequest(method, path, contentType string, body []byte, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// PNG is a minimal image that content sniffing reports as image/png
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

