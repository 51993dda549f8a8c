// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/trustvote/models"
	"github.com/danielhkuo/trustvote/session"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Accepted", http.StatusAccepted, `{"view_id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"BadGateway", http.StatusBadGateway, "upstream"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("GET", "/test", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, map[string]string{"view_id": "abc"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if got["view_id"] != "abc" {
		t.Errorf("Expected view_id abc, got %v", got)
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		status  int
		message string
		errText string
	}{
		{http.StatusBadRequest, "Invalid JSON", "Bad Request"},
		{http.StatusUnauthorized, "Wallet not connected", "Unauthorized"},
		{http.StatusBadGateway, "Election service unavailable", "Bad Gateway"},
	}

	for _, tc := range testCases {
		t.Run(tc.errText, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tc.status, tc.message)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if resp.Error != tc.errText {
				t.Errorf("Expected error '%s', got '%s'", tc.errText, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"positionId":"pos1","candidateId":"cand2"}`))
		var got models.SelectRequest
		if err := ParseJSONBody(req, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PositionID != "pos1" || got.CandidateID != "cand2" {
			t.Errorf("unexpected decode: %+v", got)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"positionId":`))
		var got models.SelectRequest
		if err := ParseJSONBody(req, &got); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"fullName":"` + strings.Repeat("a", MaxJSONBody) + `"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(big))
		var got models.PersonalInfoRequest
		if err := ParseJSONBody(req, &got); err == nil {
			t.Error("expected error for oversized body")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "192.168.1.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "192.168.1.1:1234", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.1:1234", "192.168.1.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

type staticReader session.Session

func (s staticReader) Read(*http.Request) session.Session {
	return session.Session(s)
}

func TestWithSession(t *testing.T) {
	want := session.Session{Connected: true, Address: "0x00000000000000000000000000000000000000A1"}

	var got session.Session
	handler := WithSession(staticReader(want), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got != want {
		t.Errorf("Expected %+v in context, got %+v", want, got)
	}
}

func TestRequireWallet(t *testing.T) {
	connected := session.Session{Connected: true, Address: "0x00000000000000000000000000000000000000A1"}

	testCases := []struct {
		name       string
		sess       session.Session
		wrap       func(http.HandlerFunc) http.HandlerFunc
		wantStatus int
		wantCalled bool
	}{
		{"page connected", connected, RequireWallet, http.StatusOK, true},
		{"page disconnected", session.Session{}, RequireWallet, http.StatusSeeOther, false},
		{"api connected", connected, RequireWalletAPI, http.StatusOK, true},
		{"api disconnected", session.Session{}, RequireWalletAPI, http.StatusUnauthorized, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			inner := tc.wrap(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			handler := WithSession(staticReader(tc.sess), inner)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/elections", nil))

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			if called != tc.wantCalled {
				t.Errorf("Expected called=%v, got %v", tc.wantCalled, called)
			}
			if tc.wantStatus == http.StatusSeeOther && w.Header().Get("Location") != "/" {
				t.Errorf("Expected redirect to /, got %q", w.Header().Get("Location"))
			}
		})
	}
}
