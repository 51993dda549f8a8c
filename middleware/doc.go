// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Wallet Sessions

WithSession reads the wallet session once per request and stores it in
the context. Pages and actions then gate on it:

	mux.HandleFunc("GET /elections", middleware.RequireWallet(h.List))
	mux.HandleFunc("POST /ballots/{view}/select", middleware.RequireWalletAPI(h.Select))

RequireWallet redirects to / with 303 See Other; RequireWalletAPI answers
401 with a JSON error.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (capped at MaxJSONBody):

	var req models.SelectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request logs.
*/
package middleware
