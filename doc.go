// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the TrustVote server.

TrustVote is the server side of a blockchain voting front end: it lists
elections from the upstream election API, walks voters through
registration and casts ballots as contract calls from a connected wallet.

# Starting the Server

	SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -session-secret ... -demo

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - SESSION_SECRET (-session-secret): HMAC key for wallet session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): journal database (default: file:trustvote.db)
  - UPSTREAM_ORIGIN, UPSTREAM_PROTOCOL, ALLOWED_ORIGINS: forwarding
  - PROXY_URL: use an external forwarding proxy instead of the relay
  - DEMO_MODE (-demo): serve sample data when upstream reads fail
  - WALLET_RELAY_URL (-relay): where vote transactions are sent
  - CONTRACT_ADDRESS (-contract): voting contract address
  - VIEW_TTL (-view-ttl): idle lifetime of ballot and registration views

# Architecture

  - handlers: HTTP handlers per page
  - router: Route definitions using Go 1.22+ routing
  - middleware: logging, session, JSON helpers
  - ballot, registration: per-view state machines
  - catalog, views: list filtering and display formatting
  - remote, proxy: election API facade and request forwarding
  - chain, capture, session: wallet, transaction and camera boundaries
  - viewstate: view lifecycle registry
  - db: diagnostic journal
  - cliparse: Configuration parsing
*/
package main
