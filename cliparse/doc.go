// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

Every flag falls back to an environment variable, then a default:

	-p               PORT               3318
	-t               DATABASE_TYPE      sqlite
	-d               DATABASE_URL       file:trustvote.db (sqlite only)
	-protocol        UPSTREAM_PROTOCOL  https
	-upstream        UPSTREAM_ORIGIN    api.trustvote.ph
	-timeout         UPSTREAM_TIMEOUT   10s
	-allow-origins   ALLOWED_ORIGINS    (none)
	-proxy           PROXY_URL          (in-process relay)
	-cors            CORS_ORIGINS       (all)
	-demo            DEMO_MODE          false
	-debug-journal   DEBUG_JOURNAL      false
	-delay           SIMULATED_DELAY    2s
	-view-ttl        VIEW_TTL           30m
	-contract        CONTRACT_ADDRESS   DefaultContractAddress
	-relay           WALLET_RELAY_URL   (votes refused; simulated in demo mode)
	-session-secret  SESSION_SECRET     required

CLI flags take precedence over environment variables. List values are
comma separated.

# Validation

ParseFlags returns an error when:

  - SESSION_SECRET is missing
  - DATABASE_TYPE is not sqlite or postgres
  - DATABASE_TYPE is postgres and no DATABASE_URL is given
  - UPSTREAM_PROTOCOL is not http or https
  - a duration or PORT does not parse
*/
package cliparse
