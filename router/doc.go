// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the TrustVote server.

# Route Registration

NewRouter builds every collaborator from configuration and returns the
full handler stack (CORS, then session, then the mux):

	handler := router.NewRouter(ctx, conn, cfg)

Cancelling ctx stops the view sweepers and tears down every open view.

# Endpoints

Plain:

	GET  /health         - Liveness
	POST /api/proxy      - Forward an allowlisted request upstream
	GET  /debug/journal  - Recent diagnostic events (demo mode or
	                       DEBUG_JOURNAL only, needs a wallet)

Pages (redirect to / without a wallet):

	GET /                  - Connection and registration status
	GET /elections         - Filtered election list (?status=&q=)
	GET /elections/{id}    - Open a ballot view
	GET /register          - Open a registration view
	GET /register/success  - Confirmation text

Ballot view actions (401 without a wallet):

	GET    /ballots/{view}
	POST   /ballots/{view}/select
	POST   /ballots/{view}/submit
	DELETE /ballots/{view}

Registration view actions (401 without a wallet):

	GET    /registrations/{view}
	PUT    /registrations/{view}/personal
	POST   /registrations/{view}/id-image
	POST   /registrations/{view}/next
	POST   /registrations/{view}/back
	POST   /registrations/{view}/camera/start
	POST   /registrations/{view}/camera/frame
	POST   /registrations/{view}/camera/capture
	POST   /registrations/{view}/camera/retake
	DELETE /registrations/{view}
*/
package router
