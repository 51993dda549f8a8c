// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for TrustVote.

Handlers are grouped by page:

  - HomeHandler: landing page status and the registration success page
  - ElectionHandler: the filtered election list
  - BallotHandler: opening an election page and its ballot view actions
  - RegistrationHandler: the registration wizard view and camera actions
  - JournalHandler: recent diagnostic journal events

Election pages and the registration wizard are stateful views. Opening the
page creates a view in a viewstate.Registry and returns its id; later
actions address /ballots/{view} or /registrations/{view}. A view belongs
to the wallet that opened it. DELETE tears it down, and idle views are
swept after the configured TTL.

All responses are JSON. Errors use the {error, message} shape written by
middleware.ErrorResponse. Validation failures return 422 with the full
view state so the page can show the inline message.

Submissions (vote and registration) answer 202 right away. Pass
?wait=true to block until the outcome is known and get 200 instead.
*/
package handlers
