// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package viewstate keeps the per-page state of open views.

A view lives from the request that opens a page until the browser tears
it down, it sits idle past the ttl, or the server stops:

	booths := viewstate.New[*ballot.Booth]("ballot", cfg.ViewTTL)
	go booths.Run(ctx, time.Minute)

	id, booth, err := booths.Open(sess.Owner(), func(ctx context.Context) (*ballot.Booth, error) {
		return ballot.NewBooth(ctx, sess, election, hasVoted, deps), nil
	})

Every path that removes a view cancels its context and calls Close.
Lookups are scoped to the owning wallet.
*/
package viewstate
