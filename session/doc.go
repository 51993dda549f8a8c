// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session reads the wallet connection status.

The wallet gateway owns the connection lifecycle. It hands the browser an
HS256 token, either as a bearer token or in the wallet_session cookie,
whose "address" claim is the connected wallet:

	reader := session.NewReader(cfg)
	sess := reader.Read(r)
	if !sess.Connected {
		// redirect to /
	}

Tokens must carry an expiry. A missing, expired or malformed token, or an
address that is not 0x plus 40 hex digits, reads as disconnected.

# Fingerprints

Fingerprint hashes an address with HMAC-SHA256 so the diagnostic journal
can correlate events without storing wallet addresses:

	subject := session.Fingerprint(sess.Address, cfg.SessionSecret)
*/
package session
