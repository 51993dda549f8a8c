// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package views turns elections into display-ready values: status badges,
// dates, counts, turnout and per-candidate shares.
package views
