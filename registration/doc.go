// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package registration implements the two-step voter registration wizard.

# Steps

	personal ──Next──▶ biometric ──Next──▶ submitting ──▶ done
	    ▲                  │                   │
	    └──────Back────────┘◀──── failure ─────┘

Next from the personal step checks, in order, full name, voter ID,
birthdate and the ID image, and stops at the first failure with a single
message. Next from the biometric step needs a captured face image and a
connected wallet, then hands the draft to the Submitter on a goroutine.
A failed submission returns to the biometric step with every field kept.

# Camera

The biometric step owns a capture sub-state:

	idle ──StartCamera──▶ capturing ──Capture──▶ captured
	                          ▲                      │
	                          └───────Retake─────────┘

Entering capturing opens a capture.Stream; Capture, Back, a successful
Next and Close all stop it, so a closed wizard never holds the camera.

# Lifetimes

A wizard is bound to the context of its view. Once that context is
cancelled every method returns ErrClosed and a submission result that
arrives late is dropped.
*/
package registration
