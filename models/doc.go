// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Data as the election API reports it (camelCase JSON):

  - Election: metadata, status, totals and positions
  - Position: a ballot question with MaxSelections
  - Candidate: name, party, image and vote count
  - Voter: registration details
  - Vote: a submitted ballot with its transaction hash

# Status

Status is a closed set. Unknown values are rejected when decoding:

	StatusUpcoming = "upcoming"
	StatusActive   = "active"
	StatusEnded    = "ended"

# Wire Types

Forwarding and election API bodies:

  - ForwardRequest: protocol, origin, path, method, body
  - ElectionsResponse, ElectionResponse
  - RegisteredResponse, HasVotedResponse, WalletRequest
  - RegisterVoterRequest: personal info plus both images
  - APIError: an upstream error body, detected with IsAPIError

# Request Types

  - SelectRequest: positionId, candidateId
  - PersonalInfoRequest: fullName, voterId, birthdate

# Response Types

  - ErrorResponse: error, message
*/
package models
