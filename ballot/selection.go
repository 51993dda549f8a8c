// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import "github.com/danielhkuo/trustvote/models"

// Selection tracks the candidates a voter has picked per position.
// It is not safe for concurrent use; Booth serializes access.
type Selection struct {
	election models.Election
	picks    map[string][]string
	voted    bool
}

// NewSelection starts an empty selection for election. hasVoted freezes it.
func NewSelection(election models.Election, hasVoted bool) *Selection {
	return &Selection{
		election: election,
		picks:    make(map[string][]string),
		voted:    hasVoted,
	}
}

// Open reports whether selections may change
func (s *Selection) Open() bool {
	return s.election.Status == models.StatusActive && !s.voted
}

// Select applies a voter's click on a candidate and reports whether the
// selection changed. Single-choice positions replace; multi-choice
// positions toggle, dropping additions beyond maxSelections.
func (s *Selection) Select(positionID, candidateID string) bool {
	if !s.Open() {
		return false
	}
	position, ok := s.election.Position(positionID)
	if !ok || !position.HasCandidate(candidateID) {
		return false
	}

	current := s.picks[positionID]

	if position.MaxSelections <= 1 {
		if len(current) == 1 && current[0] == candidateID {
			return false
		}
		s.picks[positionID] = []string{candidateID}
		return true
	}

	for i, id := range current {
		if id == candidateID {
			s.picks[positionID] = append(current[:i:i], current[i+1:]...)
			return true
		}
	}
	if len(current) >= position.MaxSelections {
		return false
	}
	s.picks[positionID] = append(current, candidateID)
	return true
}

// IsSelected reports whether candidateID is picked for positionID
func (s *Selection) IsSelected(positionID, candidateID string) bool {
	for _, id := range s.picks[positionID] {
		if id == candidateID {
			return true
		}
	}
	return false
}

// Picks returns a copy of the picks for positionID in selection order
func (s *Selection) Picks(positionID string) []string {
	out := make([]string, len(s.picks[positionID]))
	copy(out, s.picks[positionID])
	return out
}

// Complete holds when every position has at least one pick
func (s *Selection) Complete() bool {
	for _, p := range s.election.Positions {
		if len(s.picks[p.ID]) == 0 {
			return false
		}
	}
	return true
}

// CandidateIDs flattens the picks in ballot position order
func (s *Selection) CandidateIDs() []string {
	var ids []string
	for _, p := range s.election.Positions {
		ids = append(ids, s.picks[p.ID]...)
	}
	return ids
}

// Snapshot copies the mapping for rendering
func (s *Selection) Snapshot() map[string][]string {
	out := make(map[string][]string, len(s.election.Positions))
	for _, p := range s.election.Positions {
		out[p.ID] = s.Picks(p.ID)
	}
	return out
}

// MarkVoted freezes the selection
func (s *Selection) MarkVoted() {
	s.voted = true
}

// Voted reports whether the voter has already cast this ballot
func (s *Selection) Voted() bool {
	return s.voted
}
