package models

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle stage of an election as reported by the API.
type Status int

const (
	StatusUpcoming Status = iota + 1
	StatusActive
	StatusEnded
)

var statusNames = map[Status]string{
	StatusUpcoming: "upcoming",
	StatusActive:   "active",
	StatusEnded:    "ended",
}

// Statuses lists every status in display order
var Statuses = []Status{StatusActive, StatusUpcoming, StatusEnded}

// ParseStatus converts a wire value to a Status
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown election status %q", s)
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown election status %d", int(s))
	}
	return json.Marshal(name)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Domain types

type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Party    string `json:"party"`
	Position string `json:"position"`
	ImageURL string `json:"imageUrl"`
	Votes    int    `json:"votes"`
}

type Position struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	MaxSelections int         `json:"maxSelections"`
	Candidates    []Candidate `json:"candidates"`
}

// HasCandidate reports whether candidateID is listed under the position
func (p Position) HasCandidate(candidateID string) bool {
	for _, c := range p.Candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

type Election struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	TotalVoters int        `json:"totalVoters"`
	TotalVotes  int        `json:"totalVotes"`
	Status      Status     `json:"status"`
	Positions   []Position `json:"positions,omitempty"`
}

// Validate checks the fields every view relies on
func (e Election) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("election without id")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("election %s has no known status", e.ID)
	}
	return nil
}

// Position looks up a position by ID
func (e *Election) Position(id string) (Position, bool) {
	for _, p := range e.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

type Voter struct {
	ID               string `json:"id"`
	WalletAddress    string `json:"walletAddress"`
	FullName         string `json:"fullName"`
	VoterID          string `json:"voterId"`
	Birthdate        string `json:"birthdate"`
	IsVerified       bool   `json:"isVerified"`
	RegistrationDate string `json:"registrationDate"`
}

type Vote struct {
	ID              string   `json:"id"`
	ElectionID      string   `json:"electionId"`
	VoterAddress    string   `json:"voterAddress"`
	CandidateIDs    []string `json:"candidateIds"`
	Timestamp       string   `json:"timestamp"`
	TransactionHash string   `json:"transactionHash"`
}

// Upstream API types

// APIError is the error envelope returned by the election API
type APIError struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IsAPIError reports whether a decoded JSON body is an API error envelope.
// Any object carrying an "error" key qualifies.
func IsAPIError(body []byte) (*APIError, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["error"]; !ok {
		return nil, false
	}
	var apiErr APIError
	// error may not be a string; keep whatever decodes
	_ = json.Unmarshal(body, &apiErr)
	return &apiErr, true
}

// ForwardRequest is the body accepted by the forwarding endpoint
type ForwardRequest struct {
	Protocol string `json:"protocol"`
	Origin   string `json:"origin"`
	Path     string `json:"path"`
	Method   string `json:"method"`
	Body     string `json:"body,omitempty"`
}

type ElectionsResponse struct {
	Elections []Election `json:"elections"`
}

// Validate rejects lists holding an election without a known status
func (r ElectionsResponse) Validate() error {
	for _, e := range r.Elections {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type ElectionResponse struct {
	Election *Election `json:"election"`
}

func (r ElectionResponse) Validate() error {
	if r.Election == nil {
		return nil
	}
	return r.Election.Validate()
}

type RegisteredResponse struct {
	IsRegistered bool `json:"isRegistered"`
}

type HasVotedResponse struct {
	HasVoted bool `json:"hasVoted"`
}

type WalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// RegisterVoterRequest is sent to the registration service. Images are
// base64 encoded by encoding/json.
type RegisterVoterRequest struct {
	WalletAddress string `json:"walletAddress"`
	FullName      string `json:"fullName"`
	VoterID       string `json:"voterId"`
	Birthdate     string `json:"birthdate"`
	IDImage       []byte `json:"idImage"`
	IDImageType   string `json:"idImageType"`
	FaceImage     []byte `json:"faceImage"`
	FaceImageType string `json:"faceImageType"`
}

// Request types

type SelectRequest struct {
	PositionID  string `json:"positionId"`
	CandidateID string `json:"candidateId"`
}

type PersonalInfoRequest struct {
	FullName  string `json:"fullName"`
	VoterID   string `json:"voterId"`
	Birthdate string `json:"birthdate"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
