// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/trustvote/models"
)

// Badge is how a status is drawn
type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// Badges covers every Status
var Badges = map[models.Status]Badge{
	models.StatusActive:   {Label: "Active", Tone: "green"},
	models.StatusUpcoming: {Label: "Upcoming", Tone: "blue"},
	models.StatusEnded:    {Label: "Ended", Tone: "gray"},
}

// UnknownBadge is drawn for a status missing from Badges
var UnknownBadge = Badge{Label: "Unknown", Tone: "gray"}

// BadgeFor returns the badge for s
func BadgeFor(s models.Status) Badge {
	if b, ok := Badges[s]; ok {
		return b
	}
	return UnknownBadge
}

// FormatDate renders an RFC 3339 timestamp as "October 30, 2023". Values
// that don't parse are returned unchanged.
func FormatDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format("January 2, 2006")
}

// Percent rounds part/whole to a whole percent, 0 when whole is 0
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// ElectionCard is one entry of an election list
type ElectionCard struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Badge       Badge  `json:"badge"`
	Dates       string `json:"dates"`
	Voters      string `json:"voters"`
	// Votes is empty for upcoming elections
	Votes string `json:"votes,omitempty"`
	Link  string `json:"link"`
}

// Card formats an election for a list
func Card(e models.Election) ElectionCard {
	c := ElectionCard{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status.String(),
		Badge:       BadgeFor(e.Status),
		Dates:       FormatDate(e.StartDate) + " - " + FormatDate(e.EndDate),
		Voters:      humanize.Comma(int64(e.TotalVoters)) + " registered voters",
		Link:        "/elections/" + e.ID,
	}
	if e.Status != models.StatusUpcoming {
		c.Votes = humanize.Comma(int64(e.TotalVotes)) + " votes cast (" +
			humanize.Comma(int64(Percent(e.TotalVotes, e.TotalVoters))) + "%)"
	}
	return c
}

// Cards formats a list
func Cards(elections []models.Election) []ElectionCard {
	cards := make([]ElectionCard, 0, len(elections))
	for _, e := range elections {
		cards = append(cards, Card(e))
	}
	return cards
}

// CandidateResult is a candidate's share of its position
type CandidateResult struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
	Percent     int    `json:"percent"`
}

type PositionResult struct {
	PositionID string            `json:"position_id"`
	Title      string            `json:"title"`
	Candidates []CandidateResult `json:"candidates"`
}

// Results summarizes the published tallies of an election
type Results struct {
	Turnout   int              `json:"turnout"`
	Positions []PositionResult `json:"positions"`
}

// Tally computes per-candidate shares and turnout
func Tally(e models.Election) Results {
	res := Results{
		Turnout:   Percent(e.TotalVotes, e.TotalVoters),
		Positions: make([]PositionResult, 0, len(e.Positions)),
	}
	for _, p := range e.Positions {
		total := 0
		for _, c := range p.Candidates {
			total += c.Votes
		}
		pr := PositionResult{PositionID: p.ID, Title: p.Title}
		for _, c := range p.Candidates {
			pr.Candidates = append(pr.Candidates, CandidateResult{
				CandidateID: c.ID,
				Name:        c.Name,
				Votes:       c.Votes,
				Percent:     Percent(c.Votes, total),
			})
		}
		res.Positions = append(res.Positions, pr)
	}
	return res
}

// Notice is the banner shown above a ballot
type Notice struct {
	Tone  string `json:"tone"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NoticeFor returns the ballot banner, if any
func NoticeFor(e models.Election, hasVoted bool) *Notice {
	switch {
	case hasVoted:
		return &Notice{
			Tone:  "green",
			Title: "You have already voted in this election",
			Body:  "Your vote has been securely recorded on the blockchain and cannot be changed.",
		}
	case e.Status == models.StatusUpcoming:
		return &Notice{
			Tone:  "blue",
			Title: "This election has not started yet",
			Body:  "Voting will begin on " + FormatDate(e.StartDate) + ". Please check back then to cast your vote.",
		}
	case e.Status == models.StatusEnded:
		return &Notice{
			Tone:  "yellow",
			Title: "This election has ended",
			Body:  "Voting closed on " + FormatDate(e.EndDate) + ". You did not participate in this election.",
		}
	}
	return nil
}
