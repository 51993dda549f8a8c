// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package remote

import "github.com/danielhkuo/trustvote/models"

// Demo data served when DEMO_MODE is on and the election API is unreachable.
// Callers get fresh copies so views can't mutate the fixtures.

// SampleElections returns the demo election list
func SampleElections() []models.Election {
	return []models.Election{
		{
			ID:          "1",
			Title:       "Barangay Elections 2023",
			Description: "Vote for your local Barangay officials",
			StartDate:   "2023-10-30T00:00:00Z",
			EndDate:     "2023-10-30T23:59:59Z",
			TotalVoters: 1500,
			TotalVotes:  750,
			Status:      models.StatusActive,
		},
		{
			ID:          "2",
			Title:       "City Council Elections",
			Description: "Vote for your city council representatives",
			StartDate:   "2023-11-15T00:00:00Z",
			EndDate:     "2023-11-15T23:59:59Z",
			TotalVoters: 5000,
			TotalVotes:  0,
			Status:      models.StatusUpcoming,
		},
		{
			ID:          "3",
			Title:       "Provincial Governor Elections",
			Description: "Vote for your provincial governor",
			StartDate:   "2023-09-01T00:00:00Z",
			EndDate:     "2023-09-01T23:59:59Z",
			TotalVoters: 10000,
			TotalVotes:  7500,
			Status:      models.StatusEnded,
		},
		{
			ID:          "4",
			Title:       "School Board Elections",
			Description: "Vote for your local school board representatives",
			StartDate:   "2023-12-05T00:00:00Z",
			EndDate:     "2023-12-05T23:59:59Z",
			TotalVoters: 3000,
			TotalVotes:  0,
			Status:      models.StatusUpcoming,
		},
		{
			ID:          "5",
			Title:       "Community Association Elections",
			Description: "Vote for your community association leaders",
			StartDate:   "2023-10-15T00:00:00Z",
			EndDate:     "2023-10-15T23:59:59Z",
			TotalVoters: 500,
			TotalVotes:  350,
			Status:      models.StatusEnded,
		},
	}
}

// SampleActiveElections returns the demo list for the home page widget
func SampleActiveElections() []models.Election {
	all := SampleElections()
	return []models.Election{all[0], all[1]}
}

// SampleElection returns the demo ballot, keyed to the requested id
func SampleElection(id string) models.Election {
	return models.Election{
		ID:          id,
		Title:       "Barangay Elections 2023",
		Description: "Vote for your local Barangay officials for the term 2023-2026. Your vote matters in shaping the future of your community.",
		StartDate:   "2023-10-30T00:00:00Z",
		EndDate:     "2023-10-30T23:59:59Z",
		TotalVoters: 1500,
		TotalVotes:  750,
		Status:      models.StatusActive,
		Positions: []models.Position{
			{
				ID:            "pos1",
				Title:         "Barangay Captain",
				MaxSelections: 1,
				Candidates: []models.Candidate{
					{ID: "cand1", Name: "Maria Santos", Party: "Unity Party", Position: "Barangay Captain", ImageURL: "/candidates/maria.jpg", Votes: 320},
					{ID: "cand2", Name: "Juan Dela Cruz", Party: "Progress Party", Position: "Barangay Captain", ImageURL: "/candidates/juan.jpg", Votes: 280},
					{ID: "cand3", Name: "Pedro Reyes", Party: "Independent", Position: "Barangay Captain", ImageURL: "/candidates/pedro.jpg", Votes: 150},
				},
			},
			{
				ID:            "pos2",
				Title:         "Barangay Councilor",
				MaxSelections: 3,
				Candidates: []models.Candidate{
					{ID: "cand4", Name: "Ana Gonzales", Party: "Unity Party", Position: "Barangay Councilor", ImageURL: "/candidates/ana.jpg", Votes: 400},
					{ID: "cand5", Name: "Roberto Lim", Party: "Progress Party", Position: "Barangay Councilor", ImageURL: "/candidates/roberto.jpg", Votes: 350},
					{ID: "cand6", Name: "Elena Magtanggol", Party: "Unity Party", Position: "Barangay Councilor", ImageURL: "/candidates/elena.jpg", Votes: 300},
					{ID: "cand7", Name: "Carlos Bautista", Party: "Independent", Position: "Barangay Councilor", ImageURL: "/candidates/carlos.jpg", Votes: 250},
					{ID: "cand8", Name: "Sophia Reyes", Party: "Progress Party", Position: "Barangay Councilor", ImageURL: "/candidates/sophia.jpg", Votes: 200},
				},
			},
		},
	}
}
