// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"errors"
	"strings"

	"github.com/danielhkuo/trustvote/models"
)

// StatusAll matches every election regardless of status
const StatusAll = "all"

var ErrUnknownStatus = errors.New("unknown status filter")

// Query selects a subset of an election collection
type Query struct {
	// Status is "all" or an exact status value
	Status string
	Search string
}

// Filter returns the elections matching q in their original order.
// An empty Status is treated as "all".
func Filter(elections []models.Election, q Query) ([]models.Election, error) {
	match, err := statusPredicate(q.Status)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(q.Search)
	filtered := make([]models.Election, 0, len(elections))
	for _, e := range elections {
		if !match(e.Status) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

func statusPredicate(status string) (func(models.Status) bool, error) {
	if status == "" || status == StatusAll {
		return func(models.Status) bool { return true }, nil
	}
	want, err := models.ParseStatus(status)
	if err != nil {
		return nil, ErrUnknownStatus
	}
	return func(s models.Status) bool { return s == want }, nil
}
