package buglist

import (
	"github.com/samber/lo"

	"github.com/joescharf/bugfix/internal/models"
)

// DateClass marks a record's position relative to the list's date
// extremes.
type DateClass string

const (
	DateOldest DateClass = "oldest"
	DateNewest DateClass = "newest"
	DateNone   DateClass = "none"
)

// Extremes holds the oldest and newest creation dates of a record set
// and a per-record classification against them.
type Extremes struct {
	Oldest  models.Date
	Newest  models.Date
	Classes map[int64]DateClass
}

// DateExtremes scans the given records' creation dates and classifies
// each record against the minimum and maximum. The computation is
// derived strictly from the slice passed in; nothing is carried over
// from a previous, possibly stale set. A record on the oldest date
// classifies "oldest" even when the extremes coincide, so a single
// record is the oldest and carries both extreme dates.
func DateExtremes(bugs []models.Bug) Extremes {
	extremes := Extremes{Classes: make(map[int64]DateClass, len(bugs))}
	if len(bugs) == 0 {
		return extremes
	}

	oldest := lo.MinBy(bugs, func(a, b models.Bug) bool {
		return a.CreationDate.Before(b.CreationDate)
	})
	newest := lo.MaxBy(bugs, func(a, b models.Bug) bool {
		return a.CreationDate.After(b.CreationDate)
	})
	extremes.Oldest = oldest.CreationDate
	extremes.Newest = newest.CreationDate

	for _, b := range bugs {
		switch {
		case b.CreationDate.Equal(extremes.Oldest):
			extremes.Classes[b.ID] = DateOldest
		case b.CreationDate.Equal(extremes.Newest):
			extremes.Classes[b.ID] = DateNewest
		default:
			extremes.Classes[b.ID] = DateNone
		}
	}
	return extremes
}
