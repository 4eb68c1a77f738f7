// Package assign handles picking a coder for a bug: the textual
// "name - id" selection codec and the coordinator that applies an
// assignment remotely and locally.
package assign

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/joescharf/bugfix/internal/models"
)

// selectionSeparator joins the name and id halves of a textual selection.
const selectionSeparator = " - "

// Selection is a resolved assignment choice: either a concrete coder or
// nobody. The zero value is the unassigned selection.
type Selection struct {
	UserID   int64
	UserName string
}

// Unassigned returns the empty selection.
func Unassigned() Selection {
	return Selection{UserID: 0, UserName: models.UnassignedName}
}

// User returns a selection for a concrete coder.
func User(id int64, name string) Selection {
	return Selection{UserID: id, UserName: name}
}

// Assigned reports whether the selection names a coder.
func (s Selection) Assigned() bool {
	return s.UserID != 0
}

// String encodes the selection in the "name - id" textual form used by
// picker widgets, or "Unassigned" for the empty selection.
func (s Selection) String() string {
	if !s.Assigned() {
		return models.UnassignedName
	}
	return fmt.Sprintf("%s%s%d", s.UserName, selectionSeparator, s.UserID)
}

// ParseSelection decodes a textual selection. "Unassigned" and "None"
// are both accepted as the empty sentinel; anything else must be a
// "name - id" compound with an integer trailing segment. Roster
// membership is not checked here; callers provide roster-derived
// strings.
func ParseSelection(value string) (Selection, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == models.UnassignedName || value == "None" {
		return Unassigned(), nil
	}

	idx := strings.LastIndex(value, selectionSeparator)
	if idx < 0 {
		return Selection{}, fmt.Errorf("invalid selection %q: want \"name - id\"", value)
	}

	name := strings.TrimSpace(value[:idx])
	id, err := cast.ToInt64E(strings.TrimSpace(value[idx+len(selectionSeparator):]))
	if err != nil {
		return Selection{}, fmt.Errorf("invalid selection %q: %w", value, err)
	}
	return User(id, name), nil
}

// Options renders the full picker list for a roster, with the
// unassigned sentinel first.
func Options(roster []models.Coder) []string {
	options := make([]string, 0, len(roster)+1)
	options = append(options, models.UnassignedName)
	for _, coder := range roster {
		options = append(options, User(coder.ID, coder.Name).String())
	}
	return options
}
