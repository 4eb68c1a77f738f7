// Package buglist owns the authoritative in-memory bug list: fetching,
// sorting, filtering, searching, and reconciling finalized records back
// into the sequence.
package buglist

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/remote"
)

// SortOption names a deterministic ordering of the list.
type SortOption string

const (
	SortNewest     SortOption = "newest"
	SortOldest     SortOption = "oldest"
	SortPriority   SortOption = "priority"
	SortImportance SortOption = "importance"
)

// Valid reports whether s is a known sort option.
func (s SortOption) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortPriority, SortImportance:
		return true
	}
	return false
}

// Controller holds the one long-lived copy of the bug list. Other
// components work on a single record at a time and hand results back
// through Reconcile. The controller is bound to a view's lifetime:
// Init on mount, Teardown on unmount.
type Controller struct {
	store remote.Store

	bugs   []models.Bug
	roster []models.Coder

	sort   SortOption
	filter models.Category
}

// NewController creates a controller over the given remote store.
func NewController(store remote.Store) *Controller {
	return &Controller{store: store, sort: SortNewest}
}

// Init populates the list and the coder roster. The roster is fetched
// once per session and treated as read-only afterwards.
func (c *Controller) Init(ctx context.Context, sort SortOption, filter models.Category) error {
	roster, err := c.store.ListCoders(ctx)
	if err != nil {
		return fmt.Errorf("fetch coder roster: %w", err)
	}
	c.roster = roster

	if _, err := c.FetchAll(ctx, sort, filter); err != nil {
		return err
	}
	return nil
}

// Teardown drops all held state.
func (c *Controller) Teardown() {
	c.bugs = nil
	c.roster = nil
}

// Bugs returns a copy of the current list.
func (c *Controller) Bugs() []models.Bug {
	return slices.Clone(c.bugs)
}

// Roster returns the coder roster fetched at Init.
func (c *Controller) Roster() []models.Coder {
	return slices.Clone(c.roster)
}

// FetchAll retrieves the unfiltered superset from the remote store,
// sorts it, then applies the category filter locally when one is set.
// A failed fetch leaves the existing in-memory list untouched.
func (c *Controller) FetchAll(ctx context.Context, sort SortOption, filter models.Category) ([]models.Bug, error) {
	fetched, err := c.store.ListBugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch bugs: %w", err)
	}

	sortBugs(fetched, sort)

	if filter.Valid() {
		fetched = lo.Filter(fetched, func(b models.Bug, _ int) bool {
			return b.Category == filter
		})
	}

	c.bugs = fetched
	c.sort = sort
	c.filter = filter
	return c.Bugs(), nil
}

// Search delegates full-text matching to the remote store and replaces
// the current list wholesale with the response, bypassing local sort
// and filter. An empty response yields an empty list, not an error.
func (c *Controller) Search(ctx context.Context, term string) ([]models.Bug, error) {
	found, err := c.store.SearchBugs(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search bugs: %w", err)
	}

	c.bugs = found
	return c.Bugs(), nil
}

// Refresh re-fetches the full list with the last-used sort and filter.
// Simplicity over incremental update: mutations that change the set
// trigger a full reload.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err := c.FetchAll(ctx, c.sort, c.filter)
	return err
}

// Reconcile splices a finalized record into the list by bugId. A record
// the controller never fetched is ignored: it only inserts through
// FetchAll and Search.
func (c *Controller) Reconcile(updated models.Bug) {
	for i := range c.bugs {
		if c.bugs[i].ID == updated.ID {
			c.bugs[i] = updated
			return
		}
	}
}

// Get looks up a bug in the current list by id.
func (c *Controller) Get(bugID int64) (models.Bug, bool) {
	for _, b := range c.bugs {
		if b.ID == bugID {
			return b, true
		}
	}
	return models.Bug{}, false
}

// Remove deletes a bug that has reached Done status. The status check
// is local and happens before any remote call; afterwards the record is
// forgotten and the list reloaded from the store.
func (c *Controller) Remove(ctx context.Context, bugID int64) error {
	bug, ok := c.Get(bugID)
	if !ok {
		return models.Validationf("bug %d is not in the current list", bugID)
	}
	if bug.Status != models.StatusDone {
		return models.Validationf("bug %d has status %q: only Done bugs can be removed", bugID, bug.Status)
	}

	if err := c.store.RemoveBug(ctx, bugID); err != nil {
		return fmt.Errorf("remove bug %d: %w", bugID, err)
	}
	return c.Refresh(ctx)
}

// sortBugs orders the slice in place. Ties keep their original fetch
// order; an invalid option leaves the fetch order as-is.
func sortBugs(bugs []models.Bug, sort SortOption) {
	var cmp func(a, b models.Bug) int
	switch sort {
	case SortNewest:
		cmp = func(a, b models.Bug) int { return b.CreationDate.Compare(a.CreationDate) }
	case SortOldest:
		cmp = func(a, b models.Bug) int { return a.CreationDate.Compare(b.CreationDate) }
	case SortPriority:
		cmp = func(a, b models.Bug) int { return b.Priority - a.Priority }
	case SortImportance:
		cmp = func(a, b models.Bug) int { return b.Importance - a.Importance }
	default:
		return
	}
	slices.SortStableFunc(bugs, cmp)
}
