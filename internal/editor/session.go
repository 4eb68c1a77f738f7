// Package editor implements the per-record edit session: a working copy
// of one bug is mutated in isolation and committed (or discarded)
// without touching the authoritative list until reconciliation.
package editor

import (
	"context"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/notify"
	"github.com/joescharf/bugfix/internal/remote"
)

// State is the session's position in the edit lifecycle.
type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
	StateSaving  State = "saving"
)

// Session drives one bug through Viewing -> Editing -> Saving -> Viewing.
// Field mutations apply to a working copy only; the record handed out by
// Record changes only after a successful save.
type Session struct {
	store      remote.Store
	dispatcher *notify.Dispatcher

	record    models.Bug
	working   models.Bug
	selection *assign.Selection
	state     State
}

// NewSession opens a session over the given record in Viewing state.
func NewSession(store remote.Store, dispatcher *notify.Dispatcher, record models.Bug) *Session {
	return &Session{
		store:      store,
		dispatcher: dispatcher,
		record:     record,
		state:      StateViewing,
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Record returns the authoritative record as of the last save.
func (s *Session) Record() models.Bug { return s.record }

// Working returns the current draft.
func (s *Session) Working() models.Bug { return s.working }

// BeginEdit snapshots the record into a mutable working copy.
func (s *Session) BeginEdit() error {
	if s.state != StateViewing {
		return models.Validationf("cannot edit in %s state", s.state)
	}
	s.working = s.record
	s.selection = nil
	s.state = StateEditing
	return nil
}

// Cancel discards the working copy unconditionally and returns to
// Viewing. Cancelling outside an edit is a no-op.
func (s *Session) Cancel() {
	if s.state != StateEditing {
		return
	}
	s.working = models.Bug{}
	s.selection = nil
	s.state = StateViewing
}

func (s *Session) ensureEditing() error {
	if s.state != StateEditing {
		return models.Validationf("field updates allowed only while editing")
	}
	return nil
}

// SetDescription updates the draft description.
func (s *Session) SetDescription(description string) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.working.Description = description
	return nil
}

// SetStatus updates the draft status. Any known status may follow any
// other; only unknown values are rejected.
func (s *Session) SetStatus(status models.Status) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !status.Valid() {
		return models.Validationf("unknown status %q", status)
	}
	s.working.Status = status
	return nil
}

// SetCategory updates the draft category.
func (s *Session) SetCategory(category models.Category) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !category.Valid() {
		return models.Validationf("unknown category %q", category)
	}
	s.working.Category = category
	return nil
}

// SetPriority updates the draft priority.
func (s *Session) SetPriority(priority int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.working.Priority = priority
	return nil
}

// SetImportance updates the draft importance.
func (s *Session) SetImportance(importance int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.working.Importance = importance
	return nil
}

// SetAssignment records a pending assignment selection to be resolved
// into the draft at save time.
func (s *Session) SetAssignment(sel assign.Selection) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.selection = &sel
	return nil
}

// Save commits the working copy: the dirty-description flag is derived,
// any pending assignment selection is merged, and the full draft is
// submitted as an update. The "bug updated" broadcast names the bug by
// its pre-edit title and fires whether or not the update persisted;
// delivery is best-effort and not gated on confirmation. On remote
// failure the pre-edit record stands and the draft is discarded.
func (s *Session) Save(ctx context.Context) (models.Bug, error) {
	if s.state != StateEditing {
		return models.Bug{}, models.Validationf("cannot save in %s state", s.state)
	}
	s.state = StateSaving

	descriptionChanged := s.working.Description != s.record.Description
	if s.selection != nil {
		s.working.SetAssignee(s.selection.UserID, s.selection.UserName)
	}

	echoed, err := s.store.UpdateBug(ctx, remote.UpdateRequestFor(s.working, descriptionChanged))

	s.dispatcher.NotifyAll(ctx, "The following bug has been updated: "+s.record.Title)

	if err != nil {
		s.working = models.Bug{}
		s.selection = nil
		s.state = StateViewing
		return models.Bug{}, err
	}

	// The store is not trusted to echo the denormalized assignment
	// fields; the locally resolved values win.
	finalized := echoed
	finalized.SetAssignee(s.working.AssignedID, s.working.AssignedName)

	s.record = finalized
	s.working = models.Bug{}
	s.selection = nil
	s.state = StateViewing
	return finalized, nil
}
