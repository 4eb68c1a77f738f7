// Package submit implements the popup-form state machine for creating a
// bug record, including the submit-time date formatting and the
// post-submit notification fan-out.
package submit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/buglist"
	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/notify"
	"github.com/joescharf/bugfix/internal/remote"
)

// State is the flow's position in the popup lifecycle.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

// Form holds the new-bug fields as entered. AssignedTo carries the
// textual selection; "None" is the blank sentinel the form starts with.
type Form struct {
	Title        string          `validate:"required"`
	Description  string          `validate:"required"`
	Status       models.Status   `validate:"required"`
	Category     models.Category `validate:"required"`
	AssignedTo   string
	Priority     int `validate:"required"`
	Importance   int `validate:"required"`
	CreationDate models.Date
	OpenDate     models.Date
}

// Flow drives Closed -> Open -> Submitting -> Closed. On failure the
// form stays open with the entered data intact.
type Flow struct {
	store      remote.Store
	dispatcher *notify.Dispatcher
	list       *buglist.Controller
	validate   *validator.Validate

	state State
	form  Form

	// today is swapped in tests to pin the default dates.
	today func() models.Date
}

// NewFlow creates a closed submission flow. The controller is signalled
// to refresh after every successful submit.
func NewFlow(store remote.Store, dispatcher *notify.Dispatcher, list *buglist.Controller) *Flow {
	return &Flow{
		store:      store,
		dispatcher: dispatcher,
		list:       list,
		validate:   validator.New(),
		state:      StateClosed,
		today:      models.Today,
	}
}

// State returns the current flow state.
func (f *Flow) State() State { return f.state }

// Form returns the entered form data.
func (f *Flow) Form() Form { return f.form }

func (f *Flow) blankForm() Form {
	today := f.today()
	return Form{
		Status:       models.StatusNew,
		Category:     models.CategoryFunctionality,
		AssignedTo:   "None",
		CreationDate: today,
		OpenDate:     today,
	}
}

// Open initializes a blank form: status New, category Functionality, no
// assignee, both dates today.
func (f *Flow) Open() {
	f.form = f.blankForm()
	f.state = StateOpen
}

// SetForm replaces the entered data; allowed only while the form is
// open.
func (f *Flow) SetForm(form Form) error {
	if f.state != StateOpen {
		return models.Validationf("form is not open")
	}
	f.form = form
	return nil
}

// Cancel resets to the blank defaults and closes the popup.
func (f *Flow) Cancel() {
	f.form = f.blankForm()
	f.state = StateClosed
}

// checkForm runs all local precondition checks. Failures here are
// ValidationFailures: no remote round trip happens.
func (f *Flow) checkForm() error {
	if err := f.validate.Struct(f.form); err != nil {
		return models.Validationf("incomplete form: %v", err)
	}
	if !f.form.Status.Valid() {
		return models.Validationf("unknown status %q", f.form.Status)
	}
	if !f.form.Category.Valid() {
		return models.Validationf("unknown category %q", f.form.Category)
	}
	if f.form.OpenDate.Before(f.form.CreationDate) {
		return models.Validationf("open date %s precedes creation date %s",
			f.form.OpenDate, f.form.CreationDate)
	}
	return nil
}

// Submit validates the form, resolves the assignment selection, and
// submits the record. Dates go out in the DD/MM/YYYY display form; that
// transform is presentation only, and the store remains the authority
// on what it hands back. On success a "new bug added" broadcast goes to
// all users, the assignee (if any) gets a personal notification, and
// the list controller reloads in full.
func (f *Flow) Submit(ctx context.Context) (models.Bug, error) {
	if f.state != StateOpen {
		return models.Bug{}, models.Validationf("form is not open")
	}

	if err := f.checkForm(); err != nil {
		return models.Bug{}, err
	}

	sel, err := assign.ParseSelection(f.form.AssignedTo)
	if err != nil {
		return models.Bug{}, models.Validationf("bad assignment selection: %v", err)
	}

	f.state = StateSubmitting
	created, err := f.store.AddBug(ctx, remote.AddBugRequest{
		Title:        f.form.Title,
		Description:  f.form.Description,
		Status:       f.form.Status,
		Category:     f.form.Category,
		AssignedID:   models.NullableID(sel.UserID),
		AssignedName: sel.UserName,
		Priority:     f.form.Priority,
		Importance:   f.form.Importance,
		CreationDate: f.form.CreationDate.Display(),
		OpenDate:     f.form.OpenDate.Display(),
	})
	if err != nil {
		f.state = StateOpen
		return models.Bug{}, fmt.Errorf("submit bug: %w", err)
	}

	f.dispatcher.NotifyAll(ctx, "New bug was added to the system: "+f.form.Title)
	if sel.Assigned() {
		f.dispatcher.NotifyUser(ctx, sel.UserID,
			"You have been assigned to a new bug: "+f.form.Title)
	}

	if f.list != nil {
		if err := f.list.Refresh(ctx); err != nil {
			slog.Warn("list refresh after submit failed", "error", err)
		}
	}

	f.form = f.blankForm()
	f.state = StateClosed
	return created, nil
}
