package assign

import (
	"context"
	"fmt"

	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/notify"
	"github.com/joescharf/bugfix/internal/remote"
)

// Coordinator applies an assignment to a bug independently of any edit
// session: the remote store is updated first, then the record's local
// display fields, then the assignee is notified. It never requires the
// record to be in an editing state.
type Coordinator struct {
	store      remote.Store
	dispatcher *notify.Dispatcher
}

// NewCoordinator creates an assignment coordinator.
func NewCoordinator(store remote.Store, dispatcher *notify.Dispatcher) *Coordinator {
	return &Coordinator{store: store, dispatcher: dispatcher}
}

// Assign submits the selection for the given bug and, on success, syncs
// the bug's assignment fields and notifies the assignee. Unassigning
// sends no notification. On remote failure the bug is left untouched.
func (c *Coordinator) Assign(ctx context.Context, bug *models.Bug, sel Selection) error {
	if err := c.store.AssignUser(ctx, bug.ID, sel.UserID); err != nil {
		return fmt.Errorf("assign user %d to bug %d: %w", sel.UserID, bug.ID, err)
	}

	bug.SetAssignee(sel.UserID, sel.UserName)

	if sel.Assigned() {
		c.dispatcher.NotifyUser(ctx, sel.UserID,
			"You have been assigned to the following bug: "+bug.Title)
	}
	return nil
}
