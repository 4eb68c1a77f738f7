package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/buglist"
	"github.com/joescharf/bugfix/internal/editor"
	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/output"
)

var (
	editDesc       string
	editStatus     string
	editCategory   string
	editPriority   int
	editImportance int
	editAssignee   string
)

var bugEditCmd = &cobra.Command{
	Use:   "edit <bug-id>",
	Short: "Edit a bug",
	Long: `Edit a bug record. Provide at least one field flag.

Everyone is notified of the update; a newly chosen assignee is
notified directly as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBugID(args[0])
		if err != nil {
			return err
		}
		return bugEditRun(id)
	},
}

func init() {
	bugEditCmd.Flags().StringVar(&editDesc, "desc", "", "New description")
	bugEditCmd.Flags().StringVar(&editStatus, "status", "", "New status: New, In Progress, Done")
	bugEditCmd.Flags().StringVar(&editCategory, "category", "", "New category")
	bugEditCmd.Flags().IntVar(&editPriority, "priority", 0, "New fix urgency 1-10")
	bugEditCmd.Flags().IntVar(&editImportance, "importance", 0, "New overall importance 1-10")
	bugEditCmd.Flags().StringVar(&editAssignee, "assign", "", `New assignee selection in "name - id" form, or Unassigned`)
}

func bugEditRun(id int64) error {
	ctx := context.Background()

	list := buglist.NewController(getTracker())
	if err := list.Init(ctx, buglist.SortNewest, ""); err != nil {
		return err
	}
	defer list.Teardown()

	bug, ok := list.Get(id)
	if !ok {
		return fmt.Errorf("bug %d not found", id)
	}

	session := editor.NewSession(getTracker(), dispatcher, bug)
	if err := session.BeginEdit(); err != nil {
		return err
	}

	changed := false
	if editDesc != "" {
		if err := session.SetDescription(editDesc); err != nil {
			return err
		}
		changed = true
	}
	if editStatus != "" {
		if err := session.SetStatus(models.Status(editStatus)); err != nil {
			return err
		}
		changed = true
	}
	if editCategory != "" {
		if err := session.SetCategory(models.Category(editCategory)); err != nil {
			return err
		}
		changed = true
	}
	if editPriority != 0 {
		if err := session.SetPriority(editPriority); err != nil {
			return err
		}
		changed = true
	}
	if editImportance != 0 {
		if err := session.SetImportance(editImportance); err != nil {
			return err
		}
		changed = true
	}
	if editAssignee != "" {
		sel, err := assign.ParseSelection(editAssignee)
		if err != nil {
			return err
		}
		if err := session.SetAssignment(sel); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		session.Cancel()
		return fmt.Errorf("no updates specified (use --desc, --status, --category, --priority, --importance, or --assign)")
	}

	if dryRun {
		session.Cancel()
		ui.DryRunMsg("Would update bug %d: %s", id, bug.Title)
		return nil
	}

	saved, err := session.Save(ctx)
	if err != nil {
		return err
	}
	list.Reconcile(saved)

	ui.Success("Updated bug %s: %s", output.Cyan(strconv.FormatInt(saved.ID, 10)), saved.Title)
	return nil
}
