package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/buglist"
	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/output"
	"github.com/joescharf/bugfix/internal/submit"
)

var (
	bugSort       string
	bugCategory   string
	bugDates      bool
	bugTitle      string
	bugDesc       string
	bugStatus     string
	bugPriority   int
	bugImportance int
	bugAssignee   string
	bugYes        bool
)

var bugCmd = &cobra.Command{
	Use:   "bug",
	Short: "Manage bug records",
	Long:  "List, search, report, edit, assign, and remove bug records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bugs",
	Long:    "List bug records, sorted and optionally filtered by category.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search bugs by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugSearchRun(args[0])
	},
}

var bugShowCmd = &cobra.Command{
	Use:   "show <bug-id>",
	Short: "Show bug details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBugID(args[0])
		if err != nil {
			return err
		}
		return bugShowRun(id)
	},
}

var bugAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Report a new bug",
	Long: `Report a new bug to the tracker.

Category, priority, and importance default to keyword-based triage of
the title when not given explicitly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugAddRun()
	},
}

var bugRemoveCmd = &cobra.Command{
	Use:     "rm <bug-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a bug (must be Done)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBugID(args[0])
		if err != nil {
			return err
		}
		return bugRemoveRun(id)
	},
}

var bugAssignCmd = &cobra.Command{
	Use:   "assign <bug-id> <selection>",
	Short: "Assign a bug to a coder",
	Long: `Assign a bug to a coder, or clear the assignment.

The selection uses the picker form "name - id", e.g. "Alice - 3".
Pass "Unassigned" (or "None") to clear.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBugID(args[0])
		if err != nil {
			return err
		}
		return bugAssignRun(id, strings.Join(args[1:], " "))
	},
}

func init() {
	bugListCmd.Flags().StringVar(&bugSort, "sort", "newest", "Sort order: newest, oldest, priority, importance")
	bugListCmd.Flags().StringVar(&bugCategory, "category", "", "Filter by category: Ui, Functionality, Performance, Usability, Security")
	bugListCmd.Flags().BoolVar(&bugDates, "dates", false, "Mark the oldest and newest records")

	bugAddCmd.Flags().StringVar(&bugTitle, "title", "", "Bug title (required)")
	bugAddCmd.Flags().StringVar(&bugDesc, "desc", "", "Bug description (required)")
	bugAddCmd.Flags().StringVar(&bugStatus, "status", "", "Status: New, In Progress, Done (default New)")
	bugAddCmd.Flags().StringVar(&bugCategory, "category", "", "Category (default: triaged from title)")
	bugAddCmd.Flags().IntVar(&bugPriority, "priority", 0, "Fix urgency 1-10 (default: triaged from title)")
	bugAddCmd.Flags().IntVar(&bugImportance, "importance", 0, "Overall importance 1-10 (default: triaged from title)")
	bugAddCmd.Flags().StringVar(&bugAssignee, "assign", "", `Assignee selection in "name - id" form`)
	_ = bugAddCmd.MarkFlagRequired("title")
	_ = bugAddCmd.MarkFlagRequired("desc")

	bugRemoveCmd.Flags().BoolVarP(&bugYes, "yes", "y", false, "Skip confirmation")

	bugCmd.AddCommand(bugListCmd)
	bugCmd.AddCommand(bugSearchCmd)
	bugCmd.AddCommand(bugShowCmd)
	bugCmd.AddCommand(bugAddCmd)
	bugCmd.AddCommand(bugEditCmd)
	bugCmd.AddCommand(bugRemoveCmd)
	bugCmd.AddCommand(bugAssignCmd)
	bugCmd.AddCommand(bugTriageCmd)
	rootCmd.AddCommand(bugCmd)
}

func parseBugID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bug id %q", arg)
	}
	return id, nil
}

func bugListRun() error {
	ctx := context.Background()

	sort := buglist.SortOption(bugSort)
	if bugSort != "" && !sort.Valid() {
		return fmt.Errorf("unknown sort order %q (use newest, oldest, priority, or importance)", bugSort)
	}
	filter := models.Category(bugCategory)
	if bugCategory != "" && !filter.Valid() {
		return fmt.Errorf("unknown category %q", bugCategory)
	}

	list := buglist.NewController(getTracker())
	if err := list.Init(ctx, sort, filter); err != nil {
		return err
	}
	defer list.Teardown()

	return renderBugTable(list.Bugs())
}

func bugSearchRun(term string) error {
	ctx := context.Background()

	list := buglist.NewController(getTracker())
	bugs, err := list.Search(ctx, term)
	if err != nil {
		return err
	}

	return renderBugTable(bugs)
}

func renderBugTable(bugs []models.Bug) error {
	if len(bugs) == 0 {
		ui.Info("No bugs found.")
		return nil
	}

	headers := []string{"ID", "Title", "Status", "Category", "Assignee", "Pri", "Imp", "Created"}
	if bugDates {
		headers = append(headers, "Age")
	}

	var extremes buglist.Extremes
	if bugDates {
		extremes = buglist.DateExtremes(bugs)
	}

	table := ui.Table(headers)
	for _, bug := range bugs {
		row := []string{
			strconv.FormatInt(bug.ID, 10),
			bug.Title,
			output.StatusColor(string(bug.Status)),
			string(bug.Category),
			bug.AssignedName,
			output.ScaleColor(bug.Priority),
			output.ScaleColor(bug.Importance),
			bug.CreationDate.String(),
		}
		if bugDates {
			row = append(row, dateBadge(extremes.Classes[bug.ID]))
		}
		_ = table.Append(row)
	}
	_ = table.Render()
	return nil
}

func dateBadge(class buglist.DateClass) string {
	switch class {
	case buglist.DateOldest:
		return output.Yellow("oldest")
	case buglist.DateNewest:
		return output.Cyan("newest")
	default:
		return ""
	}
}

func bugShowRun(id int64) error {
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

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(strconv.FormatInt(bug.ID, 10)), bug.Title)
	fmt.Fprintf(ui.Out, "  Status:      %s\n", output.StatusColor(string(bug.Status)))
	fmt.Fprintf(ui.Out, "  Category:    %s\n", bug.Category)
	fmt.Fprintf(ui.Out, "  Assignee:    %s\n", bug.AssignedName)
	fmt.Fprintf(ui.Out, "  Priority:    %s\n", output.ScaleColor(bug.Priority))
	fmt.Fprintf(ui.Out, "  Importance:  %s\n", output.ScaleColor(bug.Importance))
	if bug.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:        %s\n", bug.Description)
	}
	fmt.Fprintf(ui.Out, "  Created:     %s\n", bug.CreationDate.Display())
	fmt.Fprintf(ui.Out, "  Opened:      %s\n", bug.OpenDate.Display())

	return nil
}

func bugAddRun() error {
	ctx := context.Background()

	list := buglist.NewController(getTracker())
	flow := submit.NewFlow(getTracker(), dispatcher, list)
	flow.Open()

	form := flow.Form()
	form.Title = bugTitle
	form.Description = bugDesc
	if bugStatus != "" {
		form.Status = models.Status(bugStatus)
	}

	// Fall back to keyword triage for anything not given explicitly.
	if bugCategory != "" {
		form.Category = models.Category(bugCategory)
	} else {
		form.Category = classifyCategory(bugTitle)
	}
	urgency := classifyUrgency(bugTitle)
	form.Priority = bugPriority
	if form.Priority == 0 {
		form.Priority = urgency
	}
	form.Importance = bugImportance
	if form.Importance == 0 {
		form.Importance = urgency
	}
	if bugAssignee != "" {
		form.AssignedTo = bugAssignee
	}

	if err := flow.SetForm(form); err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would report bug: %s [%s, pri %d, imp %d]", form.Title, form.Category, form.Priority, form.Importance)
		flow.Cancel()
		return nil
	}

	created, err := flow.Submit(ctx)
	if err != nil {
		return err
	}

	ui.Success("Reported bug %s: %s", output.Cyan(strconv.FormatInt(created.ID, 10)), created.Title)
	if created.Assigned() {
		ui.Info("Assigned to %s", created.AssignedName)
	}
	return nil
}

func bugRemoveRun(id int64) error {
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

	if dryRun {
		ui.DryRunMsg("Would remove bug %d: %s", id, bug.Title)
		return nil
	}

	if !bugYes {
		fmt.Fprintf(ui.Out, "Remove bug %d (%s)? [y/N] ", id, bug.Title)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			ui.Info("Aborted.")
			return nil
		}
	}

	if err := list.Remove(ctx, id); err != nil {
		return err
	}

	ui.Success("Removed bug %d: %s", id, bug.Title)
	return nil
}

func bugAssignRun(id int64, selection string) error {
	ctx := context.Background()

	sel, err := assign.ParseSelection(selection)
	if err != nil {
		return err
	}

	list := buglist.NewController(getTracker())
	if err := list.Init(ctx, buglist.SortNewest, ""); err != nil {
		return err
	}
	defer list.Teardown()

	bug, ok := list.Get(id)
	if !ok {
		return fmt.Errorf("bug %d not found", id)
	}

	if dryRun {
		ui.DryRunMsg("Would assign bug %d to %s", id, sel.UserName)
		return nil
	}

	coordinator := assign.NewCoordinator(getTracker(), dispatcher)
	if err := coordinator.Assign(ctx, &bug, sel); err != nil {
		return err
	}
	list.Reconcile(bug)

	if bug.Assigned() {
		ui.Success("Assigned bug %d to %s", id, bug.AssignedName)
	} else {
		ui.Success("Cleared assignment on bug %d", id)
	}
	return nil
}
