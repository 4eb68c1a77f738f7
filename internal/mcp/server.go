package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/buglist"
	"github.com/joescharf/bugfix/internal/editor"
	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/notify"
	"github.com/joescharf/bugfix/internal/remote"
	"github.com/joescharf/bugfix/internal/submit"
)

// Server wraps the bug tracker client layer and exposes it as MCP tools.
type Server struct {
	store      remote.Store
	dispatcher *notify.Dispatcher
}

// NewServer creates the MCP server wrapper over a tracker store.
func NewServer(s remote.Store) *Server {
	return &Server{
		store:      s,
		dispatcher: notify.NewDispatcher(s),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("bugfix", "1.0.0", server.WithToolCapabilities(true))

	// Register all tools
	srv.AddTool(s.listBugsTool())
	srv.AddTool(s.searchBugsTool())
	srv.AddTool(s.createBugTool())
	srv.AddTool(s.updateBugTool())
	srv.AddTool(s.assignBugTool())
	srv.AddTool(s.removeBugTool())
	srv.AddTool(s.listCodersTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// bugfix_list_bugs
func (s *Server) listBugsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_list_bugs",
		mcp.WithDescription("List bug records, optionally sorted and filtered by category. Returns a JSON array of bugs. Each bug has: bugId, title, description, status (New/In Progress/Done), category, assignedId, assignedUsername, priority and importance (1-10), creationDate and openDate (YYYY-MM-DD)."),
		mcp.WithString("sort", mcp.Description("Sort order: newest, oldest, priority, importance (default: newest)")),
		mcp.WithString("category", mcp.Description("Category filter: Ui, Functionality, Performance, Usability, Security")),
	)
	return tool, s.handleListBugs
}

func (s *Server) handleListBugs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sort := buglist.SortOption(request.GetString("sort", string(buglist.SortNewest)))
	if !sort.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown sort order: %s", sort)), nil
	}
	filter := models.Category(request.GetString("category", ""))
	if filter != "" && !filter.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", filter)), nil
	}

	list := buglist.NewController(s.store)
	bugs, err := list.FetchAll(ctx, sort, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bugs: %v", err)), nil
	}

	data, err := json.Marshal(bugs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bugs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_search_bugs
func (s *Server) searchBugsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_search_bugs",
		mcp.WithDescription("Search bug records by title substring. Returns a JSON array of matching bugs."),
		mcp.WithString("term", mcp.Required(), mcp.Description("Search term matched against bug titles")),
	)
	return tool, s.handleSearchBugs
}

func (s *Server) handleSearchBugs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := request.RequireString("term")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: term"), nil
	}

	bugs, err := s.store.SearchBugs(ctx, term)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search bugs: %v", err)), nil
	}

	data, err := json.Marshal(bugs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bugs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_create_bug
func (s *Server) createBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_create_bug",
		mcp.WithDescription("Report a new bug. Notifies all users and, when an assignee is given, notifies them directly. Returns the created bug as JSON."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bug title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Bug description")),
		mcp.WithString("status", mcp.Description("Status: New, In Progress, Done (default: New)")),
		mcp.WithString("category", mcp.Description("Category: Ui, Functionality, Performance, Usability, Security (default: Functionality)")),
		mcp.WithNumber("priority", mcp.Description("Fix urgency 1-10 (default: 1)")),
		mcp.WithNumber("importance", mcp.Description("Overall importance 1-10 (default: 1)")),
		mcp.WithString("assigned_to", mcp.Description("Assignee selection in \"name - id\" form, or Unassigned")),
	)
	return tool, s.handleCreateBug
}

func (s *Server) handleCreateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	list := buglist.NewController(s.store)
	flow := submit.NewFlow(s.store, s.dispatcher, list)
	flow.Open()

	form := flow.Form()
	form.Title = title
	form.Description = description
	if v := request.GetString("status", ""); v != "" {
		form.Status = models.Status(v)
	}
	if v := request.GetString("category", ""); v != "" {
		form.Category = models.Category(v)
	}
	form.Priority = request.GetInt("priority", 1)
	form.Importance = request.GetInt("importance", 1)
	if v := request.GetString("assigned_to", ""); v != "" {
		form.AssignedTo = v
	}

	if err := flow.SetForm(form); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := flow.Submit(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create bug: %v", err)), nil
	}

	data, err := json.Marshal(created)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_update_bug
func (s *Server) updateBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_update_bug",
		mcp.WithDescription("Update an existing bug. Provide the bug ID and at least one field to change. Notifies all users of the update. Returns the updated bug as JSON."),
		mcp.WithNumber("bug_id", mcp.Required(), mcp.Description("Bug ID")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status: New, In Progress, Done")),
		mcp.WithString("category", mcp.Description("New category: Ui, Functionality, Performance, Usability, Security")),
		mcp.WithNumber("priority", mcp.Description("New fix urgency 1-10")),
		mcp.WithNumber("importance", mcp.Description("New overall importance 1-10")),
		mcp.WithString("assigned_to", mcp.Description("New assignee selection in \"name - id\" form, or Unassigned")),
	)
	return tool, s.handleUpdateBug
}

func (s *Server) handleUpdateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireInt("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}

	bug, err := s.findBug(ctx, int64(bugID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session := editor.NewSession(s.store, s.dispatcher, bug)
	if err := session.BeginEdit(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Track whether any field was updated
	updated := false

	if v := request.GetString("description", ""); v != "" {
		if err := session.SetDescription(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}
	if v := request.GetString("status", ""); v != "" {
		if err := session.SetStatus(models.Status(v)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}
	if v := request.GetString("category", ""); v != "" {
		if err := session.SetCategory(models.Category(v)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}
	if v := request.GetInt("priority", 0); v != 0 {
		if err := session.SetPriority(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}
	if v := request.GetInt("importance", 0); v != 0 {
		if err := session.SetImportance(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}
	if v := request.GetString("assigned_to", ""); v != "" {
		sel, err := assign.ParseSelection(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := session.SetAssignment(sel); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}

	if !updated {
		return mcp.NewToolResultError("no fields provided to update; specify at least one of: description, status, category, priority, importance, assigned_to"), nil
	}

	saved, err := session.Save(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update bug: %v", err)), nil
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_assign_bug
func (s *Server) assignBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_assign_bug",
		mcp.WithDescription("Assign a bug to a coder, or clear the assignment. Notifies the coder when one is chosen. Returns the updated bug as JSON."),
		mcp.WithNumber("bug_id", mcp.Required(), mcp.Description("Bug ID")),
		mcp.WithString("assignee", mcp.Required(), mcp.Description("Selection in \"name - id\" form, or Unassigned to clear")),
	)
	return tool, s.handleAssignBug
}

func (s *Server) handleAssignBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireInt("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}
	assignee, err := request.RequireString("assignee")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: assignee"), nil
	}

	sel, err := assign.ParseSelection(assignee)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bug, err := s.findBug(ctx, int64(bugID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	coordinator := assign.NewCoordinator(s.store, s.dispatcher)
	if err := coordinator.Assign(ctx, &bug, sel); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to assign bug: %v", err)), nil
	}

	data, err := json.Marshal(bug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_remove_bug
func (s *Server) removeBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_remove_bug",
		mcp.WithDescription("Remove a bug record. Only bugs with status Done can be removed."),
		mcp.WithNumber("bug_id", mcp.Required(), mcp.Description("Bug ID")),
	)
	return tool, s.handleRemoveBug
}

func (s *Server) handleRemoveBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireInt("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}

	list := buglist.NewController(s.store)
	if err := list.Init(ctx, buglist.SortNewest, ""); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load bugs: %v", err)), nil
	}
	if err := list.Remove(ctx, int64(bugID)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove bug: %v", err)), nil
	}

	result := map[string]any{"removed": bugID}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// bugfix_list_coders
func (s *Server) listCodersTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugfix_list_coders",
		mcp.WithDescription("List the coders bugs can be assigned to. Returns a JSON array with userId and userName."),
	)
	return tool, s.handleListCoders
}

func (s *Server) handleListCoders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coders, err := s.store.ListCoders(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list coders: %v", err)), nil
	}

	data, err := json.Marshal(coders)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal coders: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findBug fetches the current bug list and picks out one record by ID.
func (s *Server) findBug(ctx context.Context, id int64) (models.Bug, error) {
	bugs, err := s.store.ListBugs(ctx)
	if err != nil {
		return models.Bug{}, fmt.Errorf("failed to list bugs: %w", err)
	}
	for _, bug := range bugs {
		if bug.ID == id {
			return bug, nil
		}
	}
	return models.Bug{}, fmt.Errorf("bug not found: %d", id)
}
