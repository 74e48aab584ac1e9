package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// TodoStore is the task-list persistence the todo tool depends on.
type TodoStore interface {
	UpdateTasks(project, lines string) (string, error)
	RemoveTasks(project string, ids []string) (string, error)
	Format(project string) (string, error)
}

// TodoTool handles the todo MCP tool.
type TodoTool struct {
	store TodoStore
}

// NewTodoTool creates a TodoTool with the given store.
func NewTodoTool(store TodoStore) *TodoTool {
	return &TodoTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TodoTool) Definition() mcp.Tool {
	return mcp.NewTool("todo",
		mcp.WithDescription(
			"Create and manage a structured task list for the current coding "+
				"session. Use it proactively for complex multistep work (3+ distinct "+
				"steps), when the user provides multiple tasks, or right after new "+
				"instructions; skip it for single trivial tasks.\n\n"+
				"Format: one task per line as [id][status] content. IDs are dotted "+
				"decimals for subtasks (1, 2, 2.1, 2.1.1). Status markers: [ ] pending, "+
				"[~] in progress, [x] completed. A new ID adds a task, an existing ID "+
				"updates it; tasks are auto-sorted by ID and the full list is returned "+
				"after every operation. Call with no tasks/remove to just view the list. "+
				"Keep at most one task in progress at a time, and never show the raw "+
				"[id][status] format to the user — render it as markdown instead.",
		),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path to the project directory."),
		),
		mcp.WithString("tasks",
			mcp.Description("Task lines in format [id][status] content, one per line."),
		),
		mcp.WithString("remove",
			mcp.Description("Comma-separated task IDs to remove (e.g. '2.1, 2.2, 3')."),
		),
	)
}

// Handle processes a todo tool call.
func (t *TodoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath := req.GetString("project_path", "")
	tasks := req.GetString("tasks", "")
	remove := req.GetString("remove", "")

	project, err := absProjectPath(projectPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Remove wins over update when both are given, matching the
	// one-operation-per-call shape of the tool.
	if remove != "" {
		var ids []string
		for _, id := range strings.Split(remove, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		out, err := t.store.RemoveTasks(project, ids)
		if err != nil {
			return mcp.NewToolResultError("removing tasks: " + err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}

	if strings.TrimSpace(tasks) != "" {
		out, err := t.store.UpdateTasks(project, tasks)
		if err != nil {
			return mcp.NewToolResultError("updating tasks: " + err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}

	out, err := t.store.Format(project)
	if err != nil {
		return mcp.NewToolResultError("listing tasks: " + err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
