package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// TaskRunner executes a delegated file-operation task.
type TaskRunner interface {
	ExecuteTask(ctx context.Context, task, contextPath string) (string, error)
}

// SubagentTool handles the subagent MCP tool.
type SubagentTool struct {
	runner TaskRunner
}

// NewSubagentTool creates a SubagentTool with the given runner.
func NewSubagentTool(runner TaskRunner) *SubagentTool {
	return &SubagentTool{runner: runner}
}

// Definition returns the MCP tool definition for registration.
func (t *SubagentTool) Definition() mcp.Tool {
	return mcp.NewTool("subagent",
		mcp.WithDescription(
			"Delegate a task to a fast sub-agent with file read/write capabilities. "+
				"The sub-agent uses a smaller, faster model optimized for file "+
				"operations and can autonomously plan and execute multi-step tasks. "+
				"Best for simple file modifications, boilerplate creation, search and "+
				"replace across files, and reading or summarizing multiple files. "+
				"Include all relevant context in the task description. "+
				"Do NOT use it for tasks that need deep reasoning, external APIs, "+
				"shell commands, sensitive files, or for the main task itself. "+
				"Its tools: read_file, write_file, replace_file_content, search_files, "+
				"list_directory, and context_engine for deep codebase questions.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Natural language task description with all relevant context."),
		),
		mcp.WithString("context_path",
			mcp.Description("Working directory for the sub-agent (defaults to the current directory)."),
		),
	)
}

// Handle processes a subagent tool call.
func (t *SubagentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	contextPath := req.GetString("context_path", ".")

	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	root, err := absProjectPath(contextPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.runner.ExecuteTask(ctx, task, root)
	if err != nil {
		return mcp.NewToolResultError("sub-agent task failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}
