package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ContextEngine answers natural-language questions about a codebase.
type ContextEngine interface {
	Answer(ctx context.Context, question, root string) (string, error)
}

// ContextTool handles the context_engine MCP tool.
type ContextTool struct {
	engine ContextEngine
}

// NewContextTool creates a ContextTool backed by the given engine.
func NewContextTool(engine ContextEngine) *ContextTool {
	return &ContextTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("context_engine",
		mcp.WithDescription(
			"The best tool for getting comprehensive codebase context and "+
				"finding specific files, code, or anything else in the codebase. "+
				"Ask focused questions in natural language; the engine scans the "+
				"repository, reads the relevant files, and returns a markdown "+
				"analysis with verified code snippets. "+
				"Use when starting on a new codebase, understanding how a feature "+
				"works across files, finding where functionality lives, or tracing "+
				"code flow — especially when you do not know exact file names. "+
				"Use for understanding, not for making changes.",
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The information you want to know, in natural language. Example: 'How does user authentication work?'"),
		),
		mcp.WithString("path",
			mcp.Description("Path to the codebase (defaults to the current directory)."),
		),
	)
}

// Handle processes a context_engine tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question := req.GetString("question", "")
	path := req.GetString("path", ".")

	root, err := absProjectPath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := t.engine.Answer(ctx, question, root)
	if err != nil {
		return mcp.NewToolResultError("analysis failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(answer), nil
}
