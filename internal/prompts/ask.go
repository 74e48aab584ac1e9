// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// AskPrompt handles the ask-codebase MCP prompt.
// It guides the AI to answer a codebase question through the context
// engine instead of ad-hoc file reading.
type AskPrompt struct{}

// NewAskPrompt creates an AskPrompt.
func NewAskPrompt() *AskPrompt {
	return &AskPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *AskPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ask-codebase",
		mcp.WithPromptDescription(
			"Ask a question about the current codebase. "+
				"Routes the question through the context engine, which scans the "+
				"repository and returns an analysis with verified code references.",
		),
		mcp.WithArgument("question",
			mcp.ArgumentDescription("What you want to know about the codebase"),
		),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Path to the codebase (defaults to the current directory)"),
		),
	)
}

// Handle processes the ask-codebase prompt request.
func (p *AskPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	question := "How is this codebase structured?"
	path := "."
	if args := req.Params.Arguments; args != nil {
		if q, ok := args["question"]; ok && q != "" {
			question = q
		}
		if v, ok := args["path"]; ok && v != "" {
			path = v
		}
	}

	text := fmt.Sprintf(`Use the context_engine tool to answer this question about the codebase at %q:

%s

Call context_engine with the question as-is first. If the answer raises follow-up questions, ask them with separate focused context_engine calls rather than reading files one by one. Present the final answer to the user, keeping the code snippets and file references from the analysis.`, path, question)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Ask the codebase: %s", question),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
