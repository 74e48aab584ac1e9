package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/scout/internal/chatroom"
	"github.com/mark3labs/mcp-go/mcp"
)

// ChatStore is the chatroom persistence the chat tools depend on.
type ChatStore interface {
	SendMessage(project, agentName, message string) (*chatroom.SendResult, error)
	ReadMessages(project string, limit int) ([]chatroom.Message, error)
}

// SendMessageTool handles the chatroom_send_message MCP tool.
type SendMessageTool struct {
	store ChatStore
}

// NewSendMessageTool creates a SendMessageTool with the given store.
func NewSendMessageTool(store ChatStore) *SendMessageTool {
	return &SendMessageTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *SendMessageTool) Definition() mcp.Tool {
	return mcp.NewTool("chatroom_send_message",
		mcp.WithDescription(
			"Send a message to a project's chatroom for multi-agent coordination. "+
				"Each project directory has its own chatroom where agents communicate, "+
				"coordinate tasks, and share updates; messages are persisted and survive "+
				"server restarts. Choose a unique, persistent agent name, keep messages "+
				"concise and actionable, announce before starting significant work, and "+
				"update when completing it. Timestamps are added automatically. "+
				"Skip it when working alone or for trivial changes.",
		),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path to the project directory."),
		),
		mcp.WithString("agent_name",
			mcp.Required(),
			mcp.Description("Your creative agent name (choose something memorable, e.g. 'RefactorNinja')."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("What you're working on or updates to share."),
		),
	)
}

// Handle processes a chatroom_send_message tool call.
func (t *SendMessageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath := req.GetString("project_path", "")
	agentName := req.GetString("agent_name", "")
	message := req.GetString("message", "")

	if agentName == "" {
		return mcp.NewToolResultError("'agent_name' is required"), nil
	}
	if message == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}
	project, err := absProjectPath(projectPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.store.SendMessage(project, agentName, message)
	if err != nil {
		return mcp.NewToolResultError("sending message: " + err.Error()), nil
	}

	// The sender gets their message back with the room's recent
	// context, so a follow-up read is rarely needed.
	data, err := json.MarshalIndent(map[string]any{
		"status":         "Message sent successfully",
		"your_message":   result.New,
		"recent_context": result.Recent,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling send result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ReadMessagesTool handles the chatroom_read_messages MCP tool.
type ReadMessagesTool struct {
	store ChatStore
}

// NewReadMessagesTool creates a ReadMessagesTool with the given store.
func NewReadMessagesTool(store ChatStore) *ReadMessagesTool {
	return &ReadMessagesTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ReadMessagesTool) Definition() mcp.Tool {
	return mcp.NewTool("chatroom_read_messages",
		mcp.WithDescription(
			"Read recent messages from a project's chatroom. Check this regularly "+
				"(every few turns) to stay coordinated with other agents and avoid "+
				"duplicate work. Messages are shown in chronological order.",
		),
		mcp.WithString("project_path",
			mcp.Required(),
			mcp.Description("Absolute path to the project directory."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of recent messages to return (default: 50)."),
		),
	)
}

// Handle processes a chatroom_read_messages tool call.
func (t *ReadMessagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath := req.GetString("project_path", "")
	limit := int(req.GetFloat("limit", 50))

	project, err := absProjectPath(projectPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msgs, err := t.store.ReadMessages(project, limit)
	if err != nil {
		return mcp.NewToolResultError("reading chatroom: " + err.Error()), nil
	}
	return mcp.NewToolResultText(chatroom.FormatMessages(msgs)), nil
}
