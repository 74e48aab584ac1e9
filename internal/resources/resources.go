// Package resources implements MCP resource handlers.
//
// Resources provide read-only data the host can consume for context,
// addressed by URI (scout://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/scout/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages the server's resource endpoints.
type Handler struct {
	cfg     config.Config
	version string
	llmUp   bool
}

// NewHandler creates a resource Handler. llmUp reports whether the
// generator-backed tools were registered at startup.
func NewHandler(cfg config.Config, version string, llmUp bool) *Handler {
	return &Handler{cfg: cfg, version: version, llmUp: llmUp}
}

// StatusResource returns the MCP resource definition for server status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"scout://server/status",
		"Scout Server Status",
		mcp.WithResourceDescription("Server version, configured models, and subsystem availability"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current server status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{
		"version":          h.version,
		"context_model":    h.cfg.ContextModel,
		"subagent_model":   h.cfg.SubagentModel,
		"data_dir":         h.cfg.DataDir,
		"llm_tools":        h.llmUp,
		"generate_timeout": h.cfg.GenerateTimeout.String(),
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
