// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies via constructor
// (DIP) and exposes Definition/Handle compatible with mcp-go's
// registration API. One file per tool concern.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
)

// absProjectPath resolves and validates a caller-supplied project
// directory. Tool handlers report a missing path as a tool error, not
// a protocol error.
func absProjectPath(p string) (string, error) {
	if p == "" {
		p = "."
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path %s does not exist", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %s is not a directory", abs)
	}
	return abs, nil
}
