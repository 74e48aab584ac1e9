// Package subagent implements a delegated task runner: a smaller,
// faster model drives a bounded loop of file operations inside one
// context directory. The model speaks a one-JSON-action-per-turn
// protocol over the plain-text generator boundary; every run is
// written to a JSON log for auditability.
package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/scout/internal/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextEngine is the deep-codebase-question tool the agent can
// delegate to. It is optional; a nil engine disables that tool.
type ContextEngine interface {
	Answer(ctx context.Context, question, root string) (string, error)
}

// Config holds agent construction parameters.
type Config struct {
	// Model is the generator model identifier for the agent loop.
	Model string
	// LogDir receives one JSON log per execution.
	LogDir string
	// MaxIterations bounds the tool loop; zero means the default (15).
	MaxIterations int
	// Timeout bounds each generator call.
	Timeout time.Duration
}

// Agent executes natural-language tasks with file tools.
type Agent struct {
	gen    llm.Generator
	engine ContextEngine
	cfg    Config
	log    *zap.Logger
}

// New creates an Agent. A nil logger disables logging.
func New(gen llm.Generator, engine ContextEngine, cfg Config, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 15
	}
	return &Agent{gen: gen, engine: engine, cfg: cfg, log: log}
}

// action is one parsed model turn: either a tool call or completion.
type action struct {
	Tool    string          `json:"tool,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Done    bool            `json:"done,omitempty"`
	Summary string          `json:"summary,omitempty"`
}

// toolCallRecord is one entry in the execution log.
type toolCallRecord struct {
	Timestamp string          `json:"timestamp"`
	Tool      string          `json:"tool_name"`
	Args      json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result"`
}

// runState tracks one execution.
type runState struct {
	root          string
	history       []toolCallRecord
	filesRead     []string
	filesModified []string
}

// ExecuteTask runs the tool loop for one task. The context path must
// exist and be a directory; all file operations are confined to it.
// Returns a transcript with the modified-file summary and log path.
func (a *Agent) ExecuteTask(ctx context.Context, task, contextPath string) (string, error) {
	root, err := filepath.Abs(contextPath)
	if err != nil {
		return "", fmt.Errorf("subagent: resolving context path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("subagent: context path %q is not a directory", contextPath)
	}

	state := &runState{root: root}
	transcript := []string{fmt.Sprintf("Please complete this task: %s", task)}
	a.log.Info("subagent task started", zap.String("root", root))

	var final string
	iterations := 0
	for iterations < a.cfg.MaxIterations {
		iterations++

		reply, err := a.gen.Generate(ctx, llm.Request{
			System:  a.systemPrompt(root, task),
			Prompt:  strings.Join(transcript, "\n\n"),
			Model:   a.cfg.Model,
			Timeout: a.cfg.Timeout,
		})
		if err != nil {
			final = fmt.Sprintf("**Error:** %v", err)
			break
		}

		act, err := parseAction(reply)
		if err != nil {
			// An unparseable turn is treated as the agent's final
			// prose answer, matching how the loop terminates when the
			// model stops calling tools.
			final = strings.TrimSpace(reply)
			break
		}
		if act.Done || act.Tool == "" {
			final = act.Summary
			break
		}

		result := a.executeTool(ctx, state, act.Tool, act.Args)
		state.history = append(state.history, toolCallRecord{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Tool:      act.Tool,
			Args:      act.Args,
			Result:    result,
		})
		transcript = append(transcript,
			fmt.Sprintf("TOOL CALL: %s %s", act.Tool, string(act.Args)),
			fmt.Sprintf("TOOL RESULT (%s): %s", act.Tool, string(result)),
		)
	}

	if iterations >= a.cfg.MaxIterations && final == "" {
		final = fmt.Sprintf("**Warning:** Reached maximum iterations (%d). Task may be incomplete.", a.cfg.MaxIterations)
	}

	logPath := a.writeRunLog(task, state, iterations)
	a.log.Info("subagent task finished",
		zap.Int("iterations", iterations),
		zap.Int("files_modified", len(state.filesModified)))

	modified := "none"
	if len(state.filesModified) > 0 {
		modified = strings.Join(state.filesModified, ", ")
	}
	return fmt.Sprintf("%s\n\n**Modified:** %s\n**Log:** %s", final, modified, logPath), nil
}

func (a *Agent) systemPrompt(root, task string) string {
	tools := `1. read_file {"path": "...", "start_line": N, "end_line": N} - read a file, optionally a line range
2. write_file {"path": "...", "content": "..."} - write a file, creating parent directories
3. replace_file_content {"path": "...", "old_text": "...", "new_text": "..."} or {"path": "...", "replacements": [{"old": "...", "new": "..."}]} - targeted edits
4. search_files {"query": "..."} or {"queries": [...], "file_pattern": "*.go", "is_regex": false} - search file contents
5. list_directory {"path": "..."} - list a directory`
	if a.engine != nil {
		tools += `
6. context_engine {"question": "..."} - ask a deep question about the codebase`
	}

	return fmt.Sprintf(`You are a sub-agent specialized in file operations inside one project directory.

## Working Directory
%s

## Your Task
%s

## Available tools
%s

## Protocol
Reply with EXACTLY ONE JSON object per turn, nothing else:
- To call a tool: {"tool": "<name>", "args": {...}}
- When finished:  {"done": true, "summary": "1-2 sentences: what you did"}

All paths are relative to the working directory. Work step by step; after each tool call you receive its result before your next turn.`, root, task, tools)
}

// parseAction extracts the single JSON action from a model turn,
// tolerating surrounding prose and markdown fences.
func parseAction(reply string) (*action, error) {
	text := strings.TrimSpace(reply)
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			text = text[i : j+1]
		}
	}
	var act action
	if err := json.Unmarshal([]byte(text), &act); err != nil {
		return nil, fmt.Errorf("subagent: parsing action: %w", err)
	}
	return &act, nil
}

// writeRunLog persists the execution history. Best-effort: a failed
// write is logged, never fatal to the task result.
func (a *Agent) writeRunLog(task string, state *runState, iterations int) string {
	if err := os.MkdirAll(a.cfg.LogDir, 0o700); err != nil {
		a.log.Warn("subagent log dir", zap.Error(err))
		return "unavailable"
	}
	name := fmt.Sprintf("subagent_%s_%s.json",
		time.Now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(a.cfg.LogDir, name)

	data, err := json.MarshalIndent(map[string]any{
		"task":           task,
		"context_path":   state.root,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"model":          a.cfg.Model,
		"iterations":     iterations,
		"tool_history":   state.history,
		"files_read":     state.filesRead,
		"files_modified": state.filesModified,
	}, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0o600)
	}
	if err != nil {
		a.log.Warn("subagent run log", zap.Error(err))
		return "unavailable"
	}
	return path
}
