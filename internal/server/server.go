// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"path/filepath"

	"github.com/HendryAvila/scout/internal/chatroom"
	"github.com/HendryAvila/scout/internal/config"
	"github.com/HendryAvila/scout/internal/engine"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/prompts"
	"github.com/HendryAvila/scout/internal/resources"
	"github.com/HendryAvila/scout/internal/subagent"
	"github.com/HendryAvila/scout/internal/todo"
	"github.com/HendryAvila/scout/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store databases and flushes
// the logger; it must be called on shutdown (typically via defer) and
// is always non-nil, safe to call even when a subsystem failed to
// initialize.
func New() (*server.MCPServer, func(), error) {
	cfg := config.Load()

	// Logs go to stderr so they never interfere with the MCP stdio
	// transport on stdout.
	log, err := newLogger()
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"scout",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	cleanups := []func(){func() { _ = log.Sync() }}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// --- Chatroom and todo tools ---
	//
	// These are independent subsystems: if one fails to initialize,
	// the others keep working. We log a warning and skip registration
	// rather than failing server startup.

	if chatStore, err := chatroom.New(chatroom.Config{DataDir: cfg.DataDir}); err != nil {
		log.Warn("chatroom subsystem disabled", zap.Error(err))
	} else {
		cleanups = append(cleanups, func() {
			if err := chatStore.Close(); err != nil {
				log.Warn("chatroom store close", zap.Error(err))
			}
		})
		sendTool := tools.NewSendMessageTool(chatStore)
		s.AddTool(sendTool.Definition(), sendTool.Handle)
		readTool := tools.NewReadMessagesTool(chatStore)
		s.AddTool(readTool.Definition(), readTool.Handle)
	}

	if todoStore, err := todo.New(todo.Config{DataDir: cfg.DataDir}); err != nil {
		log.Warn("todo subsystem disabled", zap.Error(err))
	} else {
		cleanups = append(cleanups, func() {
			if err := todoStore.Close(); err != nil {
				log.Warn("todo store close", zap.Error(err))
			}
		})
		todoTool := tools.NewTodoTool(todoStore)
		s.AddTool(todoTool.Definition(), todoTool.Handle)
	}

	// --- Generator-backed tools ---
	//
	// Without an API key (or if the client fails to construct) the
	// context engine and subagent are skipped; the server still serves
	// the coordination tools above.

	llmUp := registerLLMTools(s, cfg, log)

	// --- Prompts ---

	askPrompt := prompts.NewAskPrompt()
	s.AddPrompt(askPrompt.Definition(), askPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(cfg, Version, llmUp)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	log.Info("server configured",
		zap.String("version", Version),
		zap.Bool("llm_tools", llmUp),
		zap.String("data_dir", cfg.DataDir))

	return s, cleanup, nil
}

// registerLLMTools wires the Gemini client, context engine, and
// subagent; it reports whether registration happened.
func registerLLMTools(s *server.MCPServer, cfg config.Config, log *zap.Logger) bool {
	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set: context_engine and subagent tools disabled")
		return false
	}

	gen, err := llm.NewGeminiClient(context.Background(), cfg.APIKey)
	if err != nil {
		log.Warn("gemini client unavailable: context_engine and subagent tools disabled", zap.Error(err))
		return false
	}

	opts := engine.DefaultOptions()
	opts.MaxFiles = cfg.MaxFiles
	opts.MaxFileBytes = cfg.MaxFileBytes

	eng := engine.New(gen, engine.Config{
		Model:   cfg.ContextModel,
		Timeout: cfg.GenerateTimeout,
		Options: opts,
	}, log)

	contextTool := tools.NewContextTool(eng)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	agent := subagent.New(gen, eng, subagent.Config{
		Model:   cfg.SubagentModel,
		LogDir:  filepath.Join(cfg.DataDir, "subagent_logs"),
		Timeout: cfg.GenerateTimeout,
	}, log)

	subagentTool := tools.NewSubagentTool(agent)
	s.AddTool(subagentTool.Definition(), subagentTool.Handle)

	return true
}

// newLogger builds the production logger used by every subsystem.
func newLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// noop is the default cleanup when initialization fails early.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use Scout effectively.
func serverInstructions() string {
	return `You have access to Scout, a codebase context and agent coordination MCP server.

## context_engine — your primary codebase tool

Use context_engine whenever you need to UNDERSTAND a codebase:
- Starting work on an unfamiliar repository
- "How does X work?" questions spanning multiple files
- Finding where functionality lives when you don't know exact file names
- Tracing code flow while debugging

Ask focused natural-language questions. The engine scans the repository,
selects and reads the relevant files itself, and returns a markdown
analysis whose code snippets are verified against the files on disk —
trust them. Prefer it over manual file-by-file exploration; fall back to
direct reads only when you already know the exact file and lines.

Do NOT use context_engine to make changes — it is read-only analysis.

## subagent — delegate simple file work

Delegate mechanical multi-file work (boilerplate, renames, search and
replace, summarizing many files) to the subagent tool. It runs a faster
model with read/write file tools confined to the directory you give it.
Keep the main task and anything requiring judgment for yourself. Give it
complete context in the task description — it cannot ask you questions.

## Coordination tools

When multiple agents share a codebase:
- chatroom_send_message / chatroom_read_messages: per-project message
  board. Announce significant work before starting, report when done,
  and read every few turns to avoid duplicate work.
- todo: per-project persistent task list using "[id][status] content"
  lines with dotted subtask IDs. Use it for any work with 3+ steps;
  keep one task in_progress at a time; render it to the user as
  markdown, never in the raw line format.

All four coordination/delegation tools key state by absolute project
path, so always pass the project root, not a subdirectory.`
}
