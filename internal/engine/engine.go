// Package engine implements the context retrieval and reference
// resolution pipeline: scan the repository, pick relevant files,
// assemble a prompt, call the generator once, then expand the
// reference tags in its answer into real, line-numbered source.
//
// Everything the generator emits is treated as untrusted text. The
// parser and resolver form a small sanitizing validation layer — tags
// are resolved against the live filesystem inside the project root or
// reported as failures, never trusted as structured data.
//
// All pipeline state (tree, candidates, resolved references) is owned
// by a single Answer call and discarded when it returns; nothing is
// cached across queries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/scout/internal/llm"
	"go.uber.org/zap"
)

// Input errors: surfaced immediately, nothing downstream runs.
var (
	ErrEmptyQuestion    = errors.New("engine: question is empty")
	ErrRootNotFound     = errors.New("root path does not exist")
	ErrRootNotDirectory = errors.New("root path is not a directory")
)

// Engine runs the full pipeline for one question at a time. Engines
// are safe for concurrent use: each Answer call owns its own state,
// and the filesystem is only ever read.
type Engine struct {
	gen     llm.Generator
	model   string
	timeout time.Duration
	opts    Options
	log     *zap.Logger
}

// Config holds engine construction parameters.
type Config struct {
	// Model is the generator model identifier.
	Model string
	// Timeout bounds the single generator call. The caller may stop
	// waiting, but the remote call is not assumed to be cancelled.
	Timeout time.Duration
	// Options bounds the filesystem stages; zero value means defaults.
	Options Options
}

// New creates an Engine. A nil logger disables logging.
func New(gen llm.Generator, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	opts := cfg.Options
	if opts.MaxFiles == 0 {
		opts = DefaultOptions()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Engine{gen: gen, model: cfg.Model, timeout: timeout, opts: opts, log: log}
}

// Answer runs the pipeline: index, select, assemble, generate, parse,
// resolve, compose. The result is always either a complete markdown
// document (possibly containing inline unresolved-reference markers)
// or an error explaining why no document could be produced — a bad
// root, an empty question, or a generator failure. Per-file and
// per-reference problems never surface here.
func (e *Engine) Answer(ctx context.Context, question, root string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	e.log.Info("context retrieval started",
		zap.String("root", root),
		zap.String("model", e.model))

	tree, err := ScanRepository(root, e.opts)
	if err != nil {
		return "", err
	}
	e.log.Info("repository indexed",
		zap.Int("files", len(tree.Files())),
		zap.Int("skipped", tree.Skipped),
		zap.Bool("truncated", tree.Truncated))

	candidates := selectCandidates(question, tree, e.opts)
	e.log.Info("candidates selected", zap.Int("count", len(candidates)))

	prompt := buildPrompt(question, tree, candidates, e.opts)

	text, err := e.gen.Generate(ctx, llm.Request{
		System:  systemPrompt,
		Prompt:  prompt,
		Model:   e.model,
		Timeout: e.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("engine: generator: %w", err)
	}

	tags := parseReferenceTags(text)
	resolved := resolveReferences(tree, tags)

	wellFormed, failures := 0, 0
	for _, r := range resolved {
		if r.Tag.State == TagMalformed {
			continue
		}
		wellFormed++
		if r.Kind != OutcomeOK {
			failures++
		}
	}
	e.log.Info("references resolved",
		zap.Int("tags", len(tags)),
		zap.Int("well_formed", wellFormed),
		zap.Int("failed", failures))

	return composeDocument(text, resolved), nil
}
