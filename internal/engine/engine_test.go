package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HendryAvila/scout/internal/llm"
)

// scriptedGenerator returns a fixed reply and records the request.
type scriptedGenerator struct {
	reply string
	err   error
	last  llm.Request
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.last = req
	return g.reply, g.err
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	e := New(&scriptedGenerator{}, Config{}, nil)
	if _, err := e.Answer(context.Background(), "   ", t.TempDir()); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("err = %v, want ErrEmptyQuestion", err)
	}
}

func TestAnswer_BadRoot(t *testing.T) {
	e := New(&scriptedGenerator{reply: "x"}, Config{}, nil)
	if _, err := e.Answer(context.Background(), "question?", "/definitely/not/here"); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestAnswer_GeneratorErrorPropagates(t *testing.T) {
	genErr := &llm.Error{Kind: llm.KindFatal, Err: errors.New("api key rejected")}
	e := New(&scriptedGenerator{err: genErr}, Config{}, nil)

	_, err := e.Answer(context.Background(), "how does it work?", writeRepo(t, map[string]string{"a.go": "x\n"}))
	if err == nil {
		t.Fatal("expected generator error")
	}
	if llm.KindOf(err) != llm.KindFatal {
		t.Errorf("kind = %v, want fatal", llm.KindOf(err))
	}
}

func TestAnswer_EndToEnd(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"auth/login.go": "package auth\n\nfunc Login(user string) error {\n\treturn nil\n}\n",
		"main.go":       "package main\n",
	})

	gen := &scriptedGenerator{
		reply: "Login is implemented here:\n\n" +
			"<code><path>auth/login.go</path><lines>3,5</lines></code>\n\n" +
			"It also mentions <code><path>ghost.go</path><lines>1,2</lines></code> which is wrong.",
	}
	e := New(gen, Config{Model: "test-model"}, nil)

	got, err := e.Answer(context.Background(), "how does login work?", root)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if !strings.Contains(gen.last.Prompt, "auth/login.go") {
		t.Error("prompt should include the candidate file")
	}
	if gen.last.Model != "test-model" {
		t.Errorf("model = %q", gen.last.Model)
	}
	if gen.last.System == "" {
		t.Error("system prompt missing")
	}

	if !strings.Contains(got, "Login is implemented here:") {
		t.Errorf("prose lost: %q", got)
	}
	if !strings.Contains(got, "`auth/login.go` (lines 3-5):") {
		t.Errorf("reference not expanded: %q", got)
	}
	if !strings.Contains(got, "3 | func Login(user string) error {") {
		t.Errorf("numbered line missing: %q", got)
	}
	if !strings.Contains(got, `[unresolved reference "ghost.go" lines 1-2: not_found]`) {
		t.Errorf("failure marker missing: %q", got)
	}
	if !strings.Contains(got, "which is wrong.") {
		t.Errorf("trailing prose lost: %q", got)
	}
}

func TestAnswer_NoTagsPassesThrough(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.go": "x\n"})
	gen := &scriptedGenerator{reply: "This codebase is a single stub file."}
	e := New(gen, Config{}, nil)

	got, err := e.Answer(context.Background(), "what is this?", root)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != gen.reply {
		t.Errorf("got %q, want generator text unchanged", got)
	}
}
