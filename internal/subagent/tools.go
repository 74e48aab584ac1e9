package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/HendryAvila/scout/internal/engine"
)

// maxToolFileBytes caps reads and search scans per file.
const maxToolFileBytes = 1 << 20

// maxSearchMatches caps search result size.
const maxSearchMatches = 50

// searchSkipDirs are never descended into during search_files.
var searchSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true,
	"venv": true, ".venv": true, ".next": true, "dist": true, "build": true,
}

// executeTool dispatches one action to its implementation. Results
// are always JSON so the model can read them back; tool failures are
// reported in-band, never as loop-ending errors.
func (a *Agent) executeTool(ctx context.Context, state *runState, tool string, args json.RawMessage) json.RawMessage {
	var result any
	switch tool {
	case "read_file":
		result = a.readFile(state, args)
	case "write_file":
		result = a.writeFile(state, args)
	case "replace_file_content":
		result = a.replaceFileContent(state, args)
	case "search_files":
		result = a.searchFiles(state, args)
	case "list_directory":
		result = a.listDirectory(state, args)
	case "context_engine":
		result = a.askEngine(ctx, state, args)
	default:
		result = errResult(fmt.Sprintf("unknown tool: %s", tool))
	}

	data, err := json.Marshal(result)
	if err != nil {
		data, _ = json.Marshal(errResult(err.Error()))
	}
	return data
}

func errResult(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

// resolve confines a model-supplied relative path to the run's root.
func (s *runState) resolve(rel string) (string, error) {
	clean, err := engine.NormalizeRel(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (a *Agent) readFile(state *runState, raw json.RawMessage) any {
	var args struct {
		Path      string `json:"path"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}
	full, err := state.resolve(args.Path)
	if err != nil {
		return errResult(err.Error())
	}

	info, err := os.Stat(full)
	if err != nil {
		return errResult(fmt.Sprintf("file does not exist: %s", args.Path))
	}
	if info.IsDir() {
		return errResult(fmt.Sprintf("path is not a file: %s", args.Path))
	}
	if info.Size() > maxToolFileBytes {
		return errResult(fmt.Sprintf("file too large (%d bytes), max %d", info.Size(), maxToolFileBytes))
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return errResult(err.Error())
	}
	content := string(data)

	if args.StartLine > 0 || args.EndLine > 0 {
		lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
		start, end := args.StartLine, args.EndLine
		if start <= 0 {
			start = 1
		}
		if end <= 0 || end > len(lines) {
			end = len(lines)
		}
		if start > len(lines) || end < start {
			return errResult(fmt.Sprintf("line range %d-%d out of range (file has %d lines)",
				args.StartLine, args.EndLine, len(lines)))
		}
		content = strings.Join(lines[start-1:end], "\n")
	}

	state.filesRead = append(state.filesRead, args.Path)
	return map[string]any{"success": true, "path": args.Path, "content": content, "size": info.Size()}
}

func (a *Agent) writeFile(state *runState, raw json.RawMessage) any {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}
	full, err := state.resolve(args.Path)
	if err != nil {
		return errResult(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errResult(err.Error())
	}
	if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
		return errResult(err.Error())
	}
	state.filesModified = append(state.filesModified, args.Path)
	return map[string]any{"success": true, "path": args.Path, "bytes_written": len(args.Content)}
}

func (a *Agent) replaceFileContent(state *runState, raw json.RawMessage) any {
	var args struct {
		Path         string `json:"path"`
		OldText      string `json:"old_text"`
		NewText      string `json:"new_text"`
		Replacements []struct {
			Old string `json:"old"`
			New string `json:"new"`
		} `json:"replacements"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}
	full, err := state.resolve(args.Path)
	if err != nil {
		return errResult(err.Error())
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return errResult(fmt.Sprintf("file does not exist: %s", args.Path))
	}

	type pair struct{ old, new string }
	var pairs []pair
	for _, r := range args.Replacements {
		pairs = append(pairs, pair{r.Old, r.New})
	}
	if len(pairs) == 0 {
		if args.OldText == "" {
			return errResult("must provide either (old_text, new_text) or a replacements list")
		}
		pairs = []pair{{args.OldText, args.NewText}}
	}

	content := string(data)
	total := 0
	for _, p := range pairs {
		count := strings.Count(content, p.old)
		if count == 0 {
			continue
		}
		content = strings.ReplaceAll(content, p.old, p.new)
		total += count
	}
	if total == 0 {
		return errResult("no replacements made - none of the target texts were found")
	}

	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return errResult(err.Error())
	}
	state.filesModified = append(state.filesModified, args.Path)
	return map[string]any{"success": true, "path": args.Path, "total_replacements": total}
}

type searchMatch struct {
	Query   string `json:"query"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func (a *Agent) searchFiles(state *runState, raw json.RawMessage) any {
	var args struct {
		Query       string   `json:"query"`
		Queries     []string `json:"queries"`
		FilePattern string   `json:"file_pattern"`
		IsRegex     bool     `json:"is_regex"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}

	queries := args.Queries
	if len(queries) == 0 && args.Query != "" {
		queries = []string{args.Query}
	}
	if len(queries) == 0 {
		return errResult("must provide either 'query' or 'queries'")
	}

	type matcher struct {
		query string
		re    *regexp.Regexp
	}
	var matchers []matcher
	for _, q := range queries {
		m := matcher{query: q}
		if args.IsRegex {
			re, err := regexp.Compile(q)
			if err != nil {
				return errResult(fmt.Sprintf("bad regex %q: %v", q, err))
			}
			m.re = re
		}
		matchers = append(matchers, m)
	}

	var matches []searchMatch
	_ = filepath.WalkDir(state.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if searchSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(matches) >= maxSearchMatches {
			return filepath.SkipAll
		}
		if args.FilePattern != "" {
			if ok, _ := doublestar.Match(args.FilePattern, d.Name()); !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxToolFileBytes {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(state.root, path)
		for lineNo, line := range strings.Split(string(data), "\n") {
			for _, m := range matchers {
				hit := false
				if m.re != nil {
					hit = m.re.MatchString(line)
				} else {
					hit = strings.Contains(line, m.query)
				}
				if !hit {
					continue
				}
				if len(line) > 200 {
					line = line[:200]
				}
				matches = append(matches, searchMatch{
					Query:   m.query,
					File:    filepath.ToSlash(rel),
					Line:    lineNo + 1,
					Content: line,
				})
				if len(matches) >= maxSearchMatches {
					return filepath.SkipAll
				}
				break
			}
		}
		return nil
	})

	return map[string]any{
		"success":       true,
		"queries":       queries,
		"matches":       matches,
		"total_matches": len(matches),
	}
}

func (a *Agent) listDirectory(state *runState, raw json.RawMessage) any {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}
	full := state.root
	if args.Path != "" && args.Path != "." {
		var err error
		full, err = state.resolve(args.Path)
		if err != nil {
			return errResult(err.Error())
		}
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return errResult(err.Error())
	}
	type item struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Size int64  `json:"size,omitempty"`
	}
	var items []item
	for _, e := range entries {
		it := item{Name: e.Name(), Type: "file"}
		if e.IsDir() {
			it.Type = "directory"
		} else if info, err := e.Info(); err == nil {
			it.Size = info.Size()
		}
		items = append(items, it)
	}
	return map[string]any{"success": true, "path": args.Path, "items": items}
}

func (a *Agent) askEngine(ctx context.Context, state *runState, raw json.RawMessage) any {
	if a.engine == nil {
		return errResult("context engine not available")
	}
	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return errResult(err.Error())
	}
	answer, err := a.engine.Answer(ctx, args.Question, state.root)
	if err != nil {
		return errResult(err.Error())
	}
	return map[string]any{"success": true, "question": args.Question, "answer": answer}
}
