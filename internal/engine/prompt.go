package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// systemPrompt mirrors the analysis persona the generator is given on
// every query.
const systemPrompt = `You are a codebase analysis expert. Your job is to help developers understand their codebase by answering questions with comprehensive, well-organized context.

You excel at:
- Identifying relevant files and code sections
- Explaining how code works and how components relate to each other
- Organizing information clearly and concisely
- Identifying edge cases, limitations, and potential gotchas

Always be thorough but concise. Your task is to give the user all of the context needed to start making actual code changes just through your answer.`

// referenceInstructions defines the one wire grammar this pipeline owns.
// The generator is told to emit it, but downstream stages still treat
// its output as untrusted text — compliance is never assumed.
const referenceInstructions = `## Showing code

When you want a snippet shown verbatim, do NOT paste the code. Emit a reference tag instead and the caller will expand it into the real, line-numbered source:

<code><path>RELATIVE_PATH</path><lines>START,END</lines></code>

Rules:
- RELATIVE_PATH is relative to the project root, exactly as listed above.
- START and END are 1-based inclusive line numbers with START <= END.
- Put each tag on its own line. Do not wrap tags in markdown code fences.
- Everything outside the tags is ordinary markdown.`

// excerptMarkerInterval is how often a [Line N] marker is injected into
// excerpts so the generator can cite accurate line numbers.
const excerptMarkerInterval = 50

// buildPrompt renders the question, the tree, and the top candidate
// excerpts into the single request sent to the generator.
func buildPrompt(question string, tree *FileTree, candidates []CandidateFile, opts Options) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Question: %s\n\n", question)

	sb.WriteString("## Project structure\n\n")
	sb.WriteString(renderTree(tree, opts.MaxTreeChars))
	sb.WriteString("\n")

	sb.WriteString("## Selected file contents\n\n")
	for _, cand := range candidates {
		content, lineCount, err := readExcerpt(tree, cand.Path, opts)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "=== FILE: %s (line 1 of %d) ===\n%s\n\n", cand.Path, lineCount, content)
	}

	sb.WriteString(referenceInstructions)
	sb.WriteString(`

## Instructions
1. Give a direct 2-3 sentence answer first.
2. Reference the relevant code with tags, and explain the important context and uses around it.
3. Be concise - simple questions need simple answers, complex questions need detailed answers.
4. Use markdown: headers, tables if helpful.`)

	return sb.String()
}

// renderTree produces an indented textual tree capped at maxChars.
// Truncation is deepest-first: if the full rendering is too large, the
// deepest levels are dropped first so top-level structure survives.
func renderTree(tree *FileTree, maxChars int) string {
	maxDepth := treeDepth(tree.Root)
	for depth := maxDepth; depth >= 1; depth-- {
		rendered, omitted := renderTreeToDepth(tree.Root, depth)
		if len(rendered) <= maxChars || depth == 1 {
			if omitted > 0 {
				rendered += fmt.Sprintf("... (%d deeper entries omitted)\n", omitted)
			}
			return rendered
		}
	}
	return ""
}

func treeDepth(n *FileNode) int {
	depth := 0
	for _, c := range n.Children {
		if d := treeDepth(c) + 1; d > depth {
			depth = d
		}
	}
	return depth
}

func renderTreeToDepth(root *FileNode, maxDepth int) (string, int) {
	var sb strings.Builder
	omitted := 0
	var walk func(n *FileNode, depth int)
	walk = func(n *FileNode, depth int) {
		for _, c := range n.Children {
			if depth >= maxDepth {
				omitted++
				if c.Kind == NodeDir {
					omitted += countNodes(c)
				}
				continue
			}
			indent := strings.Repeat("  ", depth)
			if c.Kind == NodeDir {
				fmt.Fprintf(&sb, "%s%s/\n", indent, c.Name)
				walk(c, depth+1)
			} else {
				fmt.Fprintf(&sb, "%s%s\n", indent, c.Name)
			}
		}
	}
	walk(root, 0)
	return sb.String(), omitted
}

func countNodes(n *FileNode) int {
	total := 0
	for _, c := range n.Children {
		total += 1 + countNodes(c)
	}
	return total
}

// readExcerpt reads a candidate's content for the prompt, capped at
// MaxExcerptLines, with [Line N] markers injected at intervals so the
// generator can cite line numbers accurately. Returns the annotated
// content and the file's total line count.
func readExcerpt(tree *FileTree, rel string, opts Options) (string, int, error) {
	node, ok := tree.Lookup(rel)
	if !ok || node.Kind != NodeFile || node.Unreadable {
		return "", 0, fmt.Errorf("engine: %s not readable", rel)
	}

	data, err := os.ReadFile(filepath.Join(tree.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", 0, fmt.Errorf("engine: reading %s: %w", rel, err)
	}

	lines := splitLines(string(data))
	total := len(lines)
	truncated := 0
	if total > opts.MaxExcerptLines {
		truncated = total - opts.MaxExcerptLines
		lines = lines[:opts.MaxExcerptLines]
	}

	var sb strings.Builder
	for i, line := range lines {
		if (i+1)%excerptMarkerInterval == 0 {
			fmt.Fprintf(&sb, "[Line %d]\n", i+1)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if truncated > 0 {
		fmt.Fprintf(&sb, "... [TRUNCATED: %d more lines] ...\n", truncated)
	}
	return sb.String(), total, nil
}

// splitLines splits file content on newlines without manufacturing a
// phantom trailing line for newline-terminated files.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
