package engine

import (
	"fmt"
	"path"
	"strings"
)

// fenceLanguages maps file extensions to markdown fence language tags.
var fenceLanguages = map[string]string{
	".go": "go", ".py": "python", ".js": "javascript", ".ts": "typescript",
	".tsx": "tsx", ".jsx": "jsx", ".rs": "rust", ".java": "java",
	".rb": "ruby", ".c": "c", ".h": "c", ".cpp": "cpp", ".cs": "csharp",
	".sh": "bash", ".sql": "sql", ".yaml": "yaml", ".yml": "yaml",
	".json": "json", ".toml": "toml", ".html": "html", ".css": "css",
	".md": "markdown",
}

// composeDocument produces the final document by splicing each
// resolved reference into the generator's text at the parser-recorded
// offsets, in a single pass. Text outside tag spans is never altered,
// and identical-looking tags at different positions are handled
// independently. Malformed tags were never confidently identified as
// references, so their spans are emitted verbatim.
func composeDocument(text string, resolved []ResolvedReference) string {
	if len(resolved) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, ref := range resolved {
		sb.WriteString(text[last:ref.Tag.Start])
		if ref.Tag.State == TagMalformed {
			sb.WriteString(text[ref.Tag.Start:ref.Tag.End])
		} else if ref.Kind == OutcomeOK {
			sb.WriteString(renderBlock(ref))
		} else {
			sb.WriteString(renderFailure(ref))
		}
		last = ref.Tag.End
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// renderBlock formats an ok outcome as a fenced, line-numbered block
// with the file path as a header.
func renderBlock(ref ResolvedReference) string {
	last := ref.Lines[len(ref.Lines)-1].Number
	width := len(fmt.Sprintf("%d", last))
	lang := fenceLanguages[strings.ToLower(path.Ext(ref.Tag.Path))]

	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s` (lines %d-%d):\n\n", ref.Tag.Path, ref.Lines[0].Number, last)
	fmt.Fprintf(&sb, "```%s\n", lang)
	for _, line := range ref.Lines {
		fmt.Fprintf(&sb, "%*d | %s\n", width, line.Number, line.Text)
	}
	sb.WriteString("```")
	return sb.String()
}

// renderFailure formats a failure outcome as an inline marker naming
// the path, the requested range, and the failure kind, so the caller
// sees that a reference could not be resolved instead of silently
// losing content.
func renderFailure(ref ResolvedReference) string {
	return fmt.Sprintf("[unresolved reference %q lines %d-%d: %s]",
		ref.Tag.Path, ref.Tag.LineStart, ref.Tag.LineEnd, ref.Kind)
}
