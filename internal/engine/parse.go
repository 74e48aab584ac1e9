package engine

import (
	"strconv"
	"strings"
)

// ParseState records whether a scanned tag matched the full grammar.
type ParseState int

const (
	TagWellFormed ParseState = iota
	TagMalformed
)

// ReferenceTag is one scanned occurrence of the reference grammar
// <code><path>P</path><lines>A,B</lines></code> in generator output.
// Start/End are byte offsets of the raw span in the original text —
// the compositor splices at exactly these boundaries. Path and the
// line numbers are untrusted: they are whatever the generator wrote,
// validated later by the resolver.
type ReferenceTag struct {
	Start, End int
	Raw        string
	Path       string
	LineStart  int
	LineEnd    int
	State      ParseState
}

const (
	openCode   = "<code>"
	closeCode  = "</code>"
	openPath   = "<path>"
	closePath  = "</path>"
	openLines  = "<lines>"
	closeLines = "</lines>"

	// maxTagSpan bounds how far past an opener the scanner looks for
	// the closing tag. A real tag is a short path plus two integers;
	// the cap keeps the scan linear even on pathological input.
	maxTagSpan = 1024
)

// parseReferenceTags scans text left to right and returns every
// interpretation attempt of the tag grammar, in order of appearance.
// Spans never overlap. A well-formed tag spans the whole
// <code>...</code> block (longest match at its start position); a
// malformed attempt is recorded too — with State = TagMalformed — and
// scanning resumes without consuming the text after the bad opener, so
// one broken tag can never swallow later well-formed ones.
func parseReferenceTags(text string) []ReferenceTag {
	var tags []ReferenceTag
	pos := 0
	for {
		idx := strings.Index(text[pos:], openCode)
		if idx < 0 {
			return tags
		}
		start := pos + idx

		tag, ok := parseOneTag(text, start)
		tags = append(tags, tag)
		if ok {
			pos = tag.End
		} else {
			// Resume right after the opener; the malformed span is
			// left as literal text by the compositor.
			pos = start + len(openCode)
		}
	}
}

// parseOneTag attempts to interpret the tag starting at the <code>
// opener at offset start. On any grammar violation it returns a
// malformed tag whose span covers only the opener.
func parseOneTag(text string, start int) (ReferenceTag, bool) {
	malformed := ReferenceTag{
		Start: start,
		End:   start + len(openCode),
		Raw:   openCode,
		State: TagMalformed,
	}

	window := text[start:]
	if len(window) > maxTagSpan {
		window = window[:maxTagSpan]
	}

	closeIdx := strings.Index(window, closeCode)
	if closeIdx < 0 {
		return malformed, false
	}
	body := window[len(openCode):closeIdx]

	// Another opener before the closer means this opener was never
	// closed; treating it as malformed keeps the inner tag parseable.
	if strings.Contains(body, openCode) {
		return malformed, false
	}
	end := start + closeIdx + len(closeCode)

	p, ok := innerText(body, openPath, closePath)
	if !ok {
		return malformed, false
	}
	linesBody, ok := innerText(body, openLines, closeLines)
	if !ok {
		return malformed, false
	}
	a, b, ok := parseLinePair(linesBody)
	if !ok {
		return malformed, false
	}

	return ReferenceTag{
		Start:     start,
		End:       end,
		Raw:       text[start:end],
		Path:      strings.TrimSpace(p),
		LineStart: a,
		LineEnd:   b,
		State:     TagWellFormed,
	}, true
}

// innerText extracts the body of the first open...close child element.
func innerText(body, open, close string) (string, bool) {
	i := strings.Index(body, open)
	if i < 0 {
		return "", false
	}
	rest := body[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// parseLinePair parses "A,B" into two integers. Range validity
// (ordering, bounds) is the resolver's job, not the parser's.
func parseLinePair(s string) (int, int, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
