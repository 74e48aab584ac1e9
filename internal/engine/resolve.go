package engine

import (
	"bytes"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// OutcomeKind is the closed set of per-reference resolution results.
// Every failure kind is recovered at reference granularity — rendered
// as an inline marker by the compositor, never aborting the document.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeForbiddenPath
	OutcomeNotFound
	OutcomeUnreadable
	OutcomeInvalidRange
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeForbiddenPath:
		return "forbidden_path"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnreadable:
		return "unreadable"
	case OutcomeInvalidRange:
		return "invalid_range"
	default:
		return "unknown"
	}
}

// NumberedLine is one extracted source line tagged with its 1-based
// line number.
type NumberedLine struct {
	Number int
	Text   string
}

// ResolvedReference pairs a parsed tag with its resolution outcome.
// Lines is populated only for OutcomeOK.
type ResolvedReference struct {
	Tag   ReferenceTag
	Kind  OutcomeKind
	Lines []NumberedLine
}

// resolveParallelism caps concurrent file reads during resolution.
const resolveParallelism = 8

// resolveReferences resolves every parsed tag against the tree.
// Malformed tags pass through untouched. Distinct references are
// independent, so reads run in parallel; results land at their tag's
// index so composition stays a single deterministic pass. The
// goroutines return no errors — every failure is a per-reference
// outcome, which is the whole point of the taxonomy.
func resolveReferences(tree *FileTree, tags []ReferenceTag) []ResolvedReference {
	resolved := make([]ResolvedReference, len(tags))

	var g errgroup.Group
	g.SetLimit(resolveParallelism)
	for i, tag := range tags {
		g.Go(func() error {
			resolved[i] = resolveOne(tree, tag)
			return nil
		})
	}
	_ = g.Wait()
	return resolved
}

// resolveOne applies the resolution rules in order; each rule is a
// distinct terminal outcome.
func resolveOne(tree *FileTree, tag ReferenceTag) ResolvedReference {
	out := ResolvedReference{Tag: tag}
	if tag.State == TagMalformed {
		return out
	}

	// 1. Normalization failure or root escape: never touch the file.
	rel, err := NormalizeRel(tag.Path)
	if err != nil {
		out.Kind = OutcomeForbiddenPath
		return out
	}

	// 2. Must exist in the indexed tree, as a file.
	node, ok := tree.Lookup(rel)
	if !ok || node.Kind != NodeFile {
		out.Kind = OutcomeNotFound
		return out
	}

	// 3. Binary or over the read cap.
	if node.Unreadable {
		out.Kind = OutcomeUnreadable
		return out
	}

	// The range is validated against the file as it exists now, not
	// as it was at indexing time — the filesystem may have changed.
	data, err := os.ReadFile(filepath.Join(tree.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		out.Kind = OutcomeUnreadable
		return out
	}
	if bytes.IndexByte(data, 0) >= 0 {
		// Null-byte sniff catches binaries the extension list missed.
		out.Kind = OutcomeUnreadable
		return out
	}

	lines := splitLines(string(data))

	// 4. Bad start or inverted range.
	if tag.LineStart < 1 || tag.LineEnd < tag.LineStart || tag.LineStart > len(lines) {
		out.Kind = OutcomeInvalidRange
		return out
	}

	// 5. Overshooting the end is clamped, not rejected — generators
	// routinely guess one line too many. The single leniency here.
	end := tag.LineEnd
	if end > len(lines) {
		end = len(lines)
	}

	// 6. Extract the inclusive range, 1-based.
	out.Kind = OutcomeOK
	out.Lines = make([]NumberedLine, 0, end-tag.LineStart+1)
	for n := tag.LineStart; n <= end; n++ {
		out.Lines = append(out.Lines, NumberedLine{Number: n, Text: lines[n-1]})
	}
	return out
}
