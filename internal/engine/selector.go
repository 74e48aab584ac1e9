package engine

import (
	"path"
	"sort"
	"strings"
)

// CandidateFile is a file the selector judged likely relevant to the
// question. Rank is 0-based, lower = more relevant. Reason is free
// text for diagnostics only.
type CandidateFile struct {
	Path   string
	Rank   int
	Reason string
}

// Extension priors: source files beat documentation beat config, and
// generated or vendored artifacts score negative so they only surface
// on a strong name match.
var extensionPrior = map[string]int{
	".go": 2, ".py": 2, ".js": 2, ".ts": 2, ".tsx": 2, ".jsx": 2,
	".rs": 2, ".java": 2, ".rb": 2, ".c": 2, ".h": 2, ".cpp": 2,
	".cs": 2, ".php": 2, ".swift": 2, ".kt": 2, ".scala": 2, ".ex": 2,
	".md": 1, ".rst": 1, ".txt": 1,
	".yaml": 0, ".yml": 0, ".toml": 0, ".json": 0, ".ini": 0, ".cfg": 0,
	".sum": -3, ".lock": -3, ".map": -3, ".snap": -3,
}

// questionStopwords are too common to carry relevance signal.
var questionStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "how": true, "what": true,
	"where": true, "which": true, "does": true, "this": true, "that": true,
	"with": true, "are": true, "is": true, "was": true, "can": true,
	"code": true, "file": true, "files": true, "work": true, "works": true,
	"implemented": true, "implementation": true, "use": true, "used": true,
}

// selectCandidates ranks the tree's files against the question using
// cheap local signals only: token overlap between the question and the
// path, extension priors, and a shallow-depth bonus. Ties break on
// lexicographic path order so identical inputs always produce identical
// rankings. If nothing scores above zero it falls back to a
// breadth-first sample so the generator still sees some structure.
func selectCandidates(question string, tree *FileTree, opts Options) []CandidateFile {
	tokens := questionTokens(question)

	type scored struct {
		node   *FileNode
		score  int
		reason string
	}
	var ranked []scored
	for _, node := range tree.Files() {
		if node.Unreadable {
			continue
		}
		score, reason := scoreFile(node, tokens)
		if score > 0 {
			ranked = append(ranked, scored{node, score, reason})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].node.Path < ranked[j].node.Path
	})

	var out []CandidateFile
	var budget int64
	for _, r := range ranked {
		if len(out) >= opts.MaxCandidates {
			break
		}
		if budget+r.node.Size > opts.MaxContextBytes {
			continue
		}
		budget += r.node.Size
		out = append(out, CandidateFile{Path: r.node.Path, Rank: len(out), Reason: r.reason})
	}

	if len(out) == 0 {
		return breadthFirstSample(tree, opts)
	}
	return out
}

func scoreFile(node *FileNode, tokens []string) (int, string) {
	base := strings.ToLower(node.Name)
	stem := strings.TrimSuffix(base, path.Ext(base))
	dir := strings.ToLower(path.Dir(node.Path))

	var score int
	var hits []string
	for _, tok := range tokens {
		switch {
		case strings.Contains(stem, tok):
			score += 3
			hits = append(hits, tok)
		case strings.Contains(dir, tok):
			score++
			hits = append(hits, tok)
		}
	}
	if score == 0 {
		return 0, ""
	}

	score += extensionPrior[strings.ToLower(path.Ext(base))]

	// Shallower files win ties against deep mirrors of the same name.
	depth := strings.Count(node.Path, "/")
	if depth < 3 {
		score += 3 - depth
	}
	return score, "matched " + strings.Join(hits, ", ")
}

// breadthFirstSample returns the shallowest readable files, in scan
// order, as structural fallback context.
func breadthFirstSample(tree *FileTree, opts Options) []CandidateFile {
	var out []CandidateFile
	var budget int64
	queue := []*FileNode{tree.Root}
	for len(queue) > 0 && len(out) < opts.MaxCandidates {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if c.Kind == NodeDir {
				queue = append(queue, c)
				continue
			}
			if c.Unreadable || len(out) >= opts.MaxCandidates {
				continue
			}
			if budget+c.Size > opts.MaxContextBytes {
				continue
			}
			budget += c.Size
			out = append(out, CandidateFile{Path: c.Path, Rank: len(out), Reason: "structural sample"})
		}
	}
	return out
}

func questionTokens(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	})
	var out []string
	seen := map[string]bool{}
	for _, f := range fields {
		if len(f) < 3 || questionStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
