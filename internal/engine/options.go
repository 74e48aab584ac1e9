package engine

// Options bounds every filesystem-touching stage of the pipeline.
// A very large repository must cost bounded time and memory, so the
// indexer, selector, and assembler all cap their work here.
type Options struct {
	// MaxFiles caps the total number of nodes (files and directories)
	// recorded in the tree. Entries beyond the cap are skipped.
	MaxFiles int

	// MaxFileBytes is the per-file read cap. Larger files stay in the
	// tree for structural awareness but are flagged unreadable and
	// their content is never read.
	MaxFileBytes int64

	// IgnorePatterns are doublestar globs matched against both the
	// relative path and the entry name. Matching directories are
	// pruned whole.
	IgnorePatterns []string

	// MaxCandidates bounds how many files the selector surfaces.
	MaxCandidates int

	// MaxContextBytes bounds the total size of selected file content.
	MaxContextBytes int64

	// MaxTreeChars bounds the textual tree rendering in the prompt.
	MaxTreeChars int

	// MaxExcerptLines caps each candidate excerpt shown to the generator.
	MaxExcerptLines int
}

// DefaultOptions returns the limits used by the MCP tool layer.
// The ignore defaults cover version-control metadata, dependency and
// build output directories, and files that are never useful context.
func DefaultOptions() Options {
	return Options{
		MaxFiles:     5000,
		MaxFileBytes: 1 << 20, // 1 MiB
		IgnorePatterns: []string{
			".git",
			".hg",
			".svn",
			"node_modules",
			"venv",
			".venv",
			"__pycache__",
			".next",
			".cache",
			"dist",
			"build",
			"target",
			".DS_Store",
			".env",
			".env.*",
			"*.pyc",
			"*.lock",
			"*.min.js",
			"*.min.css",
		},
		MaxCandidates:   50,
		MaxContextBytes: 2 << 20, // 2 MiB
		MaxTreeChars:    24_000,
		MaxExcerptLines: 5000,
	}
}
