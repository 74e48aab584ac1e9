package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NodeKind distinguishes files from directories in the tree.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeDir
)

// FileNode is one entry in the scanned repository tree. Path is
// slash-separated and relative to the project root ("." for the root
// itself). Unreadable marks files whose content must never be read:
// known binary extensions and files over the per-file byte cap.
type FileNode struct {
	Path       string
	Name       string
	Kind       NodeKind
	Size       int64
	Unreadable bool
	Children   []*FileNode
}

// FileTree is the result of one repository scan: the root node plus a
// flat path index for O(1) lookup during resolution. A tree is owned
// by a single pipeline run and rebuilt fresh on every query — the
// filesystem may change between calls.
type FileTree struct {
	Root    *FileNode
	RootDir string // absolute, symlinks resolved

	// Skipped counts unreadable or out-of-root entries that were
	// dropped during the scan. Never fatal.
	Skipped int

	// Truncated is set when the MaxFiles cap cut the scan short.
	Truncated bool

	index map[string]*FileNode
}

// Lookup returns the node for a normalized relative path.
func (t *FileTree) Lookup(rel string) (*FileNode, bool) {
	n, ok := t.index[rel]
	return n, ok
}

// Files returns all file nodes in deterministic scan order.
func (t *FileTree) Files() []*FileNode {
	var out []*FileNode
	var walk func(n *FileNode)
	walk = func(n *FileNode) {
		if n.Kind == NodeFile {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

// binaryExtensions are never read, regardless of size. Content-level
// null-byte sniffing happens later, at resolution time, for anything
// this list misses.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".ico": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".bz2": true, ".xz": true, ".7z": true, ".jar": true, ".class": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
	".o": true, ".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wasm": true,
}

type scanner struct {
	opts    Options
	tree    *FileTree
	visited map[string]bool // resolved dir paths, guards symlink cycles
	nodes   int
}

// ScanRepository walks root depth-first — directories before their
// children, siblings in lexicographic order — and builds a bounded
// FileTree. A root that does not exist or is not a directory is a
// fatal input error; individual unreadable entries are counted in
// Skipped and never abort the scan. Symlinks are followed only when
// the resolved target stays inside the root.
func ScanRepository(root string, opts Options) (*FileTree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving root %q: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("engine: root %q: %w", root, errRootMissing(err))
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("engine: root %q: %w", root, errRootMissing(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("engine: root %q: %w", root, ErrRootNotDirectory)
	}

	rootNode := &FileNode{Path: ".", Name: path.Base(resolved), Kind: NodeDir}
	s := &scanner{
		opts:    opts,
		tree:    &FileTree{Root: rootNode, RootDir: resolved, index: map[string]*FileNode{".": rootNode}},
		visited: map[string]bool{resolved: true},
		nodes:   1,
	}
	s.scanDir(resolved, ".", rootNode)
	return s.tree, nil
}

func errRootMissing(err error) error {
	if os.IsNotExist(err) {
		return ErrRootNotFound
	}
	return err
}

func (s *scanner) scanDir(dir, rel string, parent *FileNode) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.tree.Skipped++
		return
	}
	// os.ReadDir sorts by name already; keep the sort explicit so the
	// determinism contract does not depend on that implementation detail.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if s.nodes >= s.opts.MaxFiles {
			s.tree.Truncated = true
			return
		}

		name := entry.Name()
		childRel := name
		if rel != "." {
			childRel = rel + "/" + name
		}
		if s.ignored(childRel, name) {
			continue
		}

		full := filepath.Join(dir, name)
		isDir := entry.IsDir()
		var size int64

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(full)
			if err != nil || !withinRoot(s.tree.RootDir, target) {
				s.tree.Skipped++
				continue
			}
			ti, err := os.Stat(target)
			if err != nil {
				s.tree.Skipped++
				continue
			}
			isDir = ti.IsDir()
			size = ti.Size()
			if isDir {
				if s.visited[target] {
					s.tree.Skipped++
					continue
				}
				s.visited[target] = true
			}
			full = target
		} else if !isDir {
			fi, err := entry.Info()
			if err != nil {
				s.tree.Skipped++
				continue
			}
			size = fi.Size()
		}

		node := &FileNode{Path: childRel, Name: name, Size: size}
		if isDir {
			node.Kind = NodeDir
		} else {
			node.Kind = NodeFile
			node.Unreadable = size > s.opts.MaxFileBytes ||
				binaryExtensions[strings.ToLower(path.Ext(name))]
		}

		parent.Children = append(parent.Children, node)
		s.tree.index[childRel] = node
		s.nodes++

		if isDir {
			s.scanDir(full, childRel, node)
		}
	}
}

func (s *scanner) ignored(rel, name string) bool {
	for _, pattern := range s.opts.IgnorePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// withinRoot reports whether target (already symlink-resolved) lives
// inside root. Both must be absolute.
func withinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
