package engine

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeRel normalizes a project-relative path as written by the
// generator into the canonical slash-separated form used by the file
// tree index. It is a pure string function — no filesystem access —
// so traversal-escape checks are testable without real directories.
//
// Rejected: empty paths, absolute paths (both /x and C:\x forms), and
// any path whose cleaned form escapes the project root via ".." segments.
func NormalizeRel(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}

	// Generators emit both separators; fold to slash before cleaning.
	p = strings.ReplaceAll(p, `\`, "/")

	if path.IsAbs(p) || hasDrivePrefix(p) {
		return "", fmt.Errorf("absolute path %q not allowed", p)
	}

	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes the project root", p)
	}
	if clean == "." {
		return "", fmt.Errorf("path %q does not name a file", p)
	}
	return clean, nil
}

// hasDrivePrefix reports whether p starts with a Windows drive letter
// like "C:/". path.IsAbs only understands slash-rooted paths.
func hasDrivePrefix(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}
