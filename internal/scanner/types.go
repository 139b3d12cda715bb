// Package scanner walks a document root once and describes every file it
// finds. It is the filesystem walker shared by the indexer and the
// filename phase of search.
package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo is a read-only snapshot of one file under the document root.
type FileInfo struct {
	Path    string    // Relative to the root, always slash-separated
	AbsPath string    // Absolute path on disk
	Name    string    // Display name (base name)
	Ext     string    // Lowercased extension including the dot, "" if none
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures a walk.
type ScanOptions struct {
	// Root is the document root. Required.
	Root string

	// Extensions restricts results to these extensions (lowercase, with dot).
	// Empty means every file is reported.
	Extensions []string

	// ExcludePatterns are glob patterns matched against path components and
	// base names. "dir/**" excludes a subtree relative to the root.
	ExcludePatterns []string

	// IncludeHidden walks dot-files and dot-directories.
	IncludeHidden bool

	// FollowSymlinks reports symlinked regular files.
	FollowSymlinks bool
}

// ScanResult is one item on the scan channel. Exactly one field is set.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// Ext returns the lowercased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// extensionSet builds a lookup set; nil means "accept everything".
func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
