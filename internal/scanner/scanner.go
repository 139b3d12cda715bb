package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
)

// resultBuffer is the scan channel capacity.
const resultBuffer = 64

// Scanner discovers files under a document root.
type Scanner struct {
	logger *slog.Logger
}

// New creates a Scanner. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan walks opts.Root once and streams every matching file. Each file is
// reported at most once, classified by its lowercased extension. The
// channel is closed when the walk ends; a walk error is delivered as the
// last item. Cancelling ctx stops the walk.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil || opts.Root == "" {
		return nil, fmt.Errorf("scan root is required")
	}

	absRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	results := make(chan ScanResult, resultBuffer)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, results)
	}()

	return results, nil
}

// List collects a whole scan. It is the listRecursive(root, extensions)
// operation used where streaming is not needed.
func (s *Scanner) List(ctx context.Context, opts *ScanOptions) ([]*FileInfo, error) {
	ch, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	var walkErr error
	for res := range ch {
		if res.Error != nil {
			walkErr = res.Error
			continue
		}
		files = append(files, res.File)
	}
	if walkErr != nil {
		return files, walkErr
	}
	return files, ctx.Err()
}

// Exists reports whether rel names a regular file inside root.
// Paths escaping the root report false.
func (s *Scanner) Exists(root, rel string) bool {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return false
	}
	info, err := os.Stat(filepath.Join(root, clean))
	return err == nil && info.Mode().IsRegular()
}

func (s *Scanner) walk(ctx context.Context, absRoot string, opts *ScanOptions, results chan<- ScanResult) {
	exts := extensionSet(opts.Extensions)

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger.Debug("scan_skip_unreadable",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if excluded(relPath, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(relPath, opts) {
			return nil
		}

		ext := Ext(d.Name())
		if exts != nil {
			if _, ok := exts[ext]; !ok {
				return nil
			}
		}

		info, ok := s.regularFileInfo(path, d, opts)
		if !ok {
			return nil
		}

		file := &FileInfo{
			Path:    relPath,
			AbsPath: path,
			Name:    d.Name(),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case results <- ScanResult{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// regularFileInfo resolves symlinks when allowed and rejects anything that
// is not a regular file.
func (s *Scanner) regularFileInfo(path string, d fs.DirEntry, opts *ScanOptions) (fs.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !opts.FollowSymlinks {
			return nil, false
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		return info, true
	}

	info, err := d.Info()
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

// excluded applies the hidden-file rule and the exclude patterns.
func excluded(relPath string, opts *ScanOptions) bool {
	return Excluded(relPath, opts.ExcludePatterns, opts.IncludeHidden)
}

// Excluded reports whether the walker would skip relPath (slash-separated,
// relative to the root), either directly or because an ancestor directory
// is skipped. The watcher uses it to ignore the same files.
func Excluded(relPath string, patterns []string, includeHidden bool) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for i, name := range parts {
		if name == "" || name == "." {
			continue
		}
		if !includeHidden && strings.HasPrefix(name, ".") {
			return true
		}
		prefix := strings.Join(parts[:i+1], "/")
		for _, pattern := range patterns {
			if matchPattern(prefix, name, pattern) {
				return true
			}
		}
	}
	return false
}

// matchPattern matches one exclude pattern:
//   - "dir/**" matches that subtree relative to the root
//   - "**/dir/**" matches a directory of that name at any depth
//   - a pattern containing "/" is globbed against the relative path
//   - anything else is globbed against the base name
func matchPattern(relPath, name, pattern string) bool {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}

	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if anywhere, ok := strings.CutPrefix(prefix, "**/"); ok {
			return strings.Contains("/"+relPath+"/", "/"+anywhere+"/")
		}
		return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
	}

	if strings.Contains(pattern, "/") {
		matched, err := pathpkg.Match(pattern, relPath)
		return err == nil && matched
	}

	matched, err := pathpkg.Match(pattern, name)
	return err == nil && matched
}
