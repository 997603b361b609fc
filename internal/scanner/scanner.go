// Package scanner walks a content root and yields the file paths that
// make up a content source.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/sowilo/internal/apperr"
)

// Options controls which files a scan yields.
type Options struct {
	// Extensions lists accepted file extensions including the dot,
	// e.g. ".md", ".mdx".
	Extensions []string

	// ExcludePrefix hides any file or directory whose name starts with
	// it. Defaults to "_" (metadata files, draft folders).
	ExcludePrefix string

	// IndexFiles lists filenames that promote their directory to a
	// single leaf item, e.g. "index.mdx". A directory containing one is
	// not recursed into further.
	IndexFiles []string
}

// DefaultOptions are the scan options used by all built-in content
// sources.
func DefaultOptions() Options {
	return Options{
		Extensions:    []string{".md", ".mdx"},
		ExcludePrefix: "_",
		IndexFiles:    []string{"index.md", "index.mdx"},
	}
}

// Scan recursively walks root depth-first and returns absolute paths of
// matching content files, sorted lexicographically so downstream output
// is reproducible for an unchanged tree. Symlinked directories are not
// followed. An unreadable directory aborts the scan with an
// apperr.ScanError naming the offending path.
func Scan(root string, opts Options) ([]string, error) {
	if opts.ExcludePrefix == "" {
		opts.ExcludePrefix = "_"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}
	var out []string
	if err := walk(abs, opts, &out, true); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func walk(dir string, opts Options, out *[]string, isRoot bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &apperr.ScanError{Path: dir, Err: err}
	}

	// Directory-with-index wins over nested children: the whole
	// directory is one item named after the index file. The root itself
	// is never collapsed.
	if !isRoot {
		for _, idx := range opts.IndexFiles {
			for _, e := range entries {
				if !e.IsDir() && e.Name() == idx {
					*out = append(*out, filepath.Join(dir, idx))
					return nil
				}
			}
		}
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, opts.ExcludePrefix) {
			continue
		}
		p := filepath.Join(dir, name)
		if e.IsDir() {
			// DirEntry.IsDir is false for symlinks, so cycles via
			// symlinked directories are never entered.
			if err := walk(p, opts, out, false); err != nil {
				return err
			}
			continue
		}
		if matchesExt(name, opts.Extensions) {
			*out = append(*out, p)
		}
	}
	return nil
}

func matchesExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// SafeJoin resolves rel against root and rejects any result that escapes
// it (directory traversal). Used by the asset handler to serve images
// from content roots.
func SafeJoin(root, rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("scanner: absolute paths not allowed: %s", rel)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("scanner: resolve root: %w", err)
	}
	joined := filepath.Join(absRoot, cleaned)
	if !strings.HasPrefix(joined, absRoot+string(os.PathSeparator)) && joined != absRoot {
		return "", fmt.Errorf("scanner: path escapes content root: %s", rel)
	}
	return joined, nil
}
