// Package resolver turns scanned content files into normalized
// ContentRecords.
package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/frontmatter"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/scanner"
)

// Config describes one content root and how records are derived from it.
type Config struct {
	// Root is the content root directory.
	Root string

	// CategoryFromDir derives a missing category from the top-level
	// subdirectory under the root (docs, links). Blog-style sources use
	// the frontmatter category only.
	CategoryFromDir bool

	// Scan controls which files the root yields. Zero value means
	// scanner.DefaultOptions.
	Scan scanner.Options
}

func (c Config) scanOptions() scanner.Options {
	if len(c.Scan.Extensions) == 0 && len(c.Scan.IndexFiles) == 0 && c.Scan.ExcludePrefix == "" {
		return scanner.DefaultOptions()
	}
	return c.Scan
}

// Resolve reads and parses a single content file into a ContentRecord.
// path must be inside cfg.Root.
func Resolve(path string, cfg Config) (models.ContentRecord, error) {
	var rec models.ContentRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("resolver: read %s: %w", filepath.Base(path), err)
	}

	res, err := frontmatter.Parse(data)
	if err != nil {
		return rec, &apperr.ParseError{Path: path, Err: err}
	}

	slug, err := Slug(path, cfg.Root, cfg.scanOptions().IndexFiles)
	if err != nil {
		return rec, err
	}

	meta := res.Meta
	rec = models.ContentRecord{
		Slug:         slug,
		Title:        meta.Title,
		Description:  meta.DescriptionOrExcerpt(),
		Date:         meta.Date,
		Tags:         meta.Tags,
		Category:     meta.Category,
		Published:    meta.IsPublished(),
		Author:       meta.Author,
		AuthorAvatar: meta.AuthorAvatar,
		AuthorBio:    meta.AuthorBio,
		Image:        meta.Image,
		Body:         res.Body,
		SourcePath:   path,
	}
	if rec.Title == "" {
		rec.Title = lastSegment(slug)
	}
	if rec.Description == "" {
		rec.Description = models.DefaultDescription
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.Category == "" && cfg.CategoryFromDir {
		if i := strings.Index(slug, "/"); i > 0 {
			rec.Category = slug[:i]
		}
	}
	return rec, nil
}

// ResolveAll scans cfg.Root and resolves every content file. A file with
// malformed frontmatter is skipped and logged; the batch continues. Two
// files resolving to the same slug abort with DuplicateSlugError.
// Records are returned in scan order (lexicographic by path).
func ResolveAll(cfg Config, logger *slog.Logger) ([]models.ContentRecord, error) {
	paths, err := scanner.Scan(cfg.Root, cfg.scanOptions())
	if err != nil {
		return nil, err
	}

	records := make([]models.ContentRecord, 0, len(paths))
	bySlug := make(map[string]string, len(paths))
	for _, p := range paths {
		rec, err := Resolve(p, cfg)
		if err != nil {
			var parseErr *apperr.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("resolver: skipping malformed file",
					slog.String("path", p),
					slog.String("error", err.Error()))
				continue
			}
			return nil, err
		}
		if first, dup := bySlug[rec.Slug]; dup {
			return nil, &apperr.DuplicateSlugError{Slug: rec.Slug, First: first, Second: p}
		}
		bySlug[rec.Slug] = p
		records = append(records, rec)
	}
	return records, nil
}

// Slug derives the canonical slug for a content file: the path relative
// to root with the extension stripped and separators normalized to "/".
// Index files below the root take their directory's slug.
func Slug(path, root string, indexFiles []string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolver: resolve root: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolver: resolve path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("resolver: %s is outside root %s", path, root)
	}

	base := filepath.Base(rel)
	for _, idx := range indexFiles {
		if base == idx {
			// The root itself is never collapsed: a root-level index
			// file resolves like any other file.
			if dir := filepath.Dir(rel); dir != "." {
				return filepath.ToSlash(dir), nil
			}
			break
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel), nil
}

func lastSegment(slug string) string {
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		return slug[i+1:]
	}
	return slug
}
