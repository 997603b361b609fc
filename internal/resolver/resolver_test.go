package resolver

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/testutil"
)

func TestResolve_FullFrontmatter(t *testing.T) {
	root := t.TempDir()
	doc := testutil.Doc(t, map[string]any{
		"title":       "My Post",
		"description": "About things",
		"date":        "2024-06-01",
		"tags":        []string{"go", "web"},
		"category":    "dev",
	}, "Body here.\n")
	testutil.WriteFile(t, root, "dev/my-post.md", doc)

	rec, err := Resolve(filepath.Join(root, "dev/my-post.md"), Config{Root: root})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Slug != "dev/my-post" {
		t.Errorf("slug = %q", rec.Slug)
	}
	if rec.Title != "My Post" || rec.Description != "About things" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.Category != "dev" || !rec.Published {
		t.Errorf("rec = %+v", rec)
	}
	if rec.Body != "Body here.\n" {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestResolve_Defaults(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "guides/bare-notes.md", "just a body\n")

	rec, err := Resolve(filepath.Join(root, "guides/bare-notes.md"), Config{Root: root})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Title != "bare-notes" {
		t.Errorf("title = %q, want last slug segment", rec.Title)
	}
	if rec.Description != models.DefaultDescription {
		t.Errorf("description = %q", rec.Description)
	}
	if !rec.Published {
		t.Error("published should default to true")
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Errorf("tags = %#v, want empty slice", rec.Tags)
	}
	if rec.Category != "" {
		t.Errorf("category = %q, want empty without CategoryFromDir", rec.Category)
	}
}

func TestResolve_CategoryFromDir(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "tools/editors.md", "body")
	testutil.WriteFile(t, root, "top-level.md", "body")

	rec, err := Resolve(filepath.Join(root, "tools/editors.md"), Config{Root: root, CategoryFromDir: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Category != "tools" {
		t.Errorf("category = %q, want tools", rec.Category)
	}

	rec, err = Resolve(filepath.Join(root, "top-level.md"), Config{Root: root, CategoryFromDir: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Category != "" {
		t.Errorf("category = %q, want empty for root-level file", rec.Category)
	}
}

func TestResolve_FrontmatterCategoryWinsOverDir(t *testing.T) {
	root := t.TempDir()
	doc := testutil.Doc(t, map[string]any{"category": "explicit"}, "body")
	testutil.WriteFile(t, root, "dirname/post.md", doc)

	rec, err := Resolve(filepath.Join(root, "dirname/post.md"), Config{Root: root, CategoryFromDir: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Category != "explicit" {
		t.Errorf("category = %q, want explicit", rec.Category)
	}
}

func TestSlug_IndexFileTakesDirectorySlug(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "guides/setup/index.mdx", "body")

	slug, err := Slug(filepath.Join(root, "guides/setup/index.mdx"), root, []string{"index.md", "index.mdx"})
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	if slug != "guides/setup" {
		t.Errorf("slug = %q, want guides/setup", slug)
	}
}

func TestSlug_RootIndexFileResolvesLikeAPlainFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "index.md", "body")

	slug, err := Slug(filepath.Join(root, "index.md"), root, []string{"index.md", "index.mdx"})
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	// A root-level index file must not collapse to the root's slug.
	if slug != "index" {
		t.Errorf("slug = %q, want index", slug)
	}
}

func TestResolveAll_RootIndexFileGetsRealSlug(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "index.md", testutil.Doc(t, map[string]any{"title": "Root Index"}, "body"))
	testutil.WriteFile(t, root, "post.md", "body")

	records, err := ResolveAll(Config{Root: root}, testutil.Logger())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v, want 2", records)
	}
	for _, r := range records {
		if r.Slug == "." || r.Slug == "" {
			t.Errorf("degenerate slug %q for %s", r.Slug, r.SourcePath)
		}
	}
	if records[0].Slug != "index" || records[1].Slug != "post" {
		t.Errorf("slugs = [%q %q], want [index post]", records[0].Slug, records[1].Slug)
	}
}

func TestResolveAll_DuplicateSlugFailsLoudly(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "post.md", "md flavor")
	testutil.WriteFile(t, root, "post.mdx", "mdx flavor")

	_, err := ResolveAll(Config{Root: root}, testutil.Logger())
	var dupErr *apperr.DuplicateSlugError
	if !errors.As(err, &dupErr) {
		t.Fatalf("err = %v, want DuplicateSlugError", err)
	}
	if dupErr.Slug != "post" {
		t.Errorf("slug = %q", dupErr.Slug)
	}
	if dupErr.First == "" || dupErr.Second == "" {
		t.Errorf("error should name both files: %+v", dupErr)
	}
}

func TestResolveAll_SkipsMalformedFileAndContinues(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "bad.md", "---\n: invalid: yaml: {{{\n---\nbody")
	testutil.WriteFile(t, root, "good.md", testutil.Doc(t, map[string]any{"title": "Good"}, "body"))

	records, err := ResolveAll(Config{Root: root}, testutil.Logger())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(records) != 1 || records[0].Slug != "good" {
		t.Errorf("records = %+v, want only the good file", records)
	}
}

func TestResolveAll_Idempotent(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a/one.md", testutil.Doc(t, map[string]any{"title": "One", "date": "2024-01-01"}, "body one"))
	testutil.WriteFile(t, root, "b/two.md", testutil.Doc(t, map[string]any{"title": "Two", "tags": []string{"x"}}, "body two"))
	testutil.WriteFile(t, root, "three.md", "plain body")

	first, err := ResolveAll(Config{Root: root}, testutil.Logger())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	second, err := ResolveAll(Config{Root: root}, testutil.Logger())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("resolution not idempotent (-first +second):\n%s", diff)
	}
}
