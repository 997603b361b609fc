package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/sowilo/internal/dirmeta"
	"github.com/starford/sowilo/internal/models"
)

func rec(slug, date, category string, tags ...string) models.ContentRecord {
	return models.ContentRecord{
		Slug:      slug,
		Title:     slug,
		Date:      date,
		Category:  category,
		Tags:      tags,
		Published: true,
	}
}

func slugs(records []models.ContentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Slug
	}
	return out
}

func TestSortByDateDesc_StableUnderMissingDates(t *testing.T) {
	in := []models.ContentRecord{
		rec("a", "2024-01-01", ""),
		rec("b", "", ""),
		rec("c", "2023-01-01", ""),
		rec("d", "", ""),
	}
	got := slugs(SortByDateDesc(in))
	want := []string{"a", "c", "b", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortByDateDesc_InputUntouched(t *testing.T) {
	in := []models.ContentRecord{
		rec("old", "2020-01-01", ""),
		rec("new", "2024-01-01", ""),
	}
	_ = SortByDateDesc(in)
	if in[0].Slug != "old" {
		t.Error("input slice must not be mutated")
	}
}

func TestPublished_FiltersUnpublished(t *testing.T) {
	hidden := rec("hidden", "2024-01-01", "dev")
	hidden.Published = false
	got := Published([]models.ContentRecord{rec("shown", "", ""), hidden})
	if len(got) != 1 || got[0].Slug != "shown" {
		t.Errorf("got = %v", slugs(got))
	}
}

func TestCountByCategory(t *testing.T) {
	records := []models.ContentRecord{
		rec("a", "", "dev"),
		rec("b", "", "dev"),
		rec("c", "", ""),
	}
	meta := map[string]dirmeta.Meta{
		"dev": {Title: "Development", Description: "Dev guides"},
	}
	got := CountByCategory(records, meta)
	want := []models.Category{
		{ID: "dev", Title: "Development", Description: "Dev guides", Count: 2},
		{ID: UncategorizedID, Title: UncategorizedID, Description: "Articles and guides about uncategorized.", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCountTags_OccurrenceCountingAndTieOrder(t *testing.T) {
	records := []models.ContentRecord{
		rec("1", "", "", "a", "b"),
		rec("2", "", "", "a"),
		rec("3", "", "", "b", "b"),
	}
	got := CountTags(records)
	// b appears three times across all tag array entries (one record
	// lists it twice); a appears twice.
	want := []models.TagCount{
		{Tag: "b", Count: 3},
		{Tag: "a", Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tag counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCountTags_TiesKeepFirstSeenOrder(t *testing.T) {
	records := []models.ContentRecord{
		rec("1", "", "", "zulu", "alpha"),
	}
	got := CountTags(records)
	if got[0].Tag != "zulu" || got[1].Tag != "alpha" {
		t.Errorf("got = %v, want first-seen order on ties", got)
	}
}

func TestGroupByYear_NumericDescending(t *testing.T) {
	records := []models.ContentRecord{
		rec("small", "0099-03-01", ""),
		rec("big", "2100-01-01", ""),
		rec("none", "", ""),
	}
	groups := GroupByYear(records)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	// Numeric descending: 2100 before 99; lexicographic would invert.
	if groups[0].Year != "2100" || groups[1].Year != "99" {
		t.Errorf("years = [%s %s], want [2100 99]", groups[0].Year, groups[1].Year)
	}
	if groups[2].Year != UnknownYear {
		t.Errorf("last bucket = %s, want %s", groups[2].Year, UnknownYear)
	}
}

func TestGroupByYear_BucketsSortedByDate(t *testing.T) {
	records := []models.ContentRecord{
		rec("jan", "2024-01-01", ""),
		rec("jun", "2024-06-01", ""),
	}
	groups := GroupByYear(records)
	if len(groups) != 1 || groups[0].Year != "2024" {
		t.Fatalf("groups = %+v", groups)
	}
	if got := slugs(groups[0].Records); got[0] != "jun" || got[1] != "jan" {
		t.Errorf("bucket order = %v, want date descending", got)
	}
}

func TestRelated_ScoringOrder(t *testing.T) {
	target := rec("target", "", "dev", "x", "y")
	// Scores: cat-and-tag 3+2=5, tags-only 2+2=4, cat-only 3, unrelated 0.
	candidates := []models.ContentRecord{
		rec("cat-only", "", "dev"),
		rec("tags-only", "", "other", "x", "y"),
		rec("cat-and-tag", "", "dev", "x"),
		rec("unrelated", "", "other", "z"),
	}
	got := Related(target, candidates, 0)
	want := []string{"cat-and-tag", "tags-only", "cat-only"}
	if len(got) != len(want) {
		t.Fatalf("got = %+v, want 3 entries", got)
	}
	for i := range want {
		if got[i].Slug != want[i] {
			t.Errorf("got[%d] = %q (score %d), want %q", i, got[i].Slug, got[i].Score, want[i])
		}
	}
	if got[0].Score != 5 || got[1].Score != 4 || got[2].Score != 3 {
		t.Errorf("scores = [%d %d %d], want [5 4 3]", got[0].Score, got[1].Score, got[2].Score)
	}
}

func TestRelated_ExcludesTargetBySlug(t *testing.T) {
	target := rec("self", "", "dev", "x")
	// Same slug, different instance: excluded by slug equality, not
	// reference identity.
	clone := rec("self", "", "dev", "x")
	got := Related(target, []models.ContentRecord{clone}, 0)
	if len(got) != 0 {
		t.Errorf("got = %+v, want target excluded", got)
	}
}

func TestRelated_TiesBreakByDateDesc(t *testing.T) {
	target := rec("target", "", "dev")
	older := rec("older", "2020-01-01", "dev")
	newer := rec("newer", "2024-01-01", "dev")
	got := Related(target, []models.ContentRecord{older, newer}, 0)
	if len(got) != 2 || got[0].Slug != "newer" {
		t.Errorf("got = %+v, want newer first on equal score", got)
	}
}

func TestRelated_Limit(t *testing.T) {
	target := rec("target", "", "dev")
	var candidates []models.ContentRecord
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		candidates = append(candidates, rec(s, "", "dev"))
	}
	if got := Related(target, candidates, 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	// Default limit.
	if got := Related(target, candidates, 0); len(got) != 4 {
		t.Errorf("len = %d, want default limit 4", len(got))
	}
}

func TestSearchText_TieredRanking(t *testing.T) {
	records := []models.ContentRecord{
		{Slug: "body", Title: "Other", Description: "Other", Body: "mentions widget here", Published: true},
		{Slug: "desc", Title: "Other", Description: "A widget study", Published: true},
		{Slug: "title", Title: "Widget Guide", Description: "Other", Published: true},
	}
	got := slugs(SearchText("widget", records, 0))
	want := []string{"title", "desc", "body"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchText_CaseInsensitiveSubstring(t *testing.T) {
	records := []models.ContentRecord{
		{Slug: "hit", Title: "Deploying with DOCKER", Published: true},
	}
	if got := SearchText("docker", records, 0); len(got) != 1 {
		t.Errorf("got = %v, want case-insensitive hit", slugs(got))
	}
	if got := SearchText("kubernetes", records, 0); len(got) != 0 {
		t.Errorf("got = %v, want no hit", slugs(got))
	}
}

func TestSearchText_Limit(t *testing.T) {
	var records []models.ContentRecord
	for _, s := range []string{"a", "b", "c"} {
		records = append(records, models.ContentRecord{Slug: s, Title: "match " + s, Published: true})
	}
	if got := SearchText("match", records, 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
