// Package aggregate computes derived views (counts, groupings, rankings)
// over sets of ContentRecords. All functions are pure and deterministic:
// identical input slices always produce identical output.
package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/sowilo/internal/dirmeta"
	"github.com/starford/sowilo/internal/models"
)

// UncategorizedID is the category bucket for records without a category.
const UncategorizedID = "uncategorized"

// UnknownYear is the timeline bucket for records whose date is absent or
// unparsable.
const UnknownYear = "unknown"

// Published filters records down to the published ones. Unpublished
// records stay addressable by direct slug lookup but never feed any
// aggregation.
func Published(records []models.ContentRecord) []models.ContentRecord {
	out := make([]models.ContentRecord, 0, len(records))
	for _, r := range records {
		if r.Published {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc returns a new slice sorted by date descending. Records
// without a parsable date sort after all dated records and keep their
// relative input order, as do equal dates (stable sort).
func SortByDateDesc(records []models.ContentRecord) []models.ContentRecord {
	out := make([]models.ContentRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		ti, iok := out[i].ParsedTime()
		tj, jok := out[j].ParsedTime()
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// CountByCategory groups records by category and merges in directory
// metadata looked up by category id. Missing metadata defaults the title
// to the id and the description to a templated fallback. Output is
// sorted by id ascending.
func CountByCategory(records []models.ContentRecord, meta map[string]dirmeta.Meta) []models.Category {
	counts := make(map[string]int)
	for _, r := range records {
		id := r.Category
		if id == "" {
			id = UncategorizedID
		}
		counts[id]++
	}

	out := make([]models.Category, 0, len(counts))
	for id, n := range counts {
		c := models.Category{ID: id, Title: id, Count: n}
		if m, ok := meta[id]; ok {
			if m.Title != "" {
				c.Title = m.Title
			}
			c.Description = m.Description
		}
		if c.Description == "" {
			c.Description = fmt.Sprintf("Articles and guides about %s.", id)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CountTags counts tag occurrences across all tag array entries: a tag
// repeated inside one record counts multiply. Output is sorted by count
// descending; ties keep first-seen order.
func CountTags(records []models.ContentRecord) []models.TagCount {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		for _, tag := range r.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	out := make([]models.TagCount, 0, len(order))
	for _, tag := range order {
		out = append(out, models.TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// YearGroup is one timeline bucket.
type YearGroup struct {
	Year    string
	Records []models.ContentRecord
}

// GroupByYear buckets records by the year of their date. Absent or
// unparsable dates land in the "unknown" bucket. Buckets are ordered by
// year descending, compared numerically ("2100" before "99"); the
// unknown bucket, when present, comes last. Records within a bucket are
// sorted by date descending.
func GroupByYear(records []models.ContentRecord) []YearGroup {
	buckets := make(map[string][]models.ContentRecord)
	for _, r := range SortByDateDesc(records) {
		year := UnknownYear
		if t, ok := r.ParsedTime(); ok {
			year = strconv.Itoa(t.Year())
		}
		buckets[year] = append(buckets[year], r)
	}

	years := make([]string, 0, len(buckets))
	for y := range buckets {
		if y != UnknownYear {
			years = append(years, y)
		}
	}
	sort.Slice(years, func(i, j int) bool {
		a, _ := strconv.Atoi(years[i])
		b, _ := strconv.Atoi(years[j])
		return a > b
	})
	if _, ok := buckets[UnknownYear]; ok {
		years = append(years, UnknownYear)
	}

	out := make([]YearGroup, 0, len(years))
	for _, y := range years {
		out = append(out, YearGroup{Year: y, Records: buckets[y]})
	}
	return out
}

// Related ranks records by affinity to target: 3 points for a matching
// category plus 2 points per shared distinct tag. Only positive scores
// qualify; ties break by date descending. The target itself is excluded
// by slug equality. limit defaults to 4.
func Related(target models.ContentRecord, records []models.ContentRecord, limit int) []models.RelatedPost {
	if limit <= 0 {
		limit = 4
	}
	targetTags := make(map[string]struct{}, len(target.Tags))
	for _, t := range target.Tags {
		targetTags[t] = struct{}{}
	}

	var out []models.RelatedPost
	for _, r := range SortByDateDesc(records) {
		if r.Slug == target.Slug {
			continue
		}
		score := 0
		if target.Category != "" && r.Category == target.Category {
			score += 3
		}
		seen := make(map[string]struct{}, len(r.Tags))
		for _, t := range r.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, shared := targetTags[t]; shared {
				score += 2
			}
		}
		if score > 0 {
			out = append(out, models.RelatedPost{ContentRecord: r.ListItem(), Score: score})
		}
	}
	// Input is already date-ordered, so a stable score sort leaves ties
	// by date descending.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SearchText matches query as a case-insensitive substring of title,
// description, and body. Results are ranked in tiers: title matches
// first, then description matches, then body-only matches; input order
// is preserved within a tier. limit defaults to 20.
func SearchText(query string, records []models.ContentRecord, limit int) []models.ContentRecord {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)

	var byTier [3][]models.ContentRecord
	for _, r := range records {
		switch {
		case strings.Contains(strings.ToLower(r.Title), q):
			byTier[0] = append(byTier[0], r)
		case strings.Contains(strings.ToLower(r.Description), q):
			byTier[1] = append(byTier[1], r)
		case strings.Contains(strings.ToLower(r.Body), q):
			byTier[2] = append(byTier[2], r)
		}
	}

	var out []models.ContentRecord
	for _, tier := range byTier {
		out = append(out, tier...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
