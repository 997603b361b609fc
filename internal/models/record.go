// Package models defines the domain types for Sowilo.
package models

import "time"

// Placeholder used when a content file carries neither a description nor
// an excerpt.
const DefaultDescription = "No description available."

// ContentRecord is the normalized in-memory representation of one content
// file after frontmatter parsing. Records are rebuilt from the filesystem
// snapshot on each resolution pass and never mutated in place.
type ContentRecord struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Date         string   `json:"date,omitempty"`
	Tags         []string `json:"tags"`
	Category     string   `json:"category,omitempty"`
	Published    bool     `json:"published"`
	Author       string   `json:"author,omitempty"`
	AuthorAvatar string   `json:"authorAvatar,omitempty"`
	AuthorBio    string   `json:"authorBio,omitempty"`
	Image        string   `json:"image,omitempty"`

	// Body is the raw markdown after the frontmatter block. It feeds the
	// search matcher and single-record responses; list endpoints drop it.
	Body string `json:"body,omitempty"`

	// SourcePath is the absolute file path used at scan time. It never
	// appears in API responses.
	SourcePath string `json:"-"`
}

// ParsedTime returns the record date as a time.Time. ok is false when the
// date is absent or unparsable.
func (r ContentRecord) ParsedTime() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, r.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ListItem returns a copy of the record stripped of fields that list and
// aggregation endpoints must not carry (body stays server-side).
func (r ContentRecord) ListItem() ContentRecord {
	r.Body = ""
	r.SourcePath = ""
	return r
}

// Category is the aggregation output for one category directory or
// frontmatter category key.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// TagCount is one entry of the tag frequency aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// RelatedPost is one ranked entry of the related-content aggregation.
type RelatedPost struct {
	ContentRecord
	Score int `json:"score"`
}

// SearchHit is one entry of a text search response.
type SearchHit struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Excerpt string `json:"excerpt"`
}
