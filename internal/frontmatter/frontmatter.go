// Package frontmatter extracts YAML frontmatter and the markdown body
// from raw content files.
package frontmatter

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
)

// Meta holds the frontmatter keys consumed by the content pipeline.
// Unknown keys are ignored.
type Meta struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Excerpt      string   `yaml:"excerpt"`
	Date         string   `yaml:"date"`
	Tags         []string `yaml:"tags"`
	Category     string   `yaml:"category"`
	Published    *bool    `yaml:"published"`
	Author       string   `yaml:"author"`
	AuthorAvatar string   `yaml:"authorAvatar"`
	AuthorBio    string   `yaml:"authorBio"`
	Image        string   `yaml:"image"`
}

// Result holds the output of parsing one content file.
type Result struct {
	Meta Meta
	Body string
}

// Parse splits a leading "---"-delimited YAML block from the body. Input
// without a frontmatter block yields zero-value metadata and the entire
// input as body. Malformed YAML is an error; callers attach the file path
// via apperr.ParseError and choose the batch policy.
func Parse(data []byte) (*Result, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, err
	}
	return &Result{
		Meta: meta,
		Body: strings.TrimLeft(string(body), "\n\r"),
	}, nil
}

// IsPublished reports the published flag, defaulting to true when the
// key is absent.
func (m Meta) IsPublished() bool {
	return m.Published == nil || *m.Published
}

// DescriptionOrExcerpt returns the description, falling back to the
// excerpt. Empty string means neither was set.
func (m Meta) DescriptionOrExcerpt() string {
	if m.Description != "" {
		return m.Description
	}
	return m.Excerpt
}
