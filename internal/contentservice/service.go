// Package contentservice coordinates snapshot resolution and
// aggregation for the API and MCP surfaces.
package contentservice

import (
	"context"

	"github.com/starford/sowilo/internal/aggregate"
	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/store"
)

// Service answers content queries over the configured sources. idx is
// optional; when nil, search runs in-memory over the snapshot.
type Service struct {
	store *store.Store
	idx   *index.DB
}

// NewService creates a content service. idx may be nil.
func NewService(st *store.Store, idx *index.DB) *Service {
	return &Service{store: st, idx: idx}
}

// Store exposes the underlying store (used by the watcher for cache
// invalidation and index rebuilds).
func (s *Service) Store() *store.Store { return s.store }

// Posts returns the published records of a source sorted by date
// descending, stripped of body, along with the snapshot ETag.
func (s *Service) Posts(_ context.Context, source string) ([]models.ContentRecord, string, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, "", err
	}
	sorted := aggregate.SortByDateDesc(aggregate.Published(snap.Records))
	out := make([]models.ContentRecord, len(sorted))
	for i, r := range sorted {
		out[i] = r.ListItem()
	}
	return out, snap.ETag, nil
}

// Post returns one record by slug, including unpublished records (the
// preview path) and the body.
func (s *Service) Post(_ context.Context, source, slug string) (models.ContentRecord, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return models.ContentRecord{}, err
	}
	rec, ok := snap.Get(slug)
	if !ok {
		return models.ContentRecord{}, apperr.ErrNotFound
	}
	rec.SourcePath = ""
	return rec, nil
}

// Categories returns the category aggregation for a source.
func (s *Service) Categories(_ context.Context, source string) ([]models.Category, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	return aggregate.CountByCategory(aggregate.Published(snap.Records), snap.Meta), nil
}

// CategoryItems returns the published records of one category, date
// descending. An id with no published records is a NotFound.
func (s *Service) CategoryItems(_ context.Context, source, id string) ([]models.ContentRecord, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	var matched []models.ContentRecord
	for _, r := range aggregate.Published(snap.Records) {
		cat := r.Category
		if cat == "" {
			cat = aggregate.UncategorizedID
		}
		if cat == id {
			matched = append(matched, r.ListItem())
		}
	}
	if len(matched) == 0 {
		return nil, apperr.ErrNotFound
	}
	return aggregate.SortByDateDesc(matched), nil
}

// TagCounts returns tag frequencies over the published records.
func (s *Service) TagCounts(_ context.Context, source string) ([]models.TagCount, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	return aggregate.CountTags(aggregate.Published(snap.Records)), nil
}

// Timeline returns year buckets over the published records, newest year
// first.
func (s *Service) Timeline(_ context.Context, source string) ([]aggregate.YearGroup, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	groups := aggregate.GroupByYear(aggregate.Published(snap.Records))
	for gi := range groups {
		for ri := range groups[gi].Records {
			groups[gi].Records[ri] = groups[gi].Records[ri].ListItem()
		}
	}
	return groups, nil
}

// Related ranks published records by affinity to the record at slug.
// The target itself may be unpublished (preview), but candidates are
// always published-only.
func (s *Service) Related(_ context.Context, source, slug string, limit int) ([]models.RelatedPost, error) {
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	target, ok := snap.Get(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return aggregate.Related(target, aggregate.Published(snap.Records), limit), nil
}

// Search matches query against the published records of a source. The
// SQLite index serves the query when configured; otherwise the snapshot
// is matched in memory. Both paths share substring semantics and tier
// ranking.
func (s *Service) Search(_ context.Context, source, query string, limit int) ([]models.SearchHit, error) {
	src, ok := s.store.Source(source)
	if !ok {
		return nil, apperr.ErrUnknownSource
	}

	if s.idx != nil {
		hits, err := s.idx.Search(source, query, limit)
		if err != nil {
			return nil, err
		}
		out := make([]models.SearchHit, len(hits))
		for i, h := range hits {
			out[i] = models.SearchHit{
				Title:   h.Title,
				Path:    src.BasePath + "/" + h.Slug,
				Excerpt: h.Description,
			}
		}
		return out, nil
	}

	snap, err := s.store.Snapshot(source)
	if err != nil {
		return nil, err
	}
	matched := aggregate.SearchText(query, aggregate.Published(snap.Records), limit)
	out := make([]models.SearchHit, len(matched))
	for i, r := range matched {
		out[i] = models.SearchHit{
			Title:   r.Title,
			Path:    src.BasePath + "/" + r.Slug,
			Excerpt: r.Description,
		}
	}
	return out, nil
}

// RebuildIndex repopulates the search index for one source from a fresh
// snapshot. No-op when no index is configured.
func (s *Service) RebuildIndex(source string) error {
	if s.idx == nil {
		return nil
	}
	snap, err := s.store.Snapshot(source)
	if err != nil {
		return err
	}
	return s.idx.ReplaceSource(source, snap.Records)
}
