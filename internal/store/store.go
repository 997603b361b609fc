// Package store resolves content sources into snapshots and optionally
// caches them between requests.
//
// The filesystem tree is the store of record: a snapshot is a pure
// function of the tree at the instant it was resolved. Recomputing on
// every request is the correctness baseline; the TTL cache is an
// opt-in optimization invalidated by the file watcher.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/dirmeta"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/resolver"
)

// Source describes one configured content root.
type Source struct {
	// Name is the URL segment identifying the source (blog, docs, links).
	Name string

	// BasePath is the public path prefix for links into this source,
	// e.g. "/blog".
	BasePath string

	Resolver resolver.Config
}

// Snapshot is the resolved state of one source at a point in time.
// Snapshots are immutable once built.
type Snapshot struct {
	Records    []models.ContentRecord
	Meta       map[string]dirmeta.Meta
	ETag       string
	ResolvedAt time.Time
}

// Get returns the record with the given slug, including unpublished ones
// (direct lookup is the preview path).
func (s *Snapshot) Get(slug string) (models.ContentRecord, bool) {
	for _, r := range s.Records {
		if r.Slug == slug {
			return r, true
		}
	}
	return models.ContentRecord{}, false
}

// Store holds the configured sources and their cached snapshots.
type Store struct {
	sources map[string]Source
	order   []string
	ttl     time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*Snapshot
}

// New creates a Store. ttl <= 0 disables caching: every Snapshot call
// re-resolves from disk.
func New(sources []Source, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	byName := make(map[string]Source, len(sources))
	order := make([]string, 0, len(sources))
	for _, src := range sources {
		if _, dup := byName[src.Name]; dup {
			return nil, fmt.Errorf("store: duplicate source %q", src.Name)
		}
		if src.BasePath == "" {
			src.BasePath = "/" + src.Name
		}
		byName[src.Name] = src
		order = append(order, src.Name)
	}
	return &Store{
		sources: byName,
		order:   order,
		ttl:     ttl,
		logger:  logger,
		cache:   make(map[string]*Snapshot),
	}, nil
}

// Source returns the configuration for a named source.
func (s *Store) Source(name string) (Source, bool) {
	src, ok := s.sources[name]
	return src, ok
}

// Sources returns all sources in configuration order.
func (s *Store) Sources() []Source {
	out := make([]Source, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.sources[name])
	}
	return out
}

// Snapshot returns the current snapshot for a source, resolving from
// disk unless a cached snapshot is still within its TTL.
func (s *Store) Snapshot(name string) (*Snapshot, error) {
	src, ok := s.sources[name]
	if !ok {
		return nil, apperr.ErrUnknownSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 {
		if snap, ok := s.cache[name]; ok && time.Since(snap.ResolvedAt) < s.ttl {
			return snap, nil
		}
	}

	snap, err := s.resolve(src)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		s.cache[name] = snap
	}
	return snap, nil
}

func (s *Store) resolve(src Source) (*Snapshot, error) {
	records, err := resolver.ResolveAll(src.Resolver, s.logger)
	if err != nil {
		return nil, err
	}
	meta, err := dirmeta.LoadAll(src.Resolver.Root)
	if err != nil {
		// Broken category metadata degrades to defaults rather than
		// failing the whole source.
		s.logger.Warn("store: category metadata unreadable",
			slog.String("source", src.Name),
			slog.String("error", err.Error()))
		meta = map[string]dirmeta.Meta{}
	}
	return &Snapshot{
		Records:    records,
		Meta:       meta,
		ETag:       checksum.Records(records),
		ResolvedAt: time.Now(),
	}, nil
}

// Invalidate drops the cached snapshot for a source. The watcher calls
// this on file change events.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

// InvalidateAll drops every cached snapshot.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]*Snapshot)
	s.mu.Unlock()
}
