// Package serverstore reads and writes the composite document through the
// optional key-value backend, degrading transparently to an in-process copy
// when the backend is unconfigured or failing. The in-process copy does not
// survive a restart; it only keeps single-process behavior consistent within
// one server lifetime.
//
// There is no version token on the document: two server instances sharing a
// backend each read-merge-write independently, so near-simultaneous writes
// can silently clobber each other and the last write observed by the backend
// wins. That is an accepted weakness of the design, kept as-is.
package serverstore

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/models"
	"github.com/skcglow/glowpos/pkg/store/kv"
)

// Storage reports which layer actually served a request.
type Storage string

const (
	// StorageRemote means the key-value backend was read or written.
	StorageRemote Storage = "remote"
	// StorageMemory means only the in-process copy was touched.
	StorageMemory Storage = "memory"
)

// readState is the explicit outcome of a backend read, so callers branch on
// a tag instead of a nil sentinel.
type readState int

const (
	readHit         readState = iota // document found and parsed
	readMiss                         // backend reachable, key absent
	readUnavailable                  // backend not configured
	readFailed                       // backend configured but erroring
)

// Store owns the composite document lifecycle on the server.
type Store struct {
	mu       sync.Mutex
	backend  *kv.Client
	seedPath string
	cached   *models.Document
	log      zerolog.Logger
}

// New builds a store around the given backend client. seedPath optionally
// names a JSON catalog file used to seed a fresh document instead of the
// bundled catalog; an unreadable path yields an empty document tagged
// source "empty".
func New(backend *kv.Client, seedPath string, log zerolog.Logger) *Store {
	return &Store{
		backend:  backend,
		seedPath: seedPath,
		log:      log.With().Str("component", "serverstore").Logger(),
	}
}

// Get returns the current composite document and the storage layer that
// served it. When the backend is reachable but the key is absent, the seed
// document is written back and returned as a remote read.
func (s *Store) Get(ctx context.Context) (models.Document, Storage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx)
}

// Set shallow-merges the partial over the current document, stamps
// updatedAt, and attempts a backend write. On any backend failure only the
// in-process copy is updated and storage "memory" is reported; the merge
// itself always succeeds.
func (s *Store) Set(ctx context.Context, partial models.Partial) (models.Document, Storage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := s.get(ctx)
	partial.ApplyTo(&next)
	next.UpdatedAt = time.Now().UTC()
	next.Source = models.SourceClient

	if s.backend.Configured() {
		if err := s.write(ctx, next); err != nil {
			s.log.Warn().Err(err).Msg("kv write failed, storing in memory")
		} else {
			s.cached = &next
			return next, StorageRemote
		}
	}

	s.cached = &next
	return next, StorageMemory
}

func (s *Store) get(ctx context.Context) (models.Document, Storage) {
	fallback := s.fallback()

	doc, state := s.read(ctx)
	switch state {
	case readHit:
		s.cached = &doc
		return doc, StorageRemote
	case readMiss:
		// Seed the backend so later readers agree on a starting document.
		if err := s.write(ctx, fallback); err != nil {
			s.log.Warn().Err(err).Msg("kv seed write failed, using memory fallback")
			break
		}
		s.cached = &fallback
		return fallback, StorageRemote
	}

	s.cached = &fallback
	return fallback, StorageMemory
}

func (s *Store) read(ctx context.Context) (models.Document, readState) {
	if !s.backend.Configured() {
		return models.Document{}, readUnavailable
	}
	raw, found, err := s.backend.Get(ctx, models.DocumentKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("kv unavailable, using memory fallback")
		return models.Document{}, readFailed
	}
	if !found {
		return models.Document{}, readMiss
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.log.Warn().Err(err).Msg("stored document corrupt, using memory fallback")
		return models.Document{}, readFailed
	}
	return doc, readHit
}

func (s *Store) write(ctx context.Context, doc models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, models.DocumentKey, string(raw))
}

// fallback returns the in-process copy when one exists, otherwise a freshly
// built seed (or empty) document.
func (s *Store) fallback() models.Document {
	if s.cached != nil {
		return *s.cached
	}
	return s.buildDefault()
}

func (s *Store) buildDefault() models.Document {
	if s.seedPath == "" {
		return models.SeedDocument(models.DefaultCatalog())
	}
	raw, err := os.ReadFile(s.seedPath)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.seedPath).Msg("seed dataset unreadable, starting empty")
		return models.EmptyDocument()
	}
	var catalog []models.CatalogItem
	if err := json.Unmarshal(raw, &catalog); err != nil {
		s.log.Warn().Err(err).Str("path", s.seedPath).Msg("seed dataset invalid, starting empty")
		return models.EmptyDocument()
	}
	return models.SeedDocument(catalog)
}
