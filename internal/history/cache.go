// Package history keeps the most recent scan results, newest first, and
// writes every change through to a Repository.
//
// A Cache is not safe for concurrent use; callers serialize Insert, Remove
// and Clear (scanvault.Service holds a mutex for that). Persistence problems
// never reach the caller: the history is a convenience cache, so failures are
// logged and the in-memory state stays authoritative for the session.
package history

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/scanresult"
)

// MaxEntries bounds the history. Eviction is purely by insertion order.
const MaxEntries = 10

// Cache is an ordered, size-capped collection of normalized results.
type Cache struct {
	repo    Repository
	logger  *logrus.Logger
	entries []models.ScanResult
}

// NewCache returns an empty cache backed by repo. Call Load to recover the
// persisted history.
func NewCache(repo Repository, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		repo:    repo,
		logger:  logger,
		entries: []models.ScanResult{},
	}
}

// Load replaces the in-memory history with the persisted one. Absent or
// undecodable data yields an empty history. Every stored element is
// normalized again since it may predate the current schema.
func (c *Cache) Load(ctx context.Context) []models.ScanResult {
	elems, err := c.repo.Load(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Discarding unreadable scan history")
		elems = nil
	}

	loaded := make([]models.ScanResult, 0, len(elems))
	generated := false
	for _, elem := range elems {
		raw := scanresult.ParseRaw(elem)
		if !scanresult.HasIdentity(raw) {
			generated = true
		}
		loaded = append(loaded, scanresult.Normalize(raw))
	}
	c.entries = bound(dedupe(loaded))

	// Ids handed out to legacy records must survive the next restart.
	if generated && len(c.entries) > 0 {
		c.persist(ctx)
	}

	c.logger.WithField("entries", len(c.entries)).Debug("Scan history loaded")
	return c.List()
}

// Insert prepends results in the given order, evicts the oldest entries
// beyond MaxEntries and persists the new state. An older entry sharing an id
// with an inserted one is replaced.
func (c *Cache) Insert(ctx context.Context, results ...models.ScanResult) []models.ScanResult {
	if len(results) == 0 {
		return c.List()
	}

	next := make([]models.ScanResult, 0, len(results)+len(c.entries))
	for _, r := range results {
		next = append(next, scanresult.Canonical(r))
	}
	next = append(next, c.entries...)
	c.entries = bound(dedupe(next))

	c.persist(ctx)
	return c.List()
}

// Remove deletes the entry with the given id and reports whether it existed.
func (c *Cache) Remove(ctx context.Context, id string) bool {
	for i, r := range c.entries {
		if r.ID != id {
			continue
		}
		c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
		c.persist(ctx)
		return true
	}
	return false
}

// Clear empties the history and removes it from the repository.
func (c *Cache) Clear(ctx context.Context) {
	c.entries = []models.ScanResult{}
	if err := c.repo.Clear(ctx); err != nil {
		c.logger.WithError(err).Warn("Failed to clear persisted scan history")
	}
}

// List returns copies of the entries, newest first.
func (c *Cache) List() []models.ScanResult {
	out := make([]models.ScanResult, len(c.entries))
	for i, r := range c.entries {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the entry with the given id.
func (c *Cache) Get(id string) (models.ScanResult, bool) {
	for _, r := range c.entries {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.ScanResult{}, false
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// persist writes the current state, or removes the key once the history is
// empty so that "no history" and "empty history" cannot be told apart.
func (c *Cache) persist(ctx context.Context) {
	var err error
	if len(c.entries) == 0 {
		err = c.repo.Clear(ctx)
	} else {
		err = c.repo.Save(ctx, c.entries)
	}
	if err != nil {
		c.logger.WithError(err).WithField("entries", len(c.entries)).Warn("Failed to persist scan history")
	}
}

// dedupe keeps the first occurrence of each id.
func dedupe(results []models.ScanResult) []models.ScanResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func bound(results []models.ScanResult) []models.ScanResult {
	if len(results) > MaxEntries {
		results = results[:MaxEntries]
	}
	return results
}
