// Package memory keeps the catalog and price caps in process. Ordering matches the
// Postgres store: edit distance, then id.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"pricebid-recon/internal/reconcile/model"
)

// NormalizeFunc recomputes the derived text column; service.Normalize in production.
type NormalizeFunc func(string) string

type Store struct {
	mu        sync.RWMutex
	normalize NormalizeFunc
	entries   map[model.FileType][]model.CatalogEntry
	caps      map[model.FileType][]model.PriceCapRecord
	refreshes int
}

func New(normalize NormalizeFunc) *Store {
	return &Store{
		normalize: normalize,
		entries:   make(map[model.FileType][]model.CatalogEntry),
		caps:      make(map[model.FileType][]model.PriceCapRecord),
	}
}

func (s *Store) AddEntries(kind model.FileType, entries ...model.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[kind] = append(s.entries[kind], entries...)
}

func (s *Store) AddPriceCaps(kind model.FileType, caps ...model.PriceCapRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps[kind] = append(s.caps[kind], caps...)
}

// SetStatus changes the lifecycle status of an entry, as the catalog admin side does.
// Returns false when no entry has that id.
func (s *Store) SetStatus(kind model.FileType, id int64, status model.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries[kind] {
		if s.entries[kind][i].ID == id {
			s.entries[kind][i].Status = status
			return true
		}
	}
	return false
}

// Fingerprint digests (id, status, normalized text) of every entry of kind.
// It changes whenever anything that decides candidacy changes.
func (s *Store) Fingerprint(ctx context.Context, kind model.FileType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	entries := append([]model.CatalogEntry(nil), s.entries[kind]...)
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%d:%d:%s\n", e.ID, int(e.Status), e.NormalizedText)
	}
	return fmt.Sprintf("%d:%s", len(entries), hex.EncodeToString(h.Sum(nil))), nil
}

// Refreshes reports how many times RefreshNormalizedText ran.
func (s *Store) Refreshes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshes
}

func (s *Store) QueryByDistance(ctx context.Context, kind model.FileType, normalized string, status model.Status, limit int) ([]model.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		e    model.CatalogEntry
		dist int
	}
	rs := make([]ranked, 0, len(s.entries[kind]))
	for _, e := range s.entries[kind] {
		if e.Status != status {
			continue
		}
		rs = append(rs, ranked{e: e, dist: levenshtein.ComputeDistance(e.NormalizedText, normalized)})
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].dist != rs[j].dist {
			return rs[i].dist < rs[j].dist
		}
		return rs[i].e.ID < rs[j].e.ID
	})
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	out := make([]model.CatalogEntry, len(rs))
	for i, r := range rs {
		out[i] = r.e
	}
	return out, nil
}

func (s *Store) RefreshNormalizedText(ctx context.Context, kind model.FileType) error {
	_, err := s.Refresh(ctx, kind)
	return err
}

// Refresh recomputes normalized text and reports how many entries changed.
func (s *Store) Refresh(ctx context.Context, kind model.FileType) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	if s.normalize != nil {
		for i := range s.entries[kind] {
			e := &s.entries[kind][i]
			if norm := s.normalize(e.Text); norm != e.NormalizedText {
				e.NormalizedText = norm
				changed++
			}
		}
	}
	s.refreshes++
	return changed, nil
}

func (s *Store) ByCatalogEntry(ctx context.Context, kind model.FileType, entryID int64) ([]model.PriceCapRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PriceCapRecord
	for _, c := range s.caps[kind] {
		if c.EntryID != nil && *c.EntryID == entryID {
			out = append(out, c)
		}
	}
	return out, nil
}
