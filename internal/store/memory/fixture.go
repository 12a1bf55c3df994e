package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"pricebid-recon/internal/reconcile/model"
)

// Fixture is the JSON seed for a Store, keyed by file type name or number:
//
//	{"entries": {"composition": [...]}, "price_caps": {"implant": [...]}}
type Fixture struct {
	Entries   map[string][]model.CatalogEntry   `json:"entries"`
	PriceCaps map[string][]model.PriceCapRecord `json:"price_caps"`
}

// Load decodes a fixture from r into s.
func (s *Store) Load(r io.Reader) error {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	for k, entries := range fx.Entries {
		kind, err := model.ParseFileType(k)
		if err != nil {
			return fmt.Errorf("fixture entries: %w", err)
		}
		s.AddEntries(kind, entries...)
	}
	for k, caps := range fx.PriceCaps {
		kind, err := model.ParseFileType(k)
		if err != nil {
			return fmt.Errorf("fixture price caps: %w", err)
		}
		s.AddPriceCaps(kind, caps...)
	}
	return nil
}

// LoadFile is Load for a path on disk.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Load(f)
}
