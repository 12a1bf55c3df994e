package service

import (
	"context"
	"errors"

	"pricebid-recon/internal/reconcile/model"
)

var (
	ErrCandidateFetch  = errors.New("candidate fetch failed")
	ErrPriceResolution = errors.New("price resolution failed")
	ErrBatchRow        = errors.New("batch row failed")
	ErrCatalogRefresh  = errors.New("catalog refresh failed")
)

// CatalogStore is the reference catalog (compositions or implants, picked by kind).
type CatalogStore interface {
	// QueryByDistance returns up to limit entries in the given status ordered by
	// edit distance between normalized and their stored normalized text.
	QueryByDistance(ctx context.Context, kind model.FileType, normalized string, status model.Status, limit int) ([]model.CatalogEntry, error)
	// RefreshNormalizedText recomputes the derived normalized-text column. Idempotent.
	RefreshNormalizedText(ctx context.Context, kind model.FileType) error
}

type PriceCapStore interface {
	// ByCatalogEntry returns every price cap linked to entryID in a stable order.
	ByCatalogEntry(ctx context.Context, kind model.FileType, entryID int64) ([]model.PriceCapRecord, error)
}
