package service

import (
	"context"
	"fmt"

	"pricebid-recon/internal/reconcile/model"
)

const DefaultCandidateLimit = 20

// FetchCandidates pulls the approved catalog entries closest to query by edit distance.
// limit is clamped to 1..DefaultCandidateLimit.
func FetchCandidates(ctx context.Context, store CatalogStore, kind model.FileType, query string, limit int) ([]model.CatalogEntry, error) {
	if limit <= 0 || limit > DefaultCandidateLimit {
		limit = DefaultCandidateLimit
	}
	cands, err := store.QueryByDistance(ctx, kind, query, model.StatusApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrCandidateFetch, kind, query, err)
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}
