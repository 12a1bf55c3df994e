package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricebid-recon/internal/reconcile/model"
	"pricebid-recon/internal/utils"
)

// Resolver finds the price cap that applies to a matched entry and compares the quoted rate.
type Resolver struct {
	store  PriceCapStore
	logger zerolog.Logger
}

func NewResolver(store PriceCapStore, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger.With().Str("component", "price_cap").Logger()}
}

// Resolve never fails: lookup and arithmetic problems come back as PriceComputationError.
func (r *Resolver) Resolve(ctx context.Context, kind model.FileType, entryID int64, row model.SubmittedRow) (pc model.PriceComparison) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Int64("entry_id", entryID).Interface("panic", rec).Msg("price resolution panicked")
			pc = computationError()
		}
	}()

	records, err := r.store.ByCatalogEntry(ctx, kind, entryID)
	if err != nil {
		r.logger.Error().Err(fmt.Errorf("%w: %v", ErrPriceResolution, err)).Int64("entry_id", entryID).Msg("price cap lookup")
		return computationError()
	}
	if len(records) == 0 {
		return model.PriceComparison{Status: model.PriceNotFound}
	}

	rec, ok := firstAttributeMatch(records, row.PriceAttributes())
	if !ok {
		r.logger.Debug().Int64("entry_id", entryID).Strs("attrs", row.PriceAttributes()).Int("records", len(records)).Msg("no attribute match")
		return model.PriceComparison{Status: model.PriceNoAttributeMatch}
	}

	pc, err = compare(rec, row.UnitRateExclTax())
	if err != nil {
		r.logger.Error().Err(err).Int64("entry_id", entryID).Int64("price_cap_id", rec.ID).Str("rate", row.UnitRateExclTax()).Msg("price compare")
		return computationError()
	}
	return pc
}

// firstAttributeMatch scans in retrieval order; every attribute must match after lowercase+trim.
func firstAttributeMatch(records []model.PriceCapRecord, attrs []string) (model.PriceCapRecord, bool) {
	for _, rec := range records {
		if len(rec.Attributes) != len(attrs) {
			continue
		}
		ok := true
		for i := range attrs {
			if normalizeAttr(attrs[i]) != normalizeAttr(rec.Attributes[i]) {
				ok = false
				break
			}
		}
		if ok {
			return rec, true
		}
	}
	return model.PriceCapRecord{}, false
}

// compare: diff = ceiling - rate; diff == 0 is Above.
func compare(rec model.PriceCapRecord, rawRate string) (model.PriceComparison, error) {
	if !rec.Ceiling.Valid {
		return model.PriceComparison{}, fmt.Errorf("%w: price cap %d has no ceiling", ErrPriceResolution, rec.ID)
	}
	rate, err := utils.ParseDecimal(rawRate)
	if err != nil {
		return model.PriceComparison{}, fmt.Errorf("%w: rate: %v", ErrPriceResolution, err)
	}
	diff := rec.Ceiling.Decimal.Sub(rate)
	status := model.PriceAbove
	if diff.IsPositive() {
		status = model.PriceBelow
	}
	return model.PriceComparison{
		Ceiling: rec.Ceiling,
		Diff:    decimal.NewNullDecimal(diff),
		Status:  status,
	}, nil
}

func computationError() model.PriceComparison {
	return model.PriceComparison{Status: model.PriceComputationError}
}
