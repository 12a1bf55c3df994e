package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricebid-recon/internal/reconcile/model"
	"pricebid-recon/internal/utils"
)

// Recorder receives per-row and per-batch outcomes (see internal/metrics).
type Recorder interface {
	ObserveRow(kind model.FileType, outcome string)
	ObservePrice(kind model.FileType, status model.PriceStatus)
	ObserveBatch(kind model.FileType, rows int, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRow(model.FileType, string)               {}
func (nopRecorder) ObservePrice(model.FileType, model.PriceStatus)  {}
func (nopRecorder) ObserveBatch(model.FileType, int, time.Duration) {}

const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeSkipped   = "skipped"
)

type Service struct {
	catalog  CatalogStore
	resolver *Resolver
	logger   zerolog.Logger
	rec      Recorder
	limit    int
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

func WithCandidateLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= DefaultCandidateLimit {
			s.limit = n
		}
	}
}

func New(catalog CatalogStore, prices PriceCapStore, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		resolver: NewResolver(prices, logger),
		logger:   logger.With().Str("component", "reconcile").Logger(),
		rec:      nopRecorder{},
		limit:    DefaultCandidateLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReconcileBatch matches every row against the catalog of kind. Only a failed catalog
// refresh aborts the batch; row problems end up in Skipped.
func (s *Service) ReconcileBatch(ctx context.Context, kind model.FileType, rows []model.SubmittedRow) (model.BatchResult, error) {
	start := time.Now()
	res := model.BatchResult{
		Matched:   make([]model.Matched, 0, len(rows)),
		Unmatched: make([]model.Unmatched, 0),
		Skipped:   make([]model.RowFailure, 0),
	}

	if err := s.catalog.RefreshNormalizedText(ctx, kind); err != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrCatalogRefresh, kind, err)
	}

	for i, row := range rows {
		m, u, err := s.reconcileRow(ctx, kind, row)
		switch {
		case err != nil:
			fail := model.RowFailure{Index: i, Reason: err.Error()}
			if row != nil {
				fail.Line = row.Line()
			}
			s.logger.Error().Err(err).Int("row", i).Str("sl_no", fail.Line).Msg("row skipped")
			res.Skipped = append(res.Skipped, fail)
			s.rec.ObserveRow(kind, OutcomeSkipped)
		case m != nil:
			res.Matched = append(res.Matched, *m)
			s.rec.ObserveRow(kind, OutcomeMatched)
			s.rec.ObservePrice(kind, m.Price.Status)
		default:
			res.Unmatched = append(res.Unmatched, *u)
			s.rec.ObserveRow(kind, OutcomeUnmatched)
		}
	}

	took := time.Since(start)
	s.rec.ObserveBatch(kind, len(rows), took)
	s.logger.Info().
		Str("kind", kind.String()).
		Int("rows", len(rows)).
		Int("matched", len(res.Matched)).
		Int("unmatched", len(res.Unmatched)).
		Int("skipped", len(res.Skipped)).
		Dur("elapsed", took).
		Msg("batch reconciled")
	return res, nil
}

func (s *Service) reconcileRow(ctx context.Context, kind model.FileType, row model.SubmittedRow) (m *model.Matched, u *model.Unmatched, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			m, u = nil, nil
			err = fmt.Errorf("%w: panic: %v", ErrBatchRow, rec)
		}
	}()

	if row == nil {
		return nil, nil, fmt.Errorf("%w: empty row", ErrBatchRow)
	}
	if row.FileType() != kind {
		return nil, nil, fmt.Errorf("%w: %s row in %s batch", ErrBatchRow, row.FileType(), kind)
	}

	query := Normalize(row.Description())
	if query == "" {
		return nil, nil, fmt.Errorf("%w: empty description", ErrBatchRow)
	}

	cands, err := FetchCandidates(ctx, s.catalog, kind, query, s.limit)
	if err != nil {
		s.logger.Error().Err(err).Str("sl_no", row.Line()).Msg("candidates unavailable, row left unmatched")
		return nil, &model.Unmatched{Row: row, Candidates: []model.Candidate{}}, nil
	}

	out := FindBestMatch(cands, query)
	if !out.Accepted() {
		s.logger.Debug().
			Str("sl_no", row.Line()).
			Str("query", query).
			Str("parsed", units(Parse(query))).
			Int("best_score", out.Score).
			Int("candidates", len(cands)).
			Msg("unmatched")
		return nil, &model.Unmatched{Row: row, Candidates: out.Ranked}, nil
	}

	s.logger.Debug().
		Str("sl_no", row.Line()).
		Str("query", query).
		Int64("entry_id", out.Best.ID).
		Str("entry", out.Best.Text).
		Int("score", out.Score).
		Msg("matched")
	matched := s.priced(ctx, kind, out.Best.ID, out.Best.Text, row)
	matched.Score = out.Score
	return &matched, nil, nil
}

// ComparePrice resolves the price of row against an entry picked by a reviewer from the
// near-miss list, as if it had matched.
func (s *Service) ComparePrice(ctx context.Context, kind model.FileType, entryID int64, entryText string, row model.SubmittedRow) (model.Matched, error) {
	if row == nil || row.FileType() != kind {
		return model.Matched{}, fmt.Errorf("%w: row does not belong to a %s batch", ErrBatchRow, kind)
	}
	m := s.priced(ctx, kind, entryID, entryText, row)
	s.rec.ObservePrice(kind, m.Price.Status)
	return m, nil
}

func (s *Service) priced(ctx context.Context, kind model.FileType, entryID int64, entryText string, row model.SubmittedRow) model.Matched {
	return model.Matched{
		Row:            row.WithDescription(entryText),
		EntryID:        entryID,
		Price:          s.resolver.Resolve(ctx, kind, entryID, row),
		ComputedMargin: ComputeMargin(row),
	}
}

var hundred = decimal.NewFromInt(100)

// ComputeMargin is (MRP incl. tax - rate incl. tax) / MRP incl. tax * 100, rounded to 2 places.
// Null when either value is missing or MRP is zero.
func ComputeMargin(row model.SubmittedRow) decimal.NullDecimal {
	mrp, err := utils.ParseDecimal(row.MRPInclTax())
	if err != nil || mrp.IsZero() {
		return decimal.NullDecimal{}
	}
	rate, err := utils.ParseDecimal(row.UnitRateInclTax())
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(mrp.Sub(rate).Div(mrp).Mul(hundred).Round(2))
}
