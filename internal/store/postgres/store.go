// Package postgres is the catalog and price-cap store backed by Postgres (fuzzystrmatch).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricebid-recon/internal/reconcile/model"
)

// NormalizeFunc recomputes the derived text column; service.Normalize in production.
type NormalizeFunc func(string) string

type Store struct {
	db        *sqlx.DB
	normalize NormalizeFunc
	logger    zerolog.Logger
}

func New(db *sqlx.DB, normalize NormalizeFunc, logger zerolog.Logger) *Store {
	return &Store{
		db:        db,
		normalize: normalize,
		logger:    logger.With().Str("component", "postgres").Logger(),
	}
}

// Open connects and pings. The pool is sized for one upload at a time per worker.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func (s *Store) QueryByDistance(ctx context.Context, kind model.FileType, normalized string, status model.Status, limit int) ([]model.CatalogEntry, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query, args := t.distanceQuery(normalized, status, limit)
	var out []model.CatalogEntry
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("%s by distance: %w", t.catalog, err)
	}
	return out, nil
}

type textRow struct {
	ID             int64  `db:"id"`
	Text           string `db:"text"`
	NormalizedText string `db:"normalized_text"`
}

func (s *Store) RefreshNormalizedText(ctx context.Context, kind model.FileType) error {
	_, err := s.Refresh(ctx, kind)
	return err
}

// Refresh rewrites normalized_text for rows whose value changed, in one transaction,
// and reports how many changed.
func (s *Store) Refresh(ctx context.Context, kind model.FileType) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := t.textsQuery()
	var rows []textRow
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return 0, fmt.Errorf("%s texts: %w", t.catalog, err)
	}

	changed := 0
	for _, r := range rows {
		norm := s.normalize(r.Text)
		if norm == r.NormalizedText {
			continue
		}
		q, a := t.setNormalized(r.ID, norm)
		if _, err := tx.ExecContext(ctx, q, a...); err != nil {
			return 0, fmt.Errorf("%s id=%d: %w", t.catalog, r.ID, err)
		}
		changed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug().Str("table", t.catalog).Int("rows", len(rows)).Int("changed", changed).Msg("normalized text refreshed")
	return changed, nil
}

// Fingerprint changes whenever an entry is added, removed, re-normalized or changes status.
func (s *Store) Fingerprint(ctx context.Context, kind model.FileType) (string, error) {
	t, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	query, args := t.fingerprintQuery()
	var (
		count, maxID int64
		sum          string
	)
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&count, &maxID, &sum); err != nil {
		return "", fmt.Errorf("%s fingerprint: %w", t.catalog, err)
	}
	return fmt.Sprintf("%d:%d:%s", count, maxID, sum), nil
}

type capRow struct {
	ID      int64               `db:"id"`
	EntryID sql.NullInt64       `db:"entry_id"`
	Attr0   string              `db:"attr_0"`
	Attr1   string              `db:"attr_1"`
	Ceiling decimal.NullDecimal `db:"price_cap"`
}

func (r capRow) record(attrs int) model.PriceCapRecord {
	rec := model.PriceCapRecord{
		ID:         r.ID,
		Attributes: []string{r.Attr0, r.Attr1}[:attrs],
		Ceiling:    r.Ceiling,
	}
	if r.EntryID.Valid {
		id := r.EntryID.Int64
		rec.EntryID = &id
	}
	return rec
}

func (s *Store) ByCatalogEntry(ctx context.Context, kind model.FileType, entryID int64) ([]model.PriceCapRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query, args := t.capsQuery(entryID)
	var rows []capRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s for %d: %w", t.caps, entryID, err)
	}
	out := make([]model.PriceCapRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record(len(t.capAttrs))
	}
	return out, nil
}

// BackfillPriceCapLinks links price caps without a catalog id to the entry whose
// normalized text equals the cap's normalized text (lowest id wins). Returns the number linked.
func (s *Store) BackfillPriceCapLinks(ctx context.Context, kind model.FileType) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := t.textsQuery()
	var entries []textRow
	if err := tx.SelectContext(ctx, &entries, query, args...); err != nil {
		return 0, fmt.Errorf("%s texts: %w", t.catalog, err)
	}
	byText := indexByNormalized(entries, s.normalize)

	query, args = t.unlinkedCapsQuery()
	var caps []textRow
	if err := tx.SelectContext(ctx, &caps, query, args...); err != nil {
		return 0, fmt.Errorf("%s unlinked: %w", t.caps, err)
	}

	linked := 0
	for _, c := range caps {
		id, ok := byText[s.normalize(c.Text)]
		if !ok {
			continue
		}
		q, a := t.linkCap(c.ID, id)
		if _, err := tx.ExecContext(ctx, q, a...); err != nil {
			return 0, fmt.Errorf("%s id=%d: %w", t.caps, c.ID, err)
		}
		linked++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info().Str("table", t.caps).Int("unlinked", len(caps)).Int("linked", linked).Msg("price caps backfilled")
	return linked, nil
}

// indexByNormalized keeps the first id per normalized text; rows arrive ordered by id.
func indexByNormalized(rows []textRow, normalize NormalizeFunc) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		norm := normalize(r.Text)
		if norm == "" {
			continue
		}
		if _, ok := out[norm]; !ok {
			out[norm] = r.ID
		}
	}
	return out
}
