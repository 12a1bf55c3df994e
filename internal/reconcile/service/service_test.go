package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebid-recon/internal/reconcile/model"
	"pricebid-recon/internal/store/memory"
)

type countingRecorder struct {
	mu      sync.Mutex
	rows    map[string]int
	prices  map[model.PriceStatus]int
	batches int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rows: map[string]int{}, prices: map[model.PriceStatus]int{}}
}

func (c *countingRecorder) ObserveRow(_ model.FileType, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[outcome]++
}

func (c *countingRecorder) ObservePrice(_ model.FileType, status model.PriceStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[status]++
}

func (c *countingRecorder) ObserveBatch(model.FileType, int, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
}

// flakyCatalog wraps a store and fails or panics for chosen queries.
type flakyCatalog struct {
	CatalogStore
	failOn    string
	panicOn   string
	refreshEr error
}

func (f flakyCatalog) QueryByDistance(ctx context.Context, kind model.FileType, q string, st model.Status, limit int) ([]model.CatalogEntry, error) {
	switch q {
	case f.failOn:
		return nil, errors.New("connection refused")
	case f.panicOn:
		panic("nil map")
	}
	return f.CatalogStore.QueryByDistance(ctx, kind, q, st, limit)
}

func (f flakyCatalog) RefreshNormalizedText(ctx context.Context, kind model.FileType) error {
	if f.refreshEr != nil {
		return f.refreshEr
	}
	return f.CatalogStore.RefreshNormalizedText(ctx, kind)
}

// panickyPrices panics for one entry id.
type panickyPrices struct {
	PriceCapStore
	entryID int64
}

func (p panickyPrices) ByCatalogEntry(ctx context.Context, kind model.FileType, id int64) ([]model.PriceCapRecord, error) {
	if id == p.entryID {
		panic("bad numeric column")
	}
	return p.PriceCapStore.ByCatalogEntry(ctx, kind, id)
}

func compositionCatalog() *memory.Store {
	st := memory.New(Normalize)
	st.AddEntries(model.FileTypeComposition,
		model.CatalogEntry{ID: 1, Text: "Paracetamol + Caffeine", NormalizedText: "paracetamol + caffeine", Status: model.StatusApproved},
		model.CatalogEntry{ID: 2, Text: "Ibuprofen(400mg)", Status: model.StatusApproved},
		model.CatalogEntry{ID: 3, Text: "Amoxicillin(250mg)", Status: model.StatusApproved},
		model.CatalogEntry{ID: 4, Text: "Cetirizine(10mg)", Status: model.StatusPending},
	)
	st.AddPriceCaps(model.FileTypeComposition,
		capRecord(10, 1, "20.00", "syrup", "100ml"),
		capRecord(11, 1, "15.00", "tablet", "10"),
		capRecord(12, 2, "8.00", "tablet", "15"),
	)
	return st
}

func TestReconcileBatch_ReorderedMoleculesMatch(t *testing.T) {
	st := compositionCatalog()
	rec := newCountingRecorder()
	svc := New(st, st, zerolog.Nop(), WithRecorder(rec))

	row := model.CompositionRow{SlNo: "1", Composition: "Caffeine + Paracetamol", DosageForm: "Tablet ", PackingUnit: "10", RateExcl: "12", MRPIncl: "20", RateIncl: "15"}
	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{row})
	require.NoError(t, err)
	require.Len(t, res.Matched, 1)
	assert.Empty(t, res.Unmatched)

	m := res.Matched[0]
	assert.Equal(t, int64(1), m.EntryID)
	assert.Equal(t, 100, m.Score)
	assert.Equal(t, "Paracetamol + Caffeine", m.Row.Description())
	assert.Equal(t, model.PriceBelow, m.Price.Status)
	assert.Equal(t, "15", m.Price.Ceiling.Decimal.String())
	assert.Equal(t, "3", m.Price.Diff.Decimal.String())
	require.True(t, m.ComputedMargin.Valid)
	assert.Equal(t, "25", m.ComputedMargin.Decimal.String())

	assert.Equal(t, 1, st.Refreshes())
	assert.Equal(t, 1, rec.rows[OutcomeMatched])
	assert.Equal(t, 1, rec.prices[model.PriceBelow])
	assert.Equal(t, 1, rec.batches)
}

func TestReconcileBatch_UnmatchedCarriesRankedCandidates(t *testing.T) {
	st := memory.New(Normalize)
	for i := 1; i <= 25; i++ {
		st.AddEntries(model.FileTypeComposition, model.CatalogEntry{
			ID: int64(i), Text: fmt.Sprintf("Molecule%02d(%dmg)", i, i*10), Status: model.StatusApproved,
		})
	}
	st.AddEntries(model.FileTypeComposition, model.CatalogEntry{ID: 99, Text: "Amoxicillin(250mg)", Status: model.StatusApproved})
	svc := New(st, st, zerolog.Nop())

	row := model.CompositionRow{SlNo: "7", Composition: "Amoxicillin 500mg"}
	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{row})
	require.NoError(t, err)
	assert.Empty(t, res.Matched)
	require.Len(t, res.Unmatched, 1)

	u := res.Unmatched[0]
	assert.Equal(t, "Amoxicillin 500mg", u.Row.Description())
	assert.LessOrEqual(t, len(u.Candidates), DefaultCandidateLimit)
	assert.NotEmpty(t, u.Candidates)
	for i := 1; i < len(u.Candidates); i++ {
		assert.GreaterOrEqual(t, u.Candidates[i-1].Score, u.Candidates[i].Score)
	}
	assert.Equal(t, int64(99), u.Candidates[0].ID)
}

func TestReconcileBatch_CandidateLimitIsCapped(t *testing.T) {
	st := memory.New(Normalize)
	for i := 1; i <= 40; i++ {
		st.AddEntries(model.FileTypeComposition, model.CatalogEntry{
			ID: int64(i), Text: fmt.Sprintf("Molecule%02d(%dmg)", i, i*10), Status: model.StatusApproved,
		})
	}
	svc := New(st, st, zerolog.Nop(), WithCandidateLimit(50))

	row := model.CompositionRow{SlNo: "1", Composition: "Molecule 7mg"}
	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{row})
	require.NoError(t, err)
	require.Len(t, res.Unmatched, 1)
	assert.Len(t, res.Unmatched[0].Candidates, DefaultCandidateLimit)

	got, err := FetchCandidates(context.Background(), st, model.FileTypeComposition, "molecule07(70mg)", 50)
	require.NoError(t, err)
	assert.Len(t, got, DefaultCandidateLimit)
}

func TestReconcileBatch_PriceFailureDoesNotStopBatch(t *testing.T) {
	st := compositionCatalog()
	svc := New(st, panickyPrices{PriceCapStore: st, entryID: 2}, zerolog.Nop())

	rows := make([]model.SubmittedRow, 10)
	for i := range rows {
		rows[i] = model.CompositionRow{SlNo: fmt.Sprint(i + 1), Composition: "Paracetamol + Caffeine", DosageForm: "tablet", PackingUnit: "10", RateExcl: "10"}
	}
	rows[3] = model.CompositionRow{SlNo: "4", Composition: "Ibuprofen(400mg)", DosageForm: "tablet", PackingUnit: "15", RateExcl: "7"}

	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, rows)
	require.NoError(t, err)
	require.Len(t, res.Matched, 10)
	assert.Empty(t, res.Skipped)
	for i, m := range res.Matched {
		assert.Equal(t, fmt.Sprint(i+1), m.Row.Line())
		if i == 3 {
			assert.Equal(t, model.PriceComputationError, m.Price.Status)
			continue
		}
		assert.Equal(t, model.PriceBelow, m.Price.Status)
	}
}

func TestReconcileBatch_RowPanicIsSkipped(t *testing.T) {
	st := compositionCatalog()
	cat := flakyCatalog{CatalogStore: st, panicOn: Normalize("Ibuprofen(400mg)")}
	svc := New(cat, st, zerolog.Nop())

	rows := []model.SubmittedRow{
		model.CompositionRow{SlNo: "1", Composition: "Caffeine + Paracetamol", DosageForm: "tablet", PackingUnit: "10", RateExcl: "1"},
		model.CompositionRow{SlNo: "2", Composition: "Ibuprofen(400mg)"},
		model.CompositionRow{SlNo: "3", Composition: "Paracetamol + Caffeine", DosageForm: "tablet", PackingUnit: "10", RateExcl: "1"},
	}
	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, rows)
	require.NoError(t, err)
	require.Len(t, res.Matched, 2)
	assert.Equal(t, "1", res.Matched[0].Row.Line())
	assert.Equal(t, "3", res.Matched[1].Row.Line())
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, "2", res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "panic")
}

func TestReconcileBatch_CandidateFetchFailureLeavesRowUnmatched(t *testing.T) {
	st := compositionCatalog()
	cat := flakyCatalog{CatalogStore: st, failOn: Normalize("Ibuprofen(400mg)")}
	svc := New(cat, st, zerolog.Nop())

	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{
		model.CompositionRow{SlNo: "1", Composition: "Ibuprofen(400mg)"},
	})
	require.NoError(t, err)
	require.Len(t, res.Unmatched, 1)
	assert.Empty(t, res.Unmatched[0].Candidates)
	assert.NotNil(t, res.Unmatched[0].Candidates)
}

func TestReconcileBatch_RefreshFailureIsFatal(t *testing.T) {
	st := compositionCatalog()
	cat := flakyCatalog{CatalogStore: st, refreshEr: errors.New("lock timeout")}
	svc := New(cat, st, zerolog.Nop())

	_, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{
		model.CompositionRow{SlNo: "1", Composition: "Ibuprofen(400mg)"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogRefresh)
}

func TestReconcileBatch_BadRowsSkipped(t *testing.T) {
	st := compositionCatalog()
	svc := New(st, st, zerolog.Nop())

	rows := []model.SubmittedRow{
		model.ImplantRow{SlNo: "1", ProductDescription: "stent"},
		model.CompositionRow{SlNo: "2", Composition: "  "},
		nil,
		model.CompositionRow{SlNo: "4", Composition: "Ibuprofen(400mg)", DosageForm: "tablet", PackingUnit: "15", RateExcl: "8"},
	}
	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, rows)
	require.NoError(t, err)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{res.Skipped[0].Index, res.Skipped[1].Index, res.Skipped[2].Index})
	require.Len(t, res.Matched, 1)
	assert.Equal(t, model.PriceAbove, res.Matched[0].Price.Status)
}

func TestReconcileBatch_PendingEntriesNeverMatch(t *testing.T) {
	st := compositionCatalog()
	svc := New(st, st, zerolog.Nop())

	res, err := svc.ReconcileBatch(context.Background(), model.FileTypeComposition, []model.SubmittedRow{
		model.CompositionRow{SlNo: "1", Composition: "Cetirizine(10mg)"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Matched)
	require.Len(t, res.Unmatched, 1)
	for _, c := range res.Unmatched[0].Candidates {
		assert.NotEqual(t, int64(4), c.ID)
	}
}

func TestComparePrice(t *testing.T) {
	st := compositionCatalog()
	rec := newCountingRecorder()
	svc := New(st, st, zerolog.Nop(), WithRecorder(rec))

	row := model.CompositionRow{SlNo: "3", Composition: "Ibuprofen 400", DosageForm: "TABLET", PackingUnit: "15", RateExcl: "9"}
	m, err := svc.ComparePrice(context.Background(), model.FileTypeComposition, 2, "Ibuprofen(400mg)", row)
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen(400mg)", m.Row.Description())
	assert.Equal(t, model.PriceAbove, m.Price.Status)
	assert.Equal(t, "-1", m.Price.Diff.Decimal.String())
	assert.Equal(t, 1, rec.prices[model.PriceAbove])

	_, err = svc.ComparePrice(context.Background(), model.FileTypeImplant, 2, "x", row)
	assert.ErrorIs(t, err, ErrBatchRow)
}

func TestComputeMargin(t *testing.T) {
	m := ComputeMargin(model.ImplantRow{MRPIncl: "200", RateIncl: "150"})
	require.True(t, m.Valid)
	assert.Equal(t, "25", m.Decimal.String())

	assert.False(t, ComputeMargin(model.ImplantRow{MRPIncl: "0", RateIncl: "1"}).Valid)
	assert.False(t, ComputeMargin(model.ImplantRow{MRPIncl: "", RateIncl: "1"}).Valid)
	assert.False(t, ComputeMargin(model.ImplantRow{MRPIncl: "10", RateIncl: "x"}).Valid)
}
