package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebid-recon/internal/reconcile/model"
)

const fixture = `{
  "entries": {
    "composition": [{"id": 1, "text": "Paracetamol(500mg)", "dosage_form": "Tablet", "status": 1}],
    "2": [{"id": 9, "text": "Titanium Plate", "status": 1}]
  },
  "price_caps": {
    "composition": [{"id": 4, "entry_id": 1, "attributes": ["Tablet", "10"], "price_cap": "12.50"}]
  }
}`

func TestLoadFixture(t *testing.T) {
	s := New(strings.ToLower)
	require.NoError(t, s.Load(strings.NewReader(fixture)))
	ctx := context.Background()

	require.NoError(t, s.RefreshNormalizedText(ctx, model.FileTypeImplant))
	got, err := s.QueryByDistance(ctx, model.FileTypeImplant, "titanium plate", model.StatusApproved, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)

	caps, err := s.ByCatalogEntry(ctx, model.FileTypeComposition, 1)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, []string{"Tablet", "10"}, caps[0].Attributes)
	assert.True(t, caps[0].Ceiling.Valid)
	assert.Equal(t, "12.5", caps[0].Ceiling.Decimal.String())
}

func TestLoadFixture_UnknownKind(t *testing.T) {
	s := New(nil)
	err := s.Load(strings.NewReader(`{"entries": {"syringes": []}}`))
	assert.Error(t, err)
}
