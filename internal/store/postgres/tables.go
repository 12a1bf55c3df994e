package postgres

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"pricebid-recon/internal/reconcile/model"
)

// table maps a file type onto its catalog and price-cap tables.
type table struct {
	catalog   string
	textCol   string
	codeCol   string
	dosageCol string // empty when the catalog has none

	caps     string
	capFK    string
	capText  string
	capAttrs []string // same order as SubmittedRow.PriceAttributes
}

var tables = map[model.FileType]table{
	model.FileTypeComposition: {
		catalog:   "compositions",
		textCol:   "composition",
		codeCol:   "content_code",
		dosageCol: "dosage_form",
		caps:      "price_cap_compositions",
		capFK:     "composition_id",
		capText:   "composition",
		capAttrs:  []string{"dosage_form", "packing_unit"},
	},
	model.FileTypeImplant: {
		catalog:  "implants",
		textCol:  "product_description",
		codeCol:  "item_code",
		caps:     "price_cap_implants",
		capFK:    "implant_id",
		capText:  "product_description",
		capAttrs: []string{"variant"},
	},
}

func tableFor(kind model.FileType) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("no tables for %s", kind)
	}
	return t, nil
}

func coalesce(col, alias string) string {
	return fmt.Sprintf("COALESCE(%s, '') AS %s", col, alias)
}

func (t table) entryColumns() []string {
	dosage := "'' AS dosage_form"
	if t.dosageCol != "" {
		dosage = coalesce(t.dosageCol, "dosage_form")
	}
	return []string{
		"id",
		t.textCol + " AS text",
		coalesce("normalized_text", "normalized_text"),
		dosage,
		coalesce(t.codeCol, "item_code"),
		"status",
	}
}

// distanceQuery orders by fuzzystrmatch levenshtein with id as the tiebreak.
func (t table) distanceQuery(normalized string, status model.Status, limit int) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(t.entryColumns()...)
	sb.From(t.catalog)
	sb.Where(
		sb.Equal("status", int(status)),
		sb.IsNotNull("normalized_text"),
	)
	sb.OrderBy(fmt.Sprintf("levenshtein(normalized_text, %s)", sb.Var(normalized)), "id")
	if limit > 0 {
		sb.Limit(limit)
	}
	return sb.Build()
}

func (t table) textsQuery() (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", t.textCol+" AS text", coalesce("normalized_text", "normalized_text"))
	sb.From(t.catalog)
	sb.OrderBy("id")
	sb.ForUpdate()
	return sb.Build()
}

func (t table) setNormalized(id int64, normalized string) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(t.catalog)
	ub.Set(ub.Assign("normalized_text", normalized))
	ub.Where(ub.Equal("id", id))
	return ub.Build()
}

// capsQuery selects attributes as attr_0, attr_1 so both kinds scan into capRow.
func (t table) capsQuery(entryID int64) (string, []any) {
	cols := []string{"id", t.capFK + " AS entry_id"}
	for i := 0; i < 2; i++ {
		alias := fmt.Sprintf("attr_%d", i)
		if i < len(t.capAttrs) {
			cols = append(cols, coalesce(t.capAttrs[i], alias))
		} else {
			cols = append(cols, "'' AS "+alias)
		}
	}
	cols = append(cols, "price_cap")

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(cols...)
	sb.From(t.caps)
	sb.Where(sb.Equal(t.capFK, entryID))
	sb.OrderBy("id")
	return sb.Build()
}

func (t table) unlinkedCapsQuery() (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", t.capText+" AS text")
	sb.From(t.caps)
	sb.Where(sb.IsNull(t.capFK))
	sb.OrderBy("id")
	return sb.Build()
}

func (t table) linkCap(capID, entryID int64) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(t.caps)
	ub.Set(ub.Assign(t.capFK, entryID))
	ub.Where(ub.Equal("id", capID), ub.IsNull(t.capFK))
	return ub.Build()
}

// fingerprintQuery digests (id, status, normalized_text) over the whole catalog table.
func (t table) fingerprintQuery() (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"COUNT(*)",
		"COALESCE(MAX(id), 0)",
		"COALESCE(md5(string_agg(id::text || ':' || status::text || ':' || COALESCE(normalized_text, ''), ',' ORDER BY id)), '')",
	)
	sb.From(t.catalog)
	return sb.Build()
}
