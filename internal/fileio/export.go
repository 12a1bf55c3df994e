package fileio

import (
	"fmt"
	"io"
	"reflect"

	excelize "github.com/xuri/excelize/v2"

	"pricebid-recon/internal/reconcile/model"
)

const (
	SheetMatched   = "Matched"
	SheetUnmatched = "Unmatched"
)

// WriteResultXLSX writes the reconciled batch as a workbook: matched rows carry the catalog
// text plus the price comparison, unmatched rows carry their closest candidates.
func WriteResultXLSX(w io.Writer, kind model.FileType, res model.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetMatched); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetUnmatched); err != nil {
		return err
	}

	cols := RequiredColumns(kind)

	header := make([]any, 0, len(cols)+5)
	for _, c := range cols {
		header = append(header, c)
	}
	header = append(header, "matched_id", "similarity_score", "price_cap", "price_diff", "status", "computed_margin")
	if err := setRow(f, SheetMatched, 1, header); err != nil {
		return err
	}
	for i, m := range res.Matched {
		vals := rowValues(m.Row, cols)
		vals = append(vals, m.EntryID, m.Score, nullString(m.Price.Ceiling.Valid, m.Price.Ceiling.Decimal.String()),
			nullString(m.Price.Diff.Valid, m.Price.Diff.Decimal.String()), string(m.Price.Status),
			nullString(m.ComputedMargin.Valid, m.ComputedMargin.Decimal.String()))
		if err := setRow(f, SheetMatched, i+2, vals); err != nil {
			return err
		}
	}

	header = header[:len(cols)]
	header = append(header, "best_candidate_id", "best_candidate", "best_score", "candidates")
	if err := setRow(f, SheetUnmatched, 1, header); err != nil {
		return err
	}
	for i, u := range res.Unmatched {
		vals := rowValues(u.Row, cols)
		if len(u.Candidates) > 0 {
			best := u.Candidates[0]
			vals = append(vals, best.ID, best.Text, best.Score, len(u.Candidates))
		} else {
			vals = append(vals, "", "", "", 0)
		}
		if err := setRow(f, SheetUnmatched, i+2, vals); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, n int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
	return nil
}

// rowValues reads the `col` tagged fields of row in the order of cols.
func rowValues(row model.SubmittedRow, cols []string) []any {
	out := make([]any, len(cols), len(cols)+6)
	if row == nil {
		return out
	}
	v := reflect.ValueOf(row)
	t := v.Type()
	byCol := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if c := t.Field(i).Tag.Get("col"); c != "" {
			byCol[c] = v.Field(i).String()
		}
	}
	for i, c := range cols {
		out[i] = byCol[c]
	}
	return out
}

func nullString(valid bool, s string) string {
	if !valid {
		return ""
	}
	return s
}
