package fileio

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"pricebid-recon/internal/reconcile/model"
)

var ErrMissingColumns = errors.New("missing required columns")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Batch is a decoded upload. Rejected holds per-row validation messages; those rows
// are not in Rows.
type Batch struct {
	Kind     model.FileType
	Rows     []model.SubmittedRow
	Rejected []string
}

// RequiredColumns lists the header names a file of kind must carry.
func RequiredColumns(kind model.FileType) []string {
	switch kind {
	case model.FileTypeComposition:
		return columnsOf(reflect.TypeOf(model.CompositionRow{}))
	case model.FileTypeImplant:
		return columnsOf(reflect.TypeOf(model.ImplantRow{}))
	}
	return nil
}

func columnsOf(t reflect.Type) []string {
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if c := t.Field(i).Tag.Get("col"); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// ReadBatch reads an uploaded price bid. Unreadable files and missing headers fail the
// whole batch; rows with empty required cells are rejected one by one.
func ReadBatch(r io.Reader, filename string, kind model.FileType, headerRow int) (Batch, error) {
	b := Batch{Kind: kind}
	if !kind.Valid() {
		return b, fmt.Errorf("%w: file type %d", ErrUnreadable, int(kind))
	}
	grid, headerRow, err := readGrid(r, filename, headerRow)
	if err != nil {
		return b, err
	}
	if len(grid) == 0 {
		return b, fmt.Errorf("%w: %s is empty", ErrUnreadable, filename)
	}

	headers := pickHeader(grid, headerRow)
	if missing := missingColumns(headers, RequiredColumns(kind)); len(missing) > 0 {
		return b, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for i, rec := range rowsToMaps(grid, headers, headerRow) {
		row, err := decodeRow(kind, rec)
		if err != nil {
			b.Rejected = append(b.Rejected, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if msgs := rowErrors(i+1, row); len(msgs) > 0 {
			b.Rejected = append(b.Rejected, msgs...)
			continue
		}
		b.Rows = append(b.Rows, row)
	}
	return b, nil
}

func missingColumns(headers, required []string) []string {
	have := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		have[h] = struct{}{}
	}
	var missing []string
	for _, c := range required {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

func decodeRow(kind model.FileType, rec map[string]string) (model.SubmittedRow, error) {
	switch kind {
	case model.FileTypeComposition:
		var row model.CompositionRow
		fill(&row, rec)
		return row, nil
	case model.FileTypeImplant:
		var row model.ImplantRow
		fill(&row, rec)
		return row, nil
	}
	return nil, fmt.Errorf("unknown file type %d", int(kind))
}

// fill copies cells into the string fields tagged `col`.
func fill(dst any, rec map[string]string) {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := t.Field(i).Tag.Get("col")
		if col == "" || v.Field(i).Kind() != reflect.String {
			continue
		}
		v.Field(i).SetString(rec[col])
	}
}

func rowErrors(n int, row model.SubmittedRow) []string {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("Row %d: %v", n, err)}
	}
	t := reflect.TypeOf(row)
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		col := fe.Field()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			col = f.Tag.Get("col")
		}
		msgs = append(msgs, fmt.Sprintf("Row %d must have a value in '%s'.", n, col))
	}
	return msgs
}
