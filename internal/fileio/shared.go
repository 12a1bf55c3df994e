package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrUnreadable = errors.New("unreadable file")

// readGrid picks a reader by extension. headerRow is 1-based; values <= 0 mean 1.
func readGrid(r io.Reader, filename string, headerRow int) ([][]string, int, error) {
	if headerRow <= 0 {
		headerRow = 1
	}
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".xls":
		rows, err = readXLS(r, headerRow)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, headerRow, fmt.Errorf("%w: unsupported extension %q", ErrUnreadable, ext)
	}
	if err != nil {
		return nil, headerRow, fmt.Errorf("%w: %s: %v", ErrUnreadable, filename, err)
	}
	return rows, headerRow, nil
}

var rxHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// headerKey: "Unit Rate to HLL (Excl. of Tax)" -> "unit_rate_to_hll_excl_of_tax"
func headerKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	s = rxHeaderJunk.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// normalizeCell trims and turns NBSP/narrow NBSP into plain spaces.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	return strings.TrimSpace(s)
}

// pickHeader takes the header row and names empty cells "column_N".
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = headerKey(v)
		if v == "" {
			v = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps converts the rows below the header, skipping fully empty ones.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	var out []map[string]string
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
