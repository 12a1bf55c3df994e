package service

import (
	"regexp"
	"sort"
	"strings"
)

// molecule separators in a composition: "A + B", "A|B"
var moleculeSep = regexp.MustCompile(`[+|]`)

// Normalize turns a composition/implant description into its comparable form:
// molecules lowercased, trimmed, whitespace-collapsed, sorted and joined with " + ".
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	parts := moleculeSep.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = collapseSpaces(strings.ToLower(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return strings.Join(out, " + ")
}

// normalizeAttr is the comparison form for price-cap attributes (dosage form, packing unit, variant).
func normalizeAttr(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tokenSort sorts whitespace tokens lexicographically.
func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}
