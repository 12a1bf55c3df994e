package service

import (
	"regexp"
	"sort"
	"strings"
)

// name with an optional "(strength)" right after it: "paracetamol(500mg)"
var reMolecule = regexp.MustCompile(`([\p{L}\p{N}_\s]+)(?:\(([\p{L}\p{N}_./%]+)\))?`)

// Molecule is one parsed component. Unit is nil when no parenthesized strength follows the name.
type Molecule struct {
	Name string
	Unit *string
}

func (m Molecule) equal(o Molecule) bool {
	if m.Name != o.Name {
		return false
	}
	if m.Unit == nil || o.Unit == nil {
		return m.Unit == nil && o.Unit == nil
	}
	return *m.Unit == *o.Unit
}

// Parse extracts (name, unit) pairs sorted by name then unit (missing unit first).
// Text with nothing recognisable yields an empty list.
func Parse(text string) []Molecule {
	matches := reMolecule.FindAllStringSubmatch(text, -1)
	out := make([]Molecule, 0, len(matches))
	for _, m := range matches {
		name := collapseSpaces(m[1])
		if name == "" {
			continue
		}
		mol := Molecule{Name: name}
		if m[2] != "" {
			unit := m[2]
			mol.Unit = &unit
		}
		out = append(out, mol)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		switch {
		case a.Unit == nil:
			return b.Unit != nil
		case b.Unit == nil:
			return false
		default:
			return *a.Unit < *b.Unit
		}
	})
	return out
}

// StructurallyEqual compares the parsed molecules of a and b. Two unparseable
// strings are never equal.
func StructurallyEqual(a, b string) bool {
	pa, pb := Parse(a), Parse(b)
	if len(pa) == 0 || len(pb) == 0 || len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if !pa[i].equal(pb[i]) {
			return false
		}
	}
	return true
}

// units lists the parsed strengths for log lines.
func units(ms []Molecule) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Unit == nil {
			parts = append(parts, m.Name)
			continue
		}
		parts = append(parts, m.Name+"("+*m.Unit+")")
	}
	return strings.Join(parts, ";")
}
