package services

import "strings"

// classReplacements canonicalizes plural Italian class names to the
// singular forms used in the ranking positions table.
var classReplacements = []struct {
	old string
	new string
}{
	{"Seniores", "Senior"},
	{"seniores", "Senior"},
	{"Juniores", "Junior"},
	{"juniores", "Junior"},
}

// divisionNames maps a recognizable substring to the canonical division
// name used in the ranking positions table.
var divisionNames = []struct {
	substr    string
	canonical string
}{
	{"olimpic", "Arco Olimpico"},
	{"compound", "Arco Compound"},
	{"nudo", "Arco Nudo"},
}

// NormalizeClassName canonicalizes an age-class name, e.g.
// "Seniores Maschile" becomes "Senior Maschile". Names without a
// senior/junior component pass through unchanged.
func NormalizeClassName(classe string) string {
	lower := strings.ToLower(classe)
	if !strings.Contains(lower, "senior") && !strings.Contains(lower, "junior") {
		return classe
	}
	out := classe
	for _, r := range classReplacements {
		out = strings.ReplaceAll(out, r.old, r.new)
	}
	return out
}

// NormalizeDivisionName canonicalizes a bow-division name, e.g.
// "Olimpico" becomes "Arco Olimpico". Names already carrying the "arco"
// prefix, and unrecognized divisions, pass through unchanged.
func NormalizeDivisionName(categoria string) string {
	lower := strings.ToLower(categoria)
	if strings.Contains(lower, "arco") {
		return categoria
	}
	for _, d := range divisionNames {
		if strings.Contains(lower, d.substr) {
			return d.canonical
		}
	}
	return categoria
}
