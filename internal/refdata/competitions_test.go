package refdata

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/TheIgorMC/mysite/internal/logger"
)

func writeTypesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "competition_arrows.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestCompetitionTypesLookup(t *testing.T) {
	path := writeTypesFile(t, `competition_type,category,arrow_count,max_score
Indoor 18m,indoor,60,600
FITA 70m,outdoor,72,720
H&F 24,campagna,48,
`)
	types := NewCompetitionTypes(path, logger.NewSilent())

	if got := types.Category("Indoor 18m"); got != "indoor" {
		t.Errorf("Category = %q, want indoor", got)
	}
	if got := types.Category("Gara Inventata"); got != CategoryUnknown {
		t.Errorf("unknown type should map to %q, got %q", CategoryUnknown, got)
	}
	if count := types.ArrowCount("FITA 70m"); count == nil || *count != 72 {
		t.Errorf("ArrowCount = %v, want 72", count)
	}
	// blank max_score cell tolerated
	if info := types.Info("H&F 24"); info == nil || info.MaxScore != nil {
		t.Errorf("blank max_score should stay nil: %+v", info)
	}
}

func TestCompetitionTypesMissingFile(t *testing.T) {
	types := NewCompetitionTypes(filepath.Join(t.TempDir(), "nope.csv"), logger.NewSilent())
	if got := types.Category("Indoor 18m"); got != CategoryUnknown {
		t.Errorf("missing file should yield unknown, got %q", got)
	}
	if cats := types.Categories(); len(cats) != 0 {
		t.Errorf("expected no categories, got %v", cats)
	}
}

func TestCompetitionTypesCategories(t *testing.T) {
	path := writeTypesFile(t, `competition_type,category
Indoor 18m,indoor
Indoor 25m,indoor
FITA 70m,outdoor
`)
	types := NewCompetitionTypes(path, logger.NewSilent())

	if got := types.Categories(); !reflect.DeepEqual(got, []string{"indoor", "outdoor"}) {
		t.Errorf("Categories = %v", got)
	}
	if got := types.TypesInCategory("indoor"); !reflect.DeepEqual(got, []string{"Indoor 18m", "Indoor 25m"}) {
		t.Errorf("TypesInCategory = %v", got)
	}
}

func TestCompetitionTypesToleratesShortAndBadRows(t *testing.T) {
	path := writeTypesFile(t, `competition_type,category,arrow_count
Indoor 18m,indoor,sixty
onlyonecell
,missingname,60
FITA 70m,outdoor,72
`)
	types := NewCompetitionTypes(path, logger.NewSilent())

	// non-numeric arrow count parses as nil, row still usable
	if got := types.Category("Indoor 18m"); got != "indoor" {
		t.Errorf("row with bad arrow count should survive, got %q", got)
	}
	if count := types.ArrowCount("Indoor 18m"); count != nil {
		t.Errorf("non-numeric arrow count should be nil, got %v", count)
	}
	if count := types.ArrowCount("FITA 70m"); count == nil || *count != 72 {
		t.Errorf("ArrowCount = %v, want 72", count)
	}
}

func TestAveragePerArrow(t *testing.T) {
	path := writeTypesFile(t, `competition_type,category,arrow_count
Indoor 18m,indoor,60
Gara Libera,other,
`)
	types := NewCompetitionTypes(path, logger.NewSilent())

	avg := types.AveragePerArrow(565, "Indoor 18m")
	if avg == nil || *avg != 9.42 {
		t.Errorf("AveragePerArrow = %v, want 9.42", avg)
	}
	if avg := types.AveragePerArrow(500, "Gara Libera"); avg != nil {
		t.Errorf("missing arrow count should yield nil, got %v", avg)
	}
	if avg := types.AveragePerArrow(500, "Gara Inventata"); avg != nil {
		t.Errorf("unknown type should yield nil, got %v", avg)
	}
}
