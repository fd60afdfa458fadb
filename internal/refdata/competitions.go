// Package refdata loads the flat-file reference tables: competition-type
// metadata and ranking position limits. Both degrade to empty tables when
// their file is missing; callers treat absent data as "no restriction".
package refdata

import (
	"encoding/csv"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/TheIgorMC/mysite/internal/logger"
)

// CategoryUnknown is returned for competition types not present in the table.
const CategoryUnknown = "unknown"

// CompetitionTypeInfo is the metadata for one competition type.
// ArrowCount and MaxScore are nil when the source row left them blank.
type CompetitionTypeInfo struct {
	Type       string `json:"type"`
	Category   string `json:"category"`
	ArrowCount *int   `json:"arrow_count"`
	MaxScore   *int   `json:"max_score"`
}

// CompetitionTypes answers competition-type lookups from a CSV table with
// columns competition_type, category, arrow_count, max_score. The table is
// loaded once; a restart picks up file changes.
type CompetitionTypes struct {
	path string
	log  logger.Logger

	once sync.Once
	info map[string]CompetitionTypeInfo
}

// NewCompetitionTypes creates the table without reading the file yet.
// Call Load at startup, or let the first lookup trigger it.
func NewCompetitionTypes(path string, log logger.Logger) *CompetitionTypes {
	return &CompetitionTypes{path: path, log: log}
}

// Load reads the CSV exactly once. A missing or unreadable file leaves
// the table empty and is not an error for callers.
func (c *CompetitionTypes) Load() {
	c.once.Do(func() {
		c.info = make(map[string]CompetitionTypeInfo)

		f, err := os.Open(c.path)
		if err != nil {
			c.log.Warn("competition types file not available, lookups return unknown", "path", c.path, "error", err)
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true

		rows, err := r.ReadAll()
		if err != nil {
			c.log.Error("failed to parse competition types file", "path", c.path, "error", err)
			return
		}

		for i, row := range rows {
			if i == 0 || len(row) < 2 {
				continue // header or short row
			}
			info := CompetitionTypeInfo{
				Type:     strings.TrimSpace(row[0]),
				Category: strings.TrimSpace(row[1]),
			}
			if len(row) > 2 {
				info.ArrowCount = parseOptionalInt(row[2])
			}
			if len(row) > 3 {
				info.MaxScore = parseOptionalInt(row[3])
			}
			if info.Type == "" {
				continue
			}
			c.info[info.Type] = info
		}
		c.log.Info("loaded competition types", "count", len(c.info), "path", c.path)
	})
}

// Info returns metadata for a competition type, or nil if unknown.
func (c *CompetitionTypes) Info(competitionType string) *CompetitionTypeInfo {
	c.Load()
	if info, ok := c.info[competitionType]; ok {
		return &info
	}
	return nil
}

// Category returns the category for a competition type, or "unknown".
func (c *CompetitionTypes) Category(competitionType string) string {
	if info := c.Info(competitionType); info != nil {
		return info.Category
	}
	return CategoryUnknown
}

// ArrowCount returns the arrow count for a competition type, nil if not
// configured.
func (c *CompetitionTypes) ArrowCount(competitionType string) *int {
	if info := c.Info(competitionType); info != nil {
		return info.ArrowCount
	}
	return nil
}

// Categories returns the sorted set of known categories.
func (c *CompetitionTypes) Categories() []string {
	c.Load()
	seen := make(map[string]bool)
	for _, info := range c.info {
		seen[info.Category] = true
	}
	categories := make([]string, 0, len(seen))
	for cat := range seen {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return categories
}

// TypesInCategory returns the sorted competition types of one category.
func (c *CompetitionTypes) TypesInCategory(category string) []string {
	c.Load()
	var types []string
	for _, info := range c.info {
		if info.Category == category {
			types = append(types, info.Type)
		}
	}
	sort.Strings(types)
	return types
}

// AveragePerArrow computes the per-arrow average for a score shot in the
// given competition type, rounded to two decimals. Nil when the arrow
// count is unknown or zero.
func (c *CompetitionTypes) AveragePerArrow(score int, competitionType string) *float64 {
	count := c.ArrowCount(competitionType)
	if count == nil || *count == 0 {
		return nil
	}
	avg := math.Round(float64(score)/float64(*count)*100) / 100
	return &avg
}

// parseOptionalInt tolerates blank and non-numeric cells.
func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
