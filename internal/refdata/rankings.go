package refdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/TheIgorMC/mysite/internal/errors"
	"github.com/TheIgorMC/mysite/internal/logger"
)

// RankingEntry is the configured limit for one (qualifica, classe_gara,
// categoria) combination.
type RankingEntry struct {
	Qualifica        string `json:"qualifica"`
	ClasseGara       string `json:"classe_gara"`
	Categoria        string `json:"categoria"`
	PostiDisponibili int    `json:"posti_disponibili"`
	MinScore         *int   `json:"min_score,omitempty"`
}

type rankingKey struct {
	qualifica  string
	classeGara string
	categoria  string
}

// RankingPositions holds the ranking-positions table. Reload swaps the
// whole map atomically so readers always see either the old or the new
// table, never a partial one.
type RankingPositions struct {
	path  string
	log   logger.Logger
	table atomic.Pointer[map[rankingKey]RankingEntry]
}

// NewRankingPositions creates the table and performs the initial load.
// A missing file yields an empty table.
func NewRankingPositions(path string, log logger.Logger) *RankingPositions {
	r := &RankingPositions{path: path, log: log}
	r.Reload()
	return r
}

// Path returns the configured file path, used by the admin download
// endpoint.
func (r *RankingPositions) Path() string {
	return r.path
}

// Get returns the entry for the exact-match trimmed 3-tuple, or nil when
// not configured. Callers are expected to normalize class and division
// names first (services.NormalizeClassName / NormalizeDivisionName).
func (r *RankingPositions) Get(qualifica, classeGara, categoria string) *RankingEntry {
	key := rankingKey{
		qualifica:  strings.TrimSpace(qualifica),
		classeGara: strings.TrimSpace(classeGara),
		categoria:  strings.TrimSpace(categoria),
	}
	table := r.table.Load()
	if table == nil {
		return nil
	}
	if entry, ok := (*table)[key]; ok {
		return &entry
	}
	return nil
}

// All returns every configured entry, ordered by qualifica, class and
// division for stable output.
func (r *RankingPositions) All() []RankingEntry {
	table := r.table.Load()
	if table == nil {
		return nil
	}
	entries := make([]RankingEntry, 0, len(*table))
	for _, entry := range *table {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Qualifica != b.Qualifica {
			return a.Qualifica < b.Qualifica
		}
		if a.ClasseGara != b.ClasseGara {
			return a.ClasseGara < b.ClasseGara
		}
		return a.Categoria < b.Categoria
	})
	return entries
}

// Count returns the number of configured entries.
func (r *RankingPositions) Count() int {
	table := r.table.Load()
	if table == nil {
		return 0
	}
	return len(*table)
}

// Reload re-reads the file and replaces the table in one swap. Returns
// the new entry count. A missing file installs an empty table.
func (r *RankingPositions) Reload() int {
	table := make(map[rankingKey]RankingEntry)

	f, err := os.Open(r.path)
	if err != nil {
		r.log.Warn("ranking positions file not available", "path", r.path, "error", err)
		r.table.Store(&table)
		return 0
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		r.log.Error("failed to parse ranking positions file", "path", r.path, "error", err)
		r.table.Store(&table)
		return 0
	}

	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue // header or short row
		}
		posti, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			r.log.Warn("skipping ranking positions row with bad slot count", "row", i+1, "value", row[3])
			continue
		}
		entry := RankingEntry{
			Qualifica:        strings.TrimSpace(row[0]),
			ClasseGara:       strings.TrimSpace(row[1]),
			Categoria:        strings.TrimSpace(row[2]),
			PostiDisponibili: posti,
		}
		// min_score column only exists in later file revisions
		if len(row) > 4 {
			entry.MinScore = parseOptionalInt(row[4])
		}
		key := rankingKey{entry.Qualifica, entry.ClasseGara, entry.Categoria}
		table[key] = entry
	}

	r.table.Store(&table)
	r.log.Info("loaded ranking positions", "count", len(table), "path", r.path)
	return len(table)
}

// SaveUpload replaces the file on disk with the uploaded content and
// reloads the table. Only .csv files are accepted. Returns the new entry
// count.
func (r *RankingPositions) SaveUpload(filename string, content []byte) (int, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return 0, errors.Validation("only .csv files are accepted")
	}

	// Write to a sibling temp file then rename, so a failed upload never
	// truncates the live file.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return 0, errors.Wrap(err, errors.ErrInternal, "failed to store uploaded file")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return 0, errors.Wrap(err, errors.ErrInternal, fmt.Sprintf("failed to replace %s", r.path))
	}

	return r.Reload(), nil
}
