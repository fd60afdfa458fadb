package services

import (
	"strings"
	"time"
)

// isoDate is the canonical date form used everywhere in the service.
const isoDate = "2006-01-02"

// earliestSortDate is where undated results sort in recency ordering.
const earliestSortDate = "2000-01-01"

// dateLayouts are tried in order. DD/MM/YYYY comes before MM/DD/YYYY, so
// ambiguous dates like 03/04/2024 resolve day-first (Italian convention).
var dateLayouts = []string{
	isoDate,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"01/02/2006",
}

// NormalizeDate converts a date string in any recognized format to ISO
// YYYY-MM-DD. Empty input returns empty; an unrecognized format returns
// the input unmodified so callers never lose the raw value.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate)
		}
	}
	// Timestamps like 2024-03-15T10:00:00Z also appear upstream.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(isoDate)
	}
	return s
}

// dateSortKey maps a raw date to its sortable ISO form. Dates that fail
// normalization sort as the earliest possible date rather than the raw
// string, so garbage input never outranks real dates.
func dateSortKey(raw string) string {
	normalized := NormalizeDate(raw)
	if normalized == "" {
		return earliestSortDate
	}
	if _, err := time.Parse(isoDate, normalized); err != nil {
		return earliestSortDate
	}
	return normalized
}
