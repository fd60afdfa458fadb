package services

import (
	"math"
	"sort"

	"github.com/TheIgorMC/mysite/internal/models"
	"github.com/TheIgorMC/mysite/internal/refdata"
)

// assumedFieldSize is the field size used for the percentile estimate.
// The upstream data carries no per-competition participant counts, so a
// fixed field of 30 is assumed.
const assumedFieldSize = 30.0

// DefaultRecentWindow is how many recent competitions the form stats
// analyze when the caller does not say otherwise.
const DefaultRecentWindow = 10

// Aggregator computes per-athlete statistics over competition result
// lists. All methods are single-pass over small in-memory slices; nothing
// is cached between calls.
type Aggregator struct {
	types *refdata.CompetitionTypes
}

// NewAggregator creates an aggregator backed by the competition type
// table.
func NewAggregator(types *refdata.CompetitionTypes) *Aggregator {
	return &Aggregator{types: types}
}

// MedalCount counts podium finishes. Total is the number of results
// analyzed, not the number of medals.
func (a *Aggregator) MedalCount(results []models.CompetitionResult) models.Medals {
	m := models.Medals{Total: len(results)}
	for _, r := range results {
		if r.Position == nil {
			continue
		}
		switch *r.Position {
		case 1:
			m.Gold++
		case 2:
			m.Silver++
		case 3:
			m.Bronze++
		}
	}
	return m
}

// RecentFormStats analyzes the lastN most recent results. The position
// mean skips entries without a position, but CompetitionsAnalyzed counts
// the whole window. The percentile is estimated against a fixed assumed
// field size, capped at 100.
func (a *Aggregator) RecentFormStats(results []models.CompetitionResult, lastN int) models.RecentForm {
	if lastN <= 0 {
		lastN = DefaultRecentWindow
	}

	sorted := make([]models.CompetitionResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateSortKey(sorted[i].Date) > dateSortKey(sorted[j].Date)
	})
	if len(sorted) > lastN {
		sorted = sorted[:lastN]
	}

	form := models.RecentForm{CompetitionsAnalyzed: len(sorted)}

	var positionSum, positionCount int
	for _, r := range sorted {
		if r.Position == nil {
			continue
		}
		positionSum += *r.Position
		positionCount++
		if *r.Position <= 3 {
			form.TopFinishes++
		}
	}

	if positionCount > 0 {
		avg := float64(positionSum) / float64(positionCount)
		percentile := math.Min(100, avg/assumedFieldSize*100)
		form.AvgPosition = &avg
		form.AvgPercentile = &percentile
	}
	return form
}

// BestScoreByCategory returns the best scoring result per category.
// Results with a nil or zero score never compete; ties keep the first
// result encountered.
func (a *Aggregator) BestScoreByCategory(results []models.CompetitionResult) map[string]models.BestScore {
	best := make(map[string]models.BestScore)
	for _, r := range results {
		if r.Score == nil || *r.Score == 0 {
			continue
		}
		category := a.types.Category(r.CompetitionType)
		if current, ok := best[category]; ok && current.Score >= *r.Score {
			continue
		}
		best[category] = models.BestScore{
			Score:       *r.Score,
			Competition: r.CompetitionName,
			Date:        r.Date,
			Type:        r.CompetitionType,
		}
	}
	return best
}

// Summary composes the full statistics block for one athlete. The
// category breakdown covers every known category, reporting count 0 and
// best score 0 for categories the athlete never shot.
func (a *Aggregator) Summary(results []models.CompetitionResult, lastN int) models.StatisticsSummary {
	bestScores := a.BestScoreByCategory(results)

	breakdown := make(map[string]models.CategoryBreakdown)
	for _, category := range a.types.Categories() {
		breakdown[category] = models.CategoryBreakdown{}
	}
	for _, r := range results {
		category := a.types.Category(r.CompetitionType)
		entry := breakdown[category]
		entry.Count++
		if best, ok := bestScores[category]; ok {
			entry.BestScore = best.Score
		}
		breakdown[category] = entry
	}

	return models.StatisticsSummary{
		TotalCompetitions: len(results),
		Medals:            a.MedalCount(results),
		BestScores:        bestScores,
		RecentForm:        a.RecentFormStats(results, lastN),
		Categories:        breakdown,
	}
}

// WithAverages fills in the per-arrow average and arrow count for each
// result whose competition type has a configured arrow count.
func (a *Aggregator) WithAverages(results []models.CompetitionResult) []models.CompetitionResult {
	for i, r := range results {
		if r.Score == nil {
			continue
		}
		results[i].ArrowCount = a.types.ArrowCount(r.CompetitionType)
		results[i].AveragePerArrow = a.types.AveragePerArrow(*r.Score, r.CompetitionType)
	}
	return results
}

// FilterByCategory keeps only the results whose competition type belongs
// to the given category. An empty category keeps everything.
func (a *Aggregator) FilterByCategory(results []models.CompetitionResult, category string) []models.CompetitionResult {
	if category == "" {
		return results
	}
	filtered := make([]models.CompetitionResult, 0, len(results))
	for _, r := range results {
		if a.types.Category(r.CompetitionType) == category {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
