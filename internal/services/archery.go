// Package services holds the domain logic between the HTTP handlers and
// the external Orion gateway: date and name normalization, statistics
// aggregation, competition workflows and notification dispatch.
package services

import (
	"context"
	"encoding/json"

	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/internal/models"
	"github.com/TheIgorMC/mysite/internal/refdata"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// ResultsQuery narrows an athlete results request.
type ResultsQuery struct {
	EventType string
	Category  string
	Limit     int
}

// ArcheryService answers athlete-centric queries: search, results,
// statistics and ranking standings. It holds no per-request state.
type ArcheryService struct {
	client     orion.Client
	aggregator *Aggregator
	rankings   *refdata.RankingPositions
	types      *refdata.CompetitionTypes
	log        logger.Logger
}

// NewArcheryService creates the service.
func NewArcheryService(client orion.Client, types *refdata.CompetitionTypes, rankings *refdata.RankingPositions, log logger.Logger) *ArcheryService {
	return &ArcheryService{
		client:     client,
		aggregator: NewAggregator(types),
		rankings:   rankings,
		types:      types,
		log:        log,
	}
}

// Search looks up athletes by name or tessera in the registry.
func (s *ArcheryService) Search(ctx context.Context, query string) ([]models.Athlete, error) {
	raw, err := s.client.SearchAthletes(ctx, query)
	if err != nil {
		return nil, err
	}
	athletes := make([]models.Athlete, 0, len(raw))
	for _, a := range raw {
		athletes = append(athletes, models.Athlete{
			Tessera: a.Tessera.String(),
			Name:    a.Nome,
			Classe:  a.Classe,
			Society: a.SocietaCodice.String(),
		})
	}
	return athletes, nil
}

// Results fetches and transforms the competition results of one athlete.
// Dates are normalized, per-arrow averages filled in, and the list is
// optionally narrowed to one category.
func (s *ArcheryService) Results(ctx context.Context, tessera string, q ResultsQuery) ([]models.CompetitionResult, error) {
	raw, err := s.client.AthleteResults(ctx, tessera, orion.ResultsOptions{
		EventType: q.EventType,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.CompetitionResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, models.CompetitionResult{
			Tessera:         r.Atleta.String(),
			CompetitionName: r.NomeGara,
			CompetitionType: r.TipoGara,
			Date:            NormalizeDate(r.DataGara),
			Position:        r.Posizione,
			Score:           r.Punteggio,
			ClubCode:        r.CodiceSocietaAtleta.String(),
			ClubName:        r.NomeSocietaAtleta,
			OrganizerCode:   r.CodiceSocietaOrganizzatrice.String(),
			OrganizerName:   r.NomeSocietaOrganizzatrice,
		})
	}

	results = s.aggregator.FilterByCategory(results, q.Category)
	return s.aggregator.WithAverages(results), nil
}

// Statistics computes the full summary block for one athlete from their
// complete result history.
func (s *ArcheryService) Statistics(ctx context.Context, tessera string, q ResultsQuery) (*models.StatisticsSummary, error) {
	results, err := s.Results(ctx, tessera, q)
	if err != nil {
		return nil, err
	}
	summary := s.aggregator.Summary(results, DefaultRecentWindow)
	return &summary, nil
}

// ChartStatistics proxies the upstream chart-format statistics blob.
func (s *ArcheryService) ChartStatistics(ctx context.Context, tessera string) (json.RawMessage, error) {
	return s.client.AthleteStatistics(ctx, tessera)
}

// Rankings fetches the athlete's ranking standings and enriches each row
// with the configured slot limit and minimum score, when a matching
// ranking-positions entry exists after name normalization.
func (s *ArcheryService) Rankings(ctx context.Context, tessera string) ([]models.AthleteRanking, error) {
	raw, err := s.client.AthleteRankings(ctx, tessera)
	if err != nil {
		return nil, err
	}

	rankings := make([]models.AthleteRanking, 0, len(raw))
	for _, r := range raw {
		ranking := models.AthleteRanking{
			Qualifica:  r.Qualifica,
			ClasseGara: r.ClasseGara,
			Categoria:  r.Categoria,
			Posizione:  r.Posizione,
			Punteggio:  r.Punteggio,
			UpdatedAt:  r.UpdatedAt,
		}
		entry := s.rankings.Get(
			r.Qualifica,
			NormalizeClassName(r.ClasseGara),
			NormalizeDivisionName(r.Categoria),
		)
		if entry != nil {
			posti := entry.PostiDisponibili
			ranking.MaxPositions = &posti
			ranking.MinScore = entry.MinScore
		}
		rankings = append(rankings, ranking)
	}
	return rankings, nil
}

// EventTypes lists the competition type names known upstream.
func (s *ArcheryService) EventTypes(ctx context.Context) ([]string, error) {
	return s.client.EventTypes(ctx)
}

// Categories lists the locally configured competition categories.
func (s *ArcheryService) Categories() []string {
	return s.types.Categories()
}

// TypesInCategory lists the competition types of one category.
func (s *ArcheryService) TypesInCategory(category string) []string {
	return s.types.TypesInCategory(category)
}
