package services

import (
	"context"

	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// SubscriptionRequest registers one or more athletes for a competition
// turn in a single action.
type SubscriptionRequest struct {
	CodiceGara string
	NomeGara   string
	Turno      string
	Note       string
	Athletes   []SubscriptionAthlete
}

// SubscriptionAthlete is one athlete within a subscription request.
type SubscriptionAthlete struct {
	Tessera   string
	Nome      string
	Categoria string
	Classe    string
}

// CompetitionService handles the competition calendar and the
// subscription/interest workflows, dispatching notifications after each
// state-changing action.
type CompetitionService struct {
	client     orion.Client
	dispatcher *Dispatcher
	log        logger.Logger
}

// NewCompetitionService creates the service.
func NewCompetitionService(client orion.Client, dispatcher *Dispatcher, log logger.Logger) *CompetitionService {
	return &CompetitionService{client: client, dispatcher: dispatcher, log: log}
}

// Competitions lists the calendar, optionally only future events.
func (s *CompetitionService) Competitions(ctx context.Context, future bool, limit int) ([]orion.Gara, error) {
	gare, err := s.client.Competitions(ctx, future, limit)
	if err != nil {
		return nil, err
	}
	for i := range gare {
		gare[i].DataInizio = NormalizeDate(gare[i].DataInizio)
		gare[i].DataFine = NormalizeDate(gare[i].DataFine)
	}
	return gare, nil
}

// Turns lists the shooting shifts of one competition.
func (s *CompetitionService) Turns(ctx context.Context, codiceGara string) ([]orion.Turno, error) {
	return s.client.Turns(ctx, codiceGara)
}

// Invitations lists published invitations.
func (s *CompetitionService) Invitations(ctx context.Context, opts orion.InvitiOptions) ([]orion.Invito, error) {
	return s.client.Invitations(ctx, opts)
}

// Subscriptions lists one athlete's registrations.
func (s *CompetitionService) Subscriptions(ctx context.Context, tessera string) ([]orion.Iscrizione, error) {
	return s.client.Subscriptions(ctx, tessera)
}

// AllSubscriptions exports every registration, for the admin dashboard.
func (s *CompetitionService) AllSubscriptions(ctx context.Context) ([]orion.Iscrizione, error) {
	return s.client.AllSubscriptions(ctx)
}

// Subscribe registers every athlete in the request for the given turn,
// then notifies the accounts managing them. A failed registration stops
// the batch; already-created registrations are reported in the
// notification regardless.
func (s *CompetitionService) Subscribe(ctx context.Context, req SubscriptionRequest) ([]orion.Iscrizione, DispatchReport, error) {
	created := make([]orion.Iscrizione, 0, len(req.Athletes))
	notified := make([]AthleteDetails, 0, len(req.Athletes))

	for _, athlete := range req.Athletes {
		sub, err := s.client.CreateSubscription(ctx, orion.Iscrizione{
			CodiceGara:    orion.FlexString(req.CodiceGara),
			TesseraAtleta: orion.FlexString(athlete.Tessera),
			Categoria:     athlete.Categoria,
			Classe:        athlete.Classe,
			Turno:         req.Turno,
			Note:          req.Note,
		})
		if err != nil {
			report := s.notifySubscribed(ctx, req, notified)
			return created, report, err
		}
		created = append(created, *sub)
		notified = append(notified, AthleteDetails{
			Tessera: athlete.Tessera,
			Details: map[string]string{
				"Nome Gara":   req.NomeGara,
				"Codice Gara": req.CodiceGara,
				"Atleta":      athlete.Nome,
				"Tessera":     athlete.Tessera,
				"Turno":       req.Turno,
			},
		})
	}

	report := s.notifySubscribed(ctx, req, notified)
	return created, report, nil
}

func (s *CompetitionService) notifySubscribed(ctx context.Context, req SubscriptionRequest, athletes []AthleteDetails) DispatchReport {
	if len(athletes) == 0 {
		return DispatchReport{}
	}
	return s.dispatcher.Dispatch(ctx, Notification{
		MailType: "subscription",
		Subject:  "Iscrizione confermata: " + req.NomeGara,
		BodyText: "L'iscrizione alla gara è stata registrata.",
		Athletes: athletes,
	})
}

// CancelSubscription removes a registration and notifies the accounts
// managing the athlete.
func (s *CompetitionService) CancelSubscription(ctx context.Context, id int, tessera, nomeGara, codiceGara string) (DispatchReport, error) {
	if err := s.client.DeleteSubscription(ctx, id); err != nil {
		return DispatchReport{}, err
	}
	report := s.dispatcher.Dispatch(ctx, Notification{
		MailType: "cancellation_confirmed",
		Subject:  "Iscrizione annullata: " + nomeGara,
		BodyText: "L'iscrizione alla gara è stata annullata.",
		Athletes: []AthleteDetails{{
			Tessera: tessera,
			Details: map[string]string{
				"Nome Gara":   nomeGara,
				"Codice Gara": codiceGara,
				"Tessera":     tessera,
			},
		}},
	})
	return report, nil
}

// UpdateSubscription patches a registration (turn, state or note).
func (s *CompetitionService) UpdateSubscription(ctx context.Context, id int, patch map[string]interface{}) (*orion.Iscrizione, error) {
	return s.client.UpdateSubscription(ctx, id, patch)
}

// Interests lists interest expressions for an athlete and/or competition.
func (s *CompetitionService) Interests(ctx context.Context, tessera, codiceGara string) ([]orion.Interesse, error) {
	return s.client.Interests(ctx, tessera, codiceGara)
}

// ExpressInterest records a non-binding interest and notifies the
// accounts managing the athlete.
func (s *CompetitionService) ExpressInterest(ctx context.Context, interest orion.Interesse, nomeGara string) (*orion.Interesse, DispatchReport, error) {
	created, err := s.client.CreateInterest(ctx, interest)
	if err != nil {
		return nil, DispatchReport{}, err
	}
	report := s.dispatcher.Dispatch(ctx, Notification{
		MailType: "interest",
		Subject:  "Interesse registrato: " + nomeGara,
		BodyText: "L'interesse per la gara è stato registrato.",
		Athletes: []AthleteDetails{{
			Tessera: created.TesseraAtleta.String(),
			Details: map[string]string{
				"Nome Gara":   nomeGara,
				"Codice Gara": created.CodiceGara.String(),
				"Tessera":     created.TesseraAtleta.String(),
			},
		}},
	})
	return created, report, nil
}

// RemoveInterest deletes an interest expression. No notification goes
// out for interest removal.
func (s *CompetitionService) RemoveInterest(ctx context.Context, id int) error {
	return s.client.DeleteInterest(ctx, id)
}
