package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// sharedDetailKeys are carried once per email instead of once per
// athlete when several athletes share one message.
var sharedDetailKeys = []string{"Nome Gara", "Codice Gara"}

// OwnerLookup resolves which account emails manage an athlete.
type OwnerLookup interface {
	EmailsForAthlete(ctx context.Context, tessera string) ([]string, error)
}

// EmailSender queues one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, req orion.EmailRequest) error
}

// AthleteDetails is one athlete's contribution to a notification.
type AthleteDetails struct {
	Tessera string
	Details map[string]string
}

// Notification is one logical event to fan out, possibly covering
// several athletes registered in the same action.
type Notification struct {
	MailType string
	Subject  string
	BodyText string
	Athletes []AthleteDetails
}

// DispatchReport summarizes one fan-out.
type DispatchReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher fans notifications out to the accounts managing each
// affected athlete. One email goes to each distinct address; when an
// address manages several of the affected athletes their details are
// merged into a single message.
type Dispatcher struct {
	owners OwnerLookup
	sender EmailSender
	log    logger.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(owners OwnerLookup, sender EmailSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{owners: owners, sender: sender, log: log}
}

// Dispatch sends the notification. Delivery is best effort: a failed
// recipient is logged and counted, never propagated, so a broken mailer
// cannot fail the action that triggered the notification.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) DispatchReport {
	byEmail := d.groupByRecipient(ctx, n.Athletes)

	// Stable send order keeps logs and tests deterministic.
	emails := make([]string, 0, len(byEmail))
	for email := range byEmail {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	var report DispatchReport
	for _, email := range emails {
		athletes := byEmail[email]
		req := orion.EmailRequest{
			RecipientEmail: email,
			MailType:       n.MailType,
			Locale:         "it",
			Subject:        n.Subject,
			BodyText:       n.BodyText,
			Details:        combineDetails(athletes),
		}
		if len(athletes) > 1 {
			req.Subject = fmt.Sprintf("%s (%d atleti)", n.Subject, len(athletes))
		}

		if err := d.sender.SendEmail(ctx, req); err != nil {
			d.log.Error("failed to queue notification email", "recipient", email, "mail_type", n.MailType, "error", err)
			report.Failed++
			continue
		}
		d.log.Info("queued notification email", "recipient", email, "mail_type", n.MailType, "athletes", len(athletes))
		report.Sent++
	}
	return report
}

// groupByRecipient inverts the athlete list into recipient -> athletes.
// Owner lookups are cached per dispatch so an athlete appearing once is
// resolved once.
func (d *Dispatcher) groupByRecipient(ctx context.Context, athletes []AthleteDetails) map[string][]AthleteDetails {
	byEmail := make(map[string][]AthleteDetails)
	cache := make(map[string][]string)

	for _, athlete := range athletes {
		emails, ok := cache[athlete.Tessera]
		if !ok {
			var err error
			emails, err = d.owners.EmailsForAthlete(ctx, athlete.Tessera)
			if err != nil {
				d.log.Error("failed to resolve notification recipients", "tessera", athlete.Tessera, "error", err)
				emails = nil
			}
			cache[athlete.Tessera] = emails
		}
		for _, email := range emails {
			byEmail[email] = append(byEmail[email], athlete)
		}
	}
	return byEmail
}

// combineDetails merges the detail maps of the athletes sharing one
// email. A single athlete keeps its map as-is; several athletes get
// their entries prefixed with "Atleta N - ", with the competition keys
// carried once from the first athlete.
func combineDetails(athletes []AthleteDetails) map[string]string {
	if len(athletes) == 1 {
		return athletes[0].Details
	}

	combined := make(map[string]string)
	for _, key := range sharedDetailKeys {
		if value, ok := athletes[0].Details[key]; ok {
			combined[key] = value
		}
	}
	for i, athlete := range athletes {
		for key, value := range athlete.Details {
			if isSharedKey(key) {
				continue
			}
			combined[fmt.Sprintf("Atleta %d - %s", i+1, key)] = value
		}
	}
	return combined
}

func isSharedKey(key string) bool {
	for _, shared := range sharedDetailKeys {
		if key == shared {
			return true
		}
	}
	return false
}
