// Package compliance turns submission timestamps into the dates that govern
// a locate ticket: when digging may lawfully begin, when the ticket lapses,
// and how long utility markings stay trustworthy.
package compliance

import (
	"fmt"
	"time"

	"locate-mcp/internal/calendar"
	"locate-mcp/internal/ticket"
)

const (
	// Waiting period between filing and lawful excavation start.
	waitingPeriodBusinessDays = 2
	// Calendar-day validity of a filed ticket.
	ticketValidityDays = 14
	// Calendar-day validity of physical markings after the last response.
	markingValidityDays = 14
)

// LawfulStart returns the earliest day excavation may begin for a ticket
// filed at ref: two full business days after the filing day.
func LawfulStart(ref time.Time) time.Time {
	return calendar.AddBusinessDays(ref, waitingPeriodBusinessDays)
}

// Expiration returns the last day a ticket filed at submission remains
// valid. Calendar days, weekends and holidays included.
func Expiration(submission time.Time) time.Time {
	return calendar.Normalize(submission).AddDate(0, 0, ticketValidityDays)
}

// MarkingValidity returns the day markings lapse given the response dates on
// the ticket, anchored at the most recent one. Nil when nothing has been
// received yet.
func MarkingValidity(responseDates []time.Time) *time.Time {
	if len(responseDates) == 0 {
		return nil
	}
	latest := responseDates[0]
	for _, d := range responseDates[1:] {
		if d.After(latest) {
			latest = d
		}
	}
	v := calendar.Normalize(latest).AddDate(0, 0, markingValidityDays)
	return &v
}

// Lifecycle is the advisory, date-derived view of a ticket shown to callers.
// It never feeds back into the authoritative workflow status.
type Lifecycle struct {
	DisplayStatus        string `json:"display_status"`
	CanStartWork         bool   `json:"can_start_work"`
	MarkingsValid        bool   `json:"markings_valid"`
	DaysUntilLawfulStart *int   `json:"days_until_lawful_start,omitempty"`
	DaysUntilExpiration  *int   `json:"days_until_expiration,omitempty"`
	RequiresAction       bool   `json:"requires_action"`
	ActionText           string `json:"action_text,omitempty"`
}

// Evaluate derives the lifecycle view for a ticket as of now.
func Evaluate(t ticket.Ticket, now time.Time) Lifecycle {
	today := calendar.Normalize(now)

	switch t.Status {
	case ticket.StatusCompleted:
		return Lifecycle{DisplayStatus: "completed"}
	case ticket.StatusCancelled:
		return Lifecycle{DisplayStatus: "cancelled"}
	case ticket.StatusExpired:
		return Lifecycle{
			DisplayStatus:  "expired",
			RequiresAction: true,
			ActionText:     "This ticket has expired. File a new locate request before digging.",
		}
	}

	if t.SubmittedAt == nil || t.LawfulStartDate == nil || t.TicketExpiresDate == nil {
		return Lifecycle{DisplayStatus: "not_submitted"}
	}

	lc := Lifecycle{
		DaysUntilLawfulStart: dayCountUntil(today, *t.LawfulStartDate),
		DaysUntilExpiration:  dayCountUntil(today, *t.TicketExpiresDate),
	}
	lc.MarkingsValid = t.MarkingValidUntil != nil && !today.After(calendar.Normalize(*t.MarkingValidUntil))

	expires := calendar.Normalize(*t.TicketExpiresDate)
	lawful := calendar.Normalize(*t.LawfulStartDate)

	switch {
	case today.After(expires):
		lc.DisplayStatus = "expired"
		lc.RequiresAction = true
		lc.ActionText = "This ticket has lapsed. File a new locate request before digging."
	case today.Before(lawful):
		lc.DisplayStatus = "waiting_period"
		lc.ActionText = fmt.Sprintf("Do not dig before %s.", lawful.Format("Monday, January 2"))
	default:
		lc.CanStartWork = true
		switch t.Status {
		case ticket.StatusReadyToDig:
			lc.DisplayStatus = "work_window_open"
			if !lc.MarkingsValid && t.MarkingValidUntil != nil {
				lc.RequiresAction = true
				lc.ActionText = "Markings have lapsed. Request a re-mark before continuing."
			}
		case ticket.StatusResponsesIn:
			lc.DisplayStatus = "ready_to_dig"
			lc.RequiresAction = true
			lc.ActionText = fmt.Sprintf("All utilities have responded. Begin work before %s.", expires.Format("Monday, January 2"))
			if !lc.MarkingsValid && t.MarkingValidUntil != nil {
				lc.ActionText = "Markings have lapsed. Request a re-mark before digging."
			}
		default:
			lc.DisplayStatus = "awaiting_responses"
			lc.ActionText = "The waiting period has ended but utilities are still responding. Proceed only with care."
		}
	}
	return lc
}

// dayCountUntil returns whole calendar days from today to target; negative
// once the target is past.
func dayCountUntil(today, target time.Time) *int {
	n := int(calendar.Normalize(target).Sub(calendar.Normalize(today)).Hours() / 24)
	return &n
}
