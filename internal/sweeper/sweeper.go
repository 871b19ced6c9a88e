// Package sweeper expires tickets whose response window has lapsed. Tickets
// never expire themselves; this is the background process that notices.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"locate-mcp/internal/store"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/workflow"
)

// Sweeper scans stored tickets and expires the ones past their expiration
// date.
type Sweeper struct {
	store   store.Store
	machine *workflow.Machine
}

// New builds a sweeper over a store and a state machine.
func New(st store.Store, m *workflow.Machine) *Sweeper {
	return &Sweeper{store: st, machine: m}
}

// SweepOnce runs a single pass as of now and returns how many tickets it
// expired. A ticket stays valid through the whole of its expiration day;
// only the next calendar day tips it over. A ticket that fails to transition
// or save is logged and skipped; one bad record must not stall the rest.
func (s *Sweeper) SweepOnce(now time.Time) (int, error) {
	expired := 0
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Only tickets still waiting on responses can lapse. Once responses are
	// in, expiry is a compliance question, not a status change.
	for _, status := range []ticket.Status{ticket.StatusSubmitted, ticket.StatusInProgress} {
		tickets, err := s.store.ListTickets(store.Filter{Status: status})
		if err != nil {
			return expired, fmt.Errorf("listing %s tickets: %w", status, err)
		}

		for _, t := range tickets {
			if t.TicketExpiresDate == nil || !today.After(*t.TicketExpiresDate) {
				continue
			}

			out, err := s.machine.Transition(t, ticket.StatusExpired, "sweeper", map[string]string{
				"reason":     "response window elapsed",
				"expired_on": t.TicketExpiresDate.Format("2006-01-02"),
			})
			if err != nil {
				log.Warn().Err(err).Str("ticket", t.TicketID).Msg("Could not expire ticket")
				continue
			}
			if err := s.store.SaveTicket(out); err != nil {
				log.Warn().Err(err).Str("ticket", t.TicketID).Msg("Could not save expired ticket")
				continue
			}
			log.Info().Str("ticket", t.TicketID).Str("was", string(status)).Msg("Ticket expired")
			expired++
		}
	}
	return expired, nil
}

// Run sweeps on a cron schedule until the context is cancelled. The schedule
// accepts standard five-field cron expressions and shorthands like
// "@every 1h".
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := s.SweepOnce(time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("expired", n).Msg("Sweep finished")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("Sweeper started")
	<-ctx.Done()
	c.Stop()
	log.Info().Msg("Sweeper stopped")
	return ctx.Err()
}
