package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/compliance"
	"locate-mcp/internal/ticket"
)

// AuditSink receives the audit event emitted by each successful transition.
type AuditSink interface {
	Record(e audit.Event) error
}

// Machine applies lifecycle transitions to tickets. It is stateless apart
// from its collaborators and safe for concurrent use.
type Machine struct {
	Audit AuditSink
	Now   func() time.Time
}

// NewMachine builds a machine emitting to the given sink. A nil sink
// disables audit emission (used by pure-logic tests).
func NewMachine(sink AuditSink) *Machine {
	return &Machine{Audit: sink, Now: time.Now}
}

// Transition moves a ticket to a new status, returning the updated copy.
// The input ticket is never modified. Entering SUBMITTED stamps the
// submission time and the derived compliance dates. Exactly one audit event
// is emitted per successful transition.
func (m *Machine) Transition(t ticket.Ticket, to ticket.Status, userID string, details map[string]string) (ticket.Ticket, error) {
	if !to.IsValid() {
		return t, fmt.Errorf("unknown target status %q", to)
	}
	if !CanTransition(t.Status, to) {
		return t, &StateTransitionError{Current: t.Status, Attempted: to}
	}

	now := m.now()
	c := t.Clone()
	from := c.Status
	c.Status = to
	c.UpdatedAt = now

	if to == ticket.StatusSubmitted && c.SubmittedAt == nil {
		sub := now
		lawful := compliance.LawfulStart(now)
		expires := compliance.Expiration(now)
		c.SubmittedAt = &sub
		c.LawfulStartDate = &lawful
		c.TicketExpiresDate = &expires
	}

	m.emit(audit.Event{
		EventID:    uuid.NewString(),
		TicketID:   c.TicketID,
		EventType:  audit.StatusChanged,
		FromStatus: string(from),
		ToStatus:   string(to),
		UserID:     userID,
		Details:    details,
		Timestamp:  now.UnixMicro(),
	})

	log.Debug().
		Str("ticket", c.TicketID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Ticket transitioned")

	return c, nil
}

// RecordCreation emits the birth event for a freshly created ticket.
func (m *Machine) RecordCreation(t ticket.Ticket, userID string) {
	m.emit(audit.Event{
		EventID:   uuid.NewString(),
		TicketID:  t.TicketID,
		EventType: audit.Created,
		ToStatus:  string(t.Status),
		UserID:    userID,
		Timestamp: m.now().UnixMicro(),
	})
}

func (m *Machine) emit(e audit.Event) {
	if m.Audit == nil {
		return
	}
	if err := m.Audit.Record(e); err != nil {
		// The transition itself already happened; a sink hiccup must not
		// undo it.
		log.Warn().Err(err).Str("ticket", e.TicketID).Msg("Failed to record audit event")
	}
}

func (m *Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
