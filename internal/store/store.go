// Package store persists tickets, member responses, and the audit trail.
package store

import (
	"errors"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/ticket"
)

// ErrNotFound is returned when a ticket ID has no stored record.
var ErrNotFound = errors.New("ticket not found")

// Filter narrows a ticket listing. Zero values match everything.
type Filter struct {
	Status    ticket.Status
	County    string
	SessionID string
	Limit     int
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	// SaveTicket writes a ticket, replacing any existing record.
	SaveTicket(t ticket.Ticket) error
	// LoadTicket reads one ticket. Returns ErrNotFound for unknown IDs.
	LoadTicket(id string) (ticket.Ticket, error)
	// ListTickets returns tickets matching the filter, newest first.
	ListTickets(f Filter) ([]ticket.Ticket, error)

	// SaveResponses replaces the full response set for a ticket.
	SaveResponses(ticketID string, responses []ticket.MemberResponse) error
	// LoadResponses reads a ticket's response set. Unknown tickets get an
	// empty set, not an error.
	LoadResponses(ticketID string) ([]ticket.MemberResponse, error)

	// AppendAuditEvent appends one event to the audit trail.
	AppendAuditEvent(e audit.Event) error
	// AuditEvents returns the trail for one ticket, or the whole trail for
	// an empty ID, in chronological order.
	AuditEvents(ticketID string) ([]audit.Event, error)
}
