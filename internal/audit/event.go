package audit

import "fmt"

// EventType defines the objective nature of a ticket change.
type EventType string

const (
	// Created indicates the initial creation of the ticket.
	Created EventType = "Created"
	// FieldsUpdated indicates one or more business fields changed.
	FieldsUpdated EventType = "FieldsUpdated"
	// StatusChanged indicates a lifecycle transition.
	StatusChanged EventType = "StatusChanged"
	// ResponseRecorded indicates a utility member response arrived or was
	// updated.
	ResponseRecorded EventType = "ResponseRecorded"
	// MemberRegistered indicates a utility member was added to the ticket's
	// expected-response list.
	MemberRegistered EventType = "MemberRegistered"
)

// Event represents a single atomic change in a ticket's lifecycle. It is the
// primary unit of the append-only audit trail.
type Event struct {
	// EventID uniquely identifies the event.
	EventID string `json:"eventId"`
	// TicketID is the ticket the event belongs to.
	TicketID string `json:"ticketId"`
	// EventType is the type of change being recorded.
	EventType EventType `json:"eventType"`
	// Timestamp is the physical time the change occurred (Unix microseconds).
	Timestamp int64 `json:"ts"`

	// FromStatus is the status the ticket moved from (for StatusChanged events).
	FromStatus string `json:"fromStatus,omitempty"`
	// ToStatus is the status the ticket moved to (for StatusChanged events).
	ToStatus string `json:"toStatus,omitempty"`
	// UserID identifies who drove the change, when known.
	UserID string `json:"userId,omitempty"`

	// Details stores extensible context: updated field names, member codes,
	// response statuses, cancellation reasons.
	Details map[string]string `json:"details,omitempty"`
}

// identity computes a unique string identifier for an event to aid
// deduplication when logs are reloaded or merged.
// Identity = EventID when present, else TicketID + Timestamp + EventType + ToStatus.
func (e Event) identity() string {
	if e.EventID != "" {
		return e.EventID
	}
	return fmt.Sprintf("%s|%d|%s|%s", e.TicketID, e.Timestamp, e.EventType, e.ToStatus)
}
