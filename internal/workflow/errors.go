package workflow

import (
	"fmt"
	"strings"

	"locate-mcp/internal/ticket"
)

// StateTransitionError reports an illegal lifecycle transition. Both sides
// are carried so callers can present the legal alternatives.
type StateTransitionError struct {
	Current   ticket.Status
	Attempted ticket.Status
}

func (e *StateTransitionError) Error() string {
	allowed := TransitionsFrom(e.Current)
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot transition from %s to %s: %s is terminal", e.Current, e.Attempted, e.Current)
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %s to %s (allowed: %s)", e.Current, e.Attempted, strings.Join(names, ", "))
}

// FieldLockError reports an attempt to edit fields that the ticket's current
// status has frozen. Attempted lists only the offending fields from the
// update, so a caller can retry with the rest.
type FieldLockError struct {
	Status    ticket.Status
	Locked    []string
	Attempted []string
}

func (e *FieldLockError) Error() string {
	return fmt.Sprintf("fields locked in status %s: %s", e.Status, strings.Join(e.Attempted, ", "))
}
