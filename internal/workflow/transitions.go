package workflow

import "locate-mcp/internal/ticket"

// transitions is the complete lifecycle graph. A status maps to the set of
// statuses it may legally move to; anything absent is illegal. CANCELLED is
// reachable from everywhere and leads nowhere.
var transitions = map[ticket.Status][]ticket.Status{
	ticket.StatusDraft:     {ticket.StatusValidated, ticket.StatusCancelled},
	ticket.StatusValidated: {ticket.StatusReady, ticket.StatusDraft, ticket.StatusCancelled},
	ticket.StatusReady:     {ticket.StatusSubmitted, ticket.StatusValidated, ticket.StatusCancelled},
	ticket.StatusSubmitted: {ticket.StatusInProgress, ticket.StatusResponsesIn, ticket.StatusExpired, ticket.StatusCancelled},
	// Partial responses; completion of the expected set moves it on, lapse
	// expires it.
	ticket.StatusInProgress: {ticket.StatusResponsesIn, ticket.StatusExpired, ticket.StatusCancelled},
	// RESPONSES_IN can fall back to IN_PROGRESS when the expected-member
	// list grows after the fact.
	ticket.StatusResponsesIn: {ticket.StatusReadyToDig, ticket.StatusInProgress, ticket.StatusCancelled},
	ticket.StatusReadyToDig:  {ticket.StatusCompleted, ticket.StatusCancelled},
	ticket.StatusCompleted:   {ticket.StatusCancelled},
	ticket.StatusExpired:     {ticket.StatusCancelled},
	ticket.StatusCancelled:   {},
}

// CanTransition reports whether moving from one status to the other is legal.
func CanTransition(from, to ticket.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the legal target statuses from a given status.
func TransitionsFrom(from ticket.Status) []ticket.Status {
	allowed := transitions[from]
	out := make([]ticket.Status, len(allowed))
	copy(out, allowed)
	return out
}
