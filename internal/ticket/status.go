package ticket

import (
	"fmt"
	"strings"
)

// Status is the authoritative lifecycle state of a locate ticket. It is
// advanced only through the workflow state machine; the advisory display
// status shown to callers is derived separately from compliance dates.
type Status string

const (
	// StatusDraft is a ticket under conversational intake. Nothing is locked.
	StatusDraft Status = "DRAFT"
	// StatusValidated means every required field is present. Location fields
	// are locked from here on.
	StatusValidated Status = "VALIDATED"
	// StatusReady means the caller reviewed the ticket and confirmed it for
	// filing with the one-call center.
	StatusReady Status = "READY"
	// StatusSubmitted means the ticket was filed. Compliance dates are
	// stamped on entry.
	StatusSubmitted Status = "SUBMITTED"
	// StatusInProgress means some, but not all, expected utility members have
	// responded.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusResponsesIn means every expected member has responded (or, with
	// no expected list, at least one response arrived).
	StatusResponsesIn Status = "RESPONSES_IN"
	// StatusReadyToDig means the lawful start window is open and markings are
	// in place.
	StatusReadyToDig Status = "READY_TO_DIG"
	// StatusCompleted means the excavation work finished.
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled is the universal terminal escape; reachable from every
	// other state.
	StatusCancelled Status = "CANCELLED"
	// StatusExpired means the ticket passed its validity window without the
	// work being done.
	StatusExpired Status = "EXPIRED"
)

// AllStatuses lists every lifecycle state in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusValidated,
		StatusReady,
		StatusSubmitted,
		StatusInProgress,
		StatusResponsesIn,
		StatusReadyToDig,
		StatusCompleted,
		StatusCancelled,
		StatusExpired,
	}
}

// IsValid reports whether s names a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusValidated, StatusReady, StatusSubmitted,
		StatusInProgress, StatusResponsesIn, StatusReadyToDig,
		StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions except
// cancellation bookkeeping.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// ParseStatus normalizes and validates a caller-supplied status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown ticket status %q", raw)
	}
	return s, nil
}

// Severity classifies a validation gap. Lower rank sorts first.
type Severity string

const (
	// SeverityRequired gaps block the ticket from being considered valid.
	SeverityRequired Severity = "REQUIRED"
	// SeverityRecommended gaps reduce completeness but never block.
	SeverityRecommended Severity = "RECOMMENDED"
	// SeverityWarning flags present-but-suspect values (format, range).
	SeverityWarning Severity = "WARNING"
	// SeverityInfo is advisory only.
	SeverityInfo Severity = "INFO"
)

// Rank orders severities for prioritization; required sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityRequired:
		return 0
	case SeverityRecommended:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityRequired, SeverityRecommended, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ResponseStatus is a utility member's answer on a ticket.
type ResponseStatus string

const (
	// ResponseClear means the member has no facilities in conflict.
	ResponseClear ResponseStatus = "CLEAR"
	// ResponseNotClear means facilities were located and marked.
	ResponseNotClear ResponseStatus = "NOT_CLEAR"
)

func (r ResponseStatus) IsValid() bool {
	return r == ResponseClear || r == ResponseNotClear
}

// ParseResponseStatus normalizes a caller-supplied response status.
func ParseResponseStatus(raw string) (ResponseStatus, error) {
	r := ResponseStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown response status %q", raw)
	}
	return r, nil
}
