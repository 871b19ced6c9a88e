package workflow

import (
	"sort"

	"locate-mcp/internal/ticket"
)

// Field locking is cumulative: once the caller reviews and confirms a stage,
// the fields that stage vouched for freeze, and later stages only add to the
// frozen set. Terminal statuses lock everything.

// LockAll marks a status whose entire field set is frozen.
const LockAll = "*"

var (
	locationFields = []string{
		"county", "city", "address", "cross_street", "gps_lat", "gps_lng",
	}
	workFields = []string{
		"work_description", "work_type",
	}
	submissionFields = []string{
		"work_start_date", "work_duration_days",
		"caller_name", "caller_phone", "caller_email", "company_name",
		"excavator_company", "excavator_phone", "excavator_address",
		"contact_name", "contact_phone",
	}
)

var lockedByStatus = map[ticket.Status][]string{
	ticket.StatusDraft:       {},
	ticket.StatusValidated:   locationFields,
	ticket.StatusReady:       join(locationFields, workFields),
	ticket.StatusSubmitted:   join(locationFields, workFields, submissionFields),
	ticket.StatusInProgress:  join(locationFields, workFields, submissionFields, []string{"submitted_at"}),
	ticket.StatusResponsesIn: join(locationFields, workFields, submissionFields, []string{"submitted_at"}),
	ticket.StatusReadyToDig:  join(locationFields, workFields, submissionFields, []string{"submitted_at"}),
	ticket.StatusCompleted:   {LockAll},
	ticket.StatusCancelled:   {LockAll},
	ticket.StatusExpired:     {LockAll},
}

// LockedFields returns the sorted list of field names frozen in a status.
// Terminal statuses return the single marker "*".
func LockedFields(status ticket.Status) []string {
	locked := lockedByStatus[status]
	out := make([]string, len(locked))
	copy(out, locked)
	sort.Strings(out)
	return out
}

// IsFieldLocked reports whether a single field is frozen in a status.
func IsFieldLocked(status ticket.Status, field string) bool {
	name := ticket.NormalizeFieldName(field)
	for _, f := range lockedByStatus[status] {
		if f == LockAll || f == name {
			return true
		}
	}
	return false
}

// ValidateFieldUpdates checks a proposed update set against the status's
// locks before anything is applied. The "status" key is exempt; it never
// travels through field updates. Returns a *FieldLockError naming every
// offending field, or nil when the whole set is editable.
func ValidateFieldUpdates(status ticket.Status, updates map[string]any) error {
	var violations []string
	for raw := range updates {
		name := ticket.NormalizeFieldName(raw)
		if name == "status" {
			continue
		}
		if IsFieldLocked(status, name) {
			violations = append(violations, name)
		}
	}
	if len(violations) == 0 {
		return nil
	}
	sort.Strings(violations)
	return &FieldLockError{
		Status:    status,
		Locked:    LockedFields(status),
		Attempted: violations,
	}
}

func join(sets ...[]string) []string {
	var out []string
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
