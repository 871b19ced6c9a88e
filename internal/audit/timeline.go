package audit

import (
	"math"
	"sort"
	"time"
)

// StatusSpan is one contiguous stretch a ticket spent in a single status,
// reconstructed from the audit trail.
type StatusSpan struct {
	Status    string     `json:"status"`
	EnteredAt time.Time  `json:"enteredAt"`
	ExitedAt  *time.Time `json:"exitedAt,omitempty"`
	// DurationDays is the residency length; for the open final span it is
	// measured against the reference date.
	DurationDays float64 `json:"durationDays"`
}

// BuildTimeline reconstructs a ticket's status history from its events.
// If referenceDate is non-zero it is used as "now" for the open span.
func BuildTimeline(events []Event, referenceDate time.Time) []StatusSpan {
	if len(events) == 0 {
		return nil
	}
	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var spans []StatusSpan
	var open *StatusSpan

	for _, e := range sorted {
		switch e.EventType {
		case Created:
			status := e.ToStatus
			if status == "" {
				status = "DRAFT"
			}
			spans = append(spans, StatusSpan{Status: status, EnteredAt: time.UnixMicro(e.Timestamp)})
			open = &spans[len(spans)-1]
		case StatusChanged:
			at := time.UnixMicro(e.Timestamp)
			if open == nil {
				// Log starts mid-stream; open an implied span from the
				// event's from-side so residency still adds up.
				status := e.FromStatus
				if status == "" {
					status = "DRAFT"
				}
				spans = append(spans, StatusSpan{Status: status, EnteredAt: at})
				open = &spans[len(spans)-1]
			}
			exited := at
			open.ExitedAt = &exited
			open.DurationDays = roundDays(exited.Sub(open.EnteredAt))
			spans = append(spans, StatusSpan{Status: e.ToStatus, EnteredAt: at})
			open = &spans[len(spans)-1]
		}
	}

	if open != nil && open.ExitedAt == nil {
		open.DurationDays = roundDays(referenceDate.Sub(open.EnteredAt))
	}
	return spans
}

// Residency sums timeline spans into total days per status.
func Residency(spans []StatusSpan) map[string]float64 {
	out := make(map[string]float64, len(spans))
	for _, s := range spans {
		out[s.Status] = roundTenth(out[s.Status] + s.DurationDays)
	}
	return out
}

func roundDays(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	return roundTenth(d.Hours() / 24)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
