// Package metrics aggregates member response performance across tickets.
package metrics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"locate-mcp/internal/ticket"
)

// MemberScorecard summarizes one utility member's responsiveness.
type MemberScorecard struct {
	MemberCode    string  `json:"member_code"`
	MemberName    string  `json:"member_name,omitempty"`
	TicketCount   int     `json:"ticket_count"`
	ClearCount    int     `json:"clear_count"`
	NotClearCount int     `json:"not_clear_count"`
	ClearRate     float64 `json:"clear_rate"`

	// Response latency in days from ticket submission, by percentile.
	P50Days     float64 `json:"response_p50_days"`
	P85Days     float64 `json:"response_p85_days"`
	SlowestDays float64 `json:"slowest_days"`

	Interpretation string `json:"interpretation,omitempty"`
}

// ScorecardResult is the top-level response for member performance analysis.
type ScorecardResult struct {
	Members  []MemberScorecard `json:"members"`
	Warnings []string          `json:"warnings,omitempty"`
}

// BuildScorecards computes per-member latency and clear-rate stats over a set
// of tickets. Latency is measured from the ticket's submission time to the
// response's first arrival; responses on tickets that were never submitted
// are counted in the totals but excluded from latency percentiles.
func BuildScorecards(tickets []ticket.Ticket, responsesByTicket map[string][]ticket.MemberResponse) ScorecardResult {
	byTicket := make(map[string]ticket.Ticket, len(tickets))
	for _, t := range tickets {
		byTicket[t.TicketID] = t
	}

	type memberAgg struct {
		code      string
		name      string
		tickets   map[string]bool
		latencies []float64
		clear     int
		notClear  int
	}
	members := make(map[string]*memberAgg)
	skippedNoSubmission := 0

	for ticketID, responses := range responsesByTicket {
		t, known := byTicket[ticketID]
		for _, r := range responses {
			key := strings.ToLower(strings.TrimSpace(r.MemberCode))
			if key == "" {
				continue
			}
			agg, ok := members[key]
			if !ok {
				agg = &memberAgg{code: r.MemberCode, tickets: make(map[string]bool)}
				members[key] = agg
			}
			agg.tickets[ticketID] = true
			switch r.Status {
			case ticket.ResponseClear:
				agg.clear++
			case ticket.ResponseNotClear:
				agg.notClear++
			}
			if known {
				if name, found := t.FindMember(r.MemberCode); found && name.MemberName != "" {
					agg.name = name.MemberName
				}
			}

			if !known || t.SubmittedAt == nil {
				skippedNoSubmission++
				continue
			}
			days := r.CreatedAt.Sub(*t.SubmittedAt).Hours() / 24
			if days < 0 {
				continue
			}
			agg.latencies = append(agg.latencies, days)
		}
	}

	result := ScorecardResult{}
	for _, agg := range members {
		card := MemberScorecard{
			MemberCode:    agg.code,
			MemberName:    agg.name,
			TicketCount:   len(agg.tickets),
			ClearCount:    agg.clear,
			NotClearCount: agg.notClear,
		}
		if total := agg.clear + agg.notClear; total > 0 {
			card.ClearRate = math.Round(float64(agg.clear)/float64(total)*1000) / 1000
		}
		if n := len(agg.latencies); n > 0 {
			slices.Sort(agg.latencies)
			card.P50Days = roundTenth(agg.latencies[int(float64(n)*0.50)])
			card.P85Days = roundTenth(agg.latencies[int(float64(n)*0.85)])
			card.SlowestDays = roundTenth(agg.latencies[n-1])
		}
		card.Interpretation = interpret(card)
		result.Members = append(result.Members, card)
	}

	slices.SortFunc(result.Members, func(a, b MemberScorecard) int {
		return cmp.Compare(strings.ToLower(a.MemberCode), strings.ToLower(b.MemberCode))
	})

	if skippedNoSubmission > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d responses excluded from latency stats (ticket has no submission time)", skippedNoSubmission))
	}
	return result
}

// interpret flags members whose typical answer lands after the two business
// days excavators must wait before digging.
func interpret(c MemberScorecard) string {
	switch {
	case c.P85Days == 0 && c.P50Days == 0:
		return ""
	case c.P85Days > 4:
		return "Routinely responds well after the waiting period ends. Excavators are likely digging before this member has marked."
	case c.P85Days > 2:
		return "Slower tail: most responses arrive in time, but the slowest ones land after the waiting period."
	default:
		return "Responds within the waiting period."
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
