// Package response derives response-driven ticket status and maintains the
// per-ticket response set. Everything here is pure: callers pass state in and
// get new state back.
package response

import (
	"strings"
	"time"

	"locate-mcp/internal/ticket"
)

// CalculateStatus derives where a submitted ticket stands from its expected
// member list and the responses received so far.
//
// With no expected members the ticket runs in legacy mode: the first response
// of any kind moves it to RESPONSES_IN. With an expected list, the ticket is
// RESPONSES_IN only once every expected member has answered, IN_PROGRESS
// while some have, and SUBMITTED while none have. Responses from members not
// on the expected list never count toward coverage.
func CalculateStatus(expected []ticket.MemberInfo, responses []ticket.MemberResponse) ticket.Status {
	if len(responses) == 0 {
		return ticket.StatusSubmitted
	}
	if len(expected) == 0 {
		return ticket.StatusResponsesIn
	}

	responded := respondedSet(responses)
	for _, m := range expected {
		if !responded[fold(m.MemberCode)] {
			return ticket.StatusInProgress
		}
	}
	return ticket.StatusResponsesIn
}

// Upsert records a member's response into the ticket's response set. A member
// gets at most one record: a repeat submission updates the existing one in
// place, keeping its ResponseID, CreatedAt, and the member code casing it
// first arrived with. The input slice is never modified.
//
// Returns the new response set, the stored record, and whether an existing
// record was updated rather than a new one inserted.
func Upsert(responses []ticket.MemberResponse, incoming ticket.MemberResponse, now time.Time) ([]ticket.MemberResponse, ticket.MemberResponse, bool) {
	out := make([]ticket.MemberResponse, len(responses))
	copy(out, responses)

	for i, r := range out {
		if strings.EqualFold(r.MemberCode, incoming.MemberCode) {
			updated := r
			updated.Status = incoming.Status
			updated.Facilities = incoming.Facilities
			updated.Comment = incoming.Comment
			updated.SubmittedBy = incoming.SubmittedBy
			updated.UpdatedAt = now
			out[i] = updated
			return out, updated, true
		}
	}

	stored := incoming
	if stored.ResponseID == "" {
		stored.ResponseID = ticket.NewResponseID()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return append(out, stored), stored, false
}

// Summarize aggregates the response picture on a ticket.
func Summarize(expected []ticket.MemberInfo, responses []ticket.MemberResponse) ticket.ResponseSummary {
	s := ticket.ResponseSummary{
		TotalExpected: countDistinct(expected),
		TotalReceived: len(responses),
	}
	for _, r := range responses {
		switch r.Status {
		case ticket.ResponseClear:
			s.ClearCount++
		case ticket.ResponseNotClear:
			s.NotClearCount++
		}
	}
	return s
}

// Outstanding lists the expected members still owing a response, in expected
// list order.
func Outstanding(expected []ticket.MemberInfo, responses []ticket.MemberResponse) []ticket.MemberInfo {
	responded := respondedSet(responses)
	var out []ticket.MemberInfo
	seen := make(map[string]bool, len(expected))
	for _, m := range expected {
		key := fold(m.MemberCode)
		if responded[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// HasResponded reports whether the member already has a response on file.
func HasResponded(responses []ticket.MemberResponse, memberCode string) bool {
	for _, r := range responses {
		if strings.EqualFold(r.MemberCode, memberCode) {
			return true
		}
	}
	return false
}

func respondedSet(responses []ticket.MemberResponse) map[string]bool {
	set := make(map[string]bool, len(responses))
	for _, r := range responses {
		set[fold(r.MemberCode)] = true
	}
	return set
}

func countDistinct(members []ticket.MemberInfo) int {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		seen[fold(m.MemberCode)] = true
	}
	return len(seen)
}

func fold(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
