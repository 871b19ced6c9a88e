package rpc

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/calendar"
	"locate-mcp/internal/compliance"
	"locate-mcp/internal/metrics"
	"locate-mcp/internal/response"
	"locate-mcp/internal/store"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/visuals"
)

// handleGetTicket returns the full record: fields, responses, and the
// derived lifecycle view.
func (s *Server) handleGetTicket(args map[string]interface{}) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.LoadResponses(t.TicketID)
	if err != nil {
		return nil, err
	}

	lc := compliance.Evaluate(t, s.now())
	summary := response.Summarize(t.ExpectedMembers, responses)

	result := map[string]interface{}{
		"ticket":           t,
		"responses":        responses,
		"response_summary": summary,
		"lifecycle":        lc,
		"_guidance":        lifecycleGuidance(lc),
	}
	if s.enableMermaidCharts {
		result["visual_lifecycle"] = visuals.LifecycleDiagram(t.Status)
		if chart := visuals.ResponseChart(summary); chart != "" {
			result["visual_responses"] = chart
		}
	}
	return result, nil
}

// handleListTickets lists stored tickets newest first, with optional
// status and county filters.
func (s *Server) handleListTickets(statusStr, county string, limit int) (interface{}, error) {
	var filter store.Filter
	if strings.TrimSpace(statusStr) != "" {
		status, err := ticket.ParseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	filter.County = county
	filter.Limit = limit

	tickets, err := s.store.ListTickets(filter)
	if err != nil {
		return nil, err
	}

	briefs := make([]ticketBrief, 0, len(tickets))
	for _, t := range tickets {
		briefs = append(briefs, briefOf(t))
	}

	return map[string]interface{}{
		"tickets":   briefs,
		"count":     len(briefs),
		"_guidance": []string{"Use 'get_ticket' with a ticket_id for the full record and lifecycle view."},
	}, nil
}

// handleGetTicketHistory rebuilds the status timeline from the audit trail.
func (s *Server) handleGetTicketHistory(args map[string]interface{}) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}
	events, err := s.store.AuditEvents(t.TicketID)
	if err != nil {
		return nil, err
	}

	timeline := audit.BuildTimeline(events, s.now())

	return map[string]interface{}{
		"ticket_id":      t.TicketID,
		"status":         t.Status,
		"timeline":       timeline,
		"residency_days": audit.Residency(timeline),
		"event_count":    len(events),
		"_guidance": []string{
			"Each span is one contiguous stay in a status; residency_days sums repeat visits.",
			"The open span's duration runs up to now.",
		},
	}, nil
}

// handleGetCompliance returns the compliance dates and the derived
// lifecycle view for a ticket.
func (s *Server) handleGetCompliance(args map[string]interface{}) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	lc := compliance.Evaluate(t, s.now())

	dates := map[string]interface{}{}
	if t.SubmittedAt != nil {
		dates["submitted_at"] = t.SubmittedAt
	}
	if t.LawfulStartDate != nil {
		dates["lawful_start_date"] = t.LawfulStartDate
	}
	if t.TicketExpiresDate != nil {
		dates["ticket_expires_date"] = t.TicketExpiresDate
	}
	if t.MarkingValidUntil != nil {
		dates["marking_valid_until"] = t.MarkingValidUntil
	}

	return map[string]interface{}{
		"ticket_id": t.TicketID,
		"status":    t.Status,
		"lifecycle": lc,
		"dates":     dates,
		"_guidance": lifecycleGuidance(lc),
	}, nil
}

// handleCheckCalendar probes a date against the business-day calendar and
// the waiting-period math.
func (s *Server) handleCheckCalendar(dateStr, refStr string) (interface{}, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, fmt.Errorf("date is required (YYYY-MM-DD)")
	}
	d, err := ticket.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	d = calendar.Normalize(d)

	ref := calendar.Normalize(s.now())
	if strings.TrimSpace(refStr) != "" {
		parsed, err := ticket.ParseDate(refStr)
		if err != nil {
			return nil, err
		}
		ref = calendar.Normalize(parsed)
	}

	earliest := compliance.LawfulStart(ref)

	result := map[string]interface{}{
		"date":                  d.Format("2006-01-02"),
		"is_business_day":       calendar.IsBusinessDay(d),
		"earliest_lawful_start": earliest.Format("2006-01-02"),
		"lawful_to_start":       !d.Before(earliest),
		"_guidance": []string{
			"Quote these dates to the caller as-is; they already account for weekends and observed holidays.",
		},
	}
	if h, ok := calendar.HolidayOn(d); ok {
		result["holiday"] = h.Name
	}
	if between := calendar.HolidaysBetween(ref, d); len(between) > 0 {
		result["holidays_between"] = between
	}
	return result, nil
}

// handleMemberScorecard aggregates response performance per utility member
// across every stored ticket.
func (s *Server) handleMemberScorecard(memberCode string) (interface{}, error) {
	tickets, err := s.store.ListTickets(store.Filter{})
	if err != nil {
		return nil, err
	}

	responsesByTicket := make(map[string][]ticket.MemberResponse)
	for _, t := range tickets {
		responses, err := s.store.LoadResponses(t.TicketID)
		if err != nil {
			log.Warn().Err(err).Str("ticket", t.TicketID).Msg("Responses unavailable for scorecard")
			continue
		}
		if len(responses) > 0 {
			responsesByTicket[t.TicketID] = responses
		}
	}

	result := metrics.BuildScorecards(tickets, responsesByTicket)

	members := result.Members
	if code := strings.TrimSpace(memberCode); code != "" {
		var matched []metrics.MemberScorecard
		for _, m := range members {
			if strings.EqualFold(m.MemberCode, code) {
				matched = append(matched, m)
			}
		}
		if len(matched) == 0 {
			return nil, fmt.Errorf("no responses on record for member %q", code)
		}
		members = matched
	}

	return map[string]interface{}{
		"members":  members,
		"warnings": result.Warnings,
		"_guidance": []string{
			"Latency percentiles are measured from ticket submission to the member's first response, in days.",
			"P85 above the two-business-day waiting period flags members that routinely hold tickets up.",
		},
	}, nil
}
