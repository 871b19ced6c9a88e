package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/compliance"
	"locate-mcp/internal/registry"
	"locate-mcp/internal/response"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/workflow"
)

// handleRecordMemberResponse records one utility's answer on a ticket and
// recomputes the response-driven status.
func (s *Server) handleRecordMemberResponse(args map[string]interface{}) (interface{}, error) {
	code := strings.TrimSpace(asString(args["member_code"]))
	if code == "" {
		return nil, fmt.Errorf("member_code is required")
	}
	status, err := ticket.ParseResponseStatus(asString(args["status"]))
	if err != nil {
		return nil, err
	}

	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.LoadResponses(t.TicketID)
	if err != nil {
		return nil, err
	}

	submittedBy := asString(args["submitted_by"])

	// 1. Unknown members join the expected list rather than bouncing; real
	// tickets routinely hear from utilities the draft never named.
	if _, known := t.FindMember(code); !known {
		info := s.directory.Resolve(code, asString(args["member_name"]))
		grown, added, err := registry.Ensure(t, info)
		if err != nil {
			return nil, err
		}
		if added {
			t = grown
			s.recordMemberRegistered(t.TicketID, info, submittedBy)
		}
	}

	// 2. Store the response; a repeat from the same member updates in place.
	now := s.now()
	incoming := ticket.MemberResponse{
		TicketID:    t.TicketID,
		MemberCode:  code,
		Status:      status,
		Facilities:  asString(args["facilities"]),
		Comment:     asString(args["comment"]),
		SubmittedBy: submittedBy,
	}
	responses, rec, updated := response.Upsert(responses, incoming, now)
	if err := s.store.SaveResponses(t.TicketID, responses); err != nil {
		return nil, err
	}
	s.recordResponse(t.TicketID, rec, updated)

	// 3. Markings are only as fresh as the newest response.
	t = t.Clone()
	times := make([]time.Time, 0, len(responses))
	for _, r := range responses {
		times = append(times, r.UpdatedAt)
	}
	t.MarkingValidUntil = compliance.MarkingValidity(times)

	// 4. Recompute the response-driven status.
	statusChanged := false
	if next := response.CalculateStatus(t.ExpectedMembers, responses); next != t.Status && workflow.CanTransition(t.Status, next) {
		t, err = s.machine.Transition(t, next, submittedBy, map[string]string{
			"trigger":     "member_response",
			"member_code": rec.MemberCode,
		})
		if err != nil {
			return nil, err
		}
		statusChanged = true
	} else {
		t.UpdatedAt = now
	}
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	summary := response.Summarize(t.ExpectedMembers, responses)
	outstanding := response.Outstanding(t.ExpectedMembers, responses)

	result := map[string]interface{}{
		"response":       rec,
		"summary":        summary,
		"ticket_status":  t.Status,
		"status_changed": statusChanged,
		"_guidance":      responseGuidance(summary, outstanding),
	}
	if len(outstanding) > 0 {
		result["outstanding"] = outstanding
	}
	return result, nil
}

func (s *Server) recordMemberRegistered(ticketID string, info ticket.MemberInfo, userID string) {
	err := s.store.AppendAuditEvent(audit.Event{
		EventID:   uuid.NewString(),
		TicketID:  ticketID,
		EventType: audit.MemberRegistered,
		UserID:    userID,
		Details: map[string]string{
			"member_code": info.MemberCode,
			"member_name": info.MemberName,
		},
		Timestamp: s.now().UnixMicro(),
	})
	if err != nil {
		log.Warn().Err(err).Str("ticket", ticketID).Str("member", info.MemberCode).Msg("Failed to record member registration")
	}
}

func (s *Server) recordResponse(ticketID string, rec ticket.MemberResponse, wasUpdate bool) {
	details := map[string]string{
		"member_code": rec.MemberCode,
		"status":      string(rec.Status),
	}
	if wasUpdate {
		details["updated"] = "true"
	}
	err := s.store.AppendAuditEvent(audit.Event{
		EventID:   uuid.NewString(),
		TicketID:  ticketID,
		EventType: audit.ResponseRecorded,
		UserID:    rec.SubmittedBy,
		Details:   details,
		Timestamp: s.now().UnixMicro(),
	})
	if err != nil {
		log.Warn().Err(err).Str("ticket", ticketID).Str("member", rec.MemberCode).Msg("Failed to record response event")
	}
}
