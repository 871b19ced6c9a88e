package rpc

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"locate-mcp/internal/compliance"
	"locate-mcp/internal/registry"
	"locate-mcp/internal/ticket"
)

// handleConfirmTicket moves a VALIDATED ticket to READY after the caller
// has heard the read-back and agreed.
func (s *Server) handleConfirmTicket(args map[string]interface{}, userID string) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	t, err = s.machine.Transition(t, ticket.StatusReady, userID, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"ticket": t,
		"_guidance": []string{
			"The ticket is READY. File it with the one-call center (phone or web portal).",
			"Once filed, call 'mark_submitted' with the user id of the person who filed it; the compliance clock starts there.",
		},
	}, nil
}

// handleMarkSubmitted records that a human filed the ticket with the
// one-call center. The transition stamps the compliance dates; the member
// list the center reported becomes the expected-response roster.
func (s *Server) handleMarkSubmitted(args map[string]interface{}, userID, confirmation string) (interface{}, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user_id is required: record who filed the ticket with the one-call center")
	}

	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	var details map[string]string
	if strings.TrimSpace(confirmation) != "" {
		details = map[string]string{"confirmation_number": confirmation}
	}
	t, err = s.machine.Transition(t, ticket.StatusSubmitted, userID, details)
	if err != nil {
		return nil, err
	}

	// Fold in the members the center said it notified. Duplicates of
	// members the draft already named are no-ops.
	for _, code := range argStrings(args["members"]) {
		info := s.directory.Resolve(code, "")
		grown, added, err := registry.Ensure(t, info)
		if err != nil {
			log.Warn().Err(err).Str("ticket", t.TicketID).Str("member", code).Msg("Member not added")
			continue
		}
		if added {
			t = grown
			s.recordMemberRegistered(t.TicketID, info, userID)
		}
	}

	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	guidance := []string{"Submission recorded."}
	if t.LawfulStartDate != nil && t.TicketExpiresDate != nil {
		guidance[0] = fmt.Sprintf("Submission recorded. Digging may lawfully begin on %s; the ticket expires on %s.",
			t.LawfulStartDate.Format("Monday, January 2"),
			t.TicketExpiresDate.Format("Monday, January 2"))
	}
	guidance = append(guidance, "Utility responses arrive through 'record_member_response'.")

	return map[string]interface{}{
		"ticket":    t,
		"lifecycle": compliance.Evaluate(t, s.now()),
		"_guidance": guidance,
	}, nil
}

// handleCancelTicket cancels from any status. The reason goes into the
// audit trail, not onto the ticket.
func (s *Server) handleCancelTicket(args map[string]interface{}, reason, userID string) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	var details map[string]string
	if strings.TrimSpace(reason) != "" {
		details = map[string]string{"reason": reason}
	}
	t, err = s.machine.Transition(t, ticket.StatusCancelled, userID, details)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"ticket": t,
		"_guidance": []string{
			"The ticket is cancelled. Cancellation is final; a new request starts with 'create_ticket'.",
		},
	}, nil
}

// handleCompleteTicket closes out the work on a READY_TO_DIG ticket.
func (s *Server) handleCompleteTicket(args map[string]interface{}, userID string) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	t, err = s.machine.Transition(t, ticket.StatusCompleted, userID, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"ticket": t,
		"_guidance": []string{
			"Work is recorded as completed. No further action is needed on this ticket.",
		},
	}, nil
}
