package rpc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/workflow"
)

// handleCreateTicket opens a new draft from whatever the caller supplied,
// validates it, and hands back the first intake prompt.
func (s *Server) handleCreateTicket(fields map[string]interface{}, sessionID, userID string) (interface{}, error) {
	now := s.now()

	// 1. Build the draft shell.
	t := ticket.Ticket{
		TicketID:  ticket.NewTicketID(now),
		Status:    ticket.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 2. Fold in the initial fields.
	t, err := t.Apply(fields)
	if err != nil {
		return nil, err
	}
	t = s.enrichLocation(t)

	// 3. Validate and stash the gaps on the ticket.
	res, err := s.engine.Validate(&t)
	if err != nil {
		return nil, err
	}
	t.Gaps = res.Gaps

	// 4. Pin the intake session and pick the first question.
	prompt, more := s.engine.NextPrompt(&t)
	t.SessionID = s.touchSession(sessionID, t.TicketID, prompt)

	// 5. Birth event first, then any validity-driven advance.
	s.machine.RecordCreation(t, userID)
	t, statusNote, err := s.syncValidationStatus(t, res.IsValid, userID)
	if err != nil {
		return nil, err
	}

	// 6. Persist.
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"ticket":     t,
		"validation": res,
		"session_id": t.SessionID,
		"_guidance":  promptGuidance(prompt, more),
	}
	if more {
		result["next_prompt"] = prompt
	}
	if statusNote != "" {
		result["status_change"] = statusNote
	}
	return result, nil
}

// handleUpdateTicket applies field updates and re-validates. The lock check
// runs before anything is applied so a rejection names the exact offending
// fields against an untouched ticket. A "status" key inside fields requests
// an explicit transition and is handled apart from the field machinery.
func (s *Server) handleUpdateTicket(args map[string]interface{}, fields map[string]interface{}, userID string) (interface{}, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields given; pass updates under 'fields'")
	}

	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	// 1. Split out a requested status change before the lock check: status
	// is lifecycle, not a lockable intake field.
	var wantStatus ticket.Status
	if raw, ok := fields["status"]; ok {
		delete(fields, "status")
		wantStatus, err = ticket.ParseStatus(asString(raw))
		if err != nil {
			return nil, err
		}
	}

	// 2. Reject locked fields before applying anything.
	if err := workflow.ValidateFieldUpdates(t.Status, fields); err != nil {
		return nil, err
	}

	// 3. Apply and re-validate.
	t, err = t.Apply(fields)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	t = s.enrichLocation(t)

	res, err := s.engine.Validate(&t)
	if err != nil {
		return nil, err
	}
	t.Gaps = res.Gaps

	// 4. An explicit status request beats the automatic draft/validated
	// sync; this is also the path that moves RESPONSES_IN to READY_TO_DIG.
	var statusNote string
	if wantStatus != "" && wantStatus != t.Status {
		t, err = s.machine.Transition(t, wantStatus, userID, map[string]string{"trigger": "request"})
		if err != nil {
			return nil, err
		}
		statusNote = fmt.Sprintf("The ticket moved to %s.", wantStatus)
	} else {
		t, statusNote, err = s.syncValidationStatus(t, res.IsValid, userID)
		if err != nil {
			return nil, err
		}
	}

	// 5. Record what changed, then persist.
	if len(fields) > 0 {
		s.recordFieldsUpdated(t.TicketID, fields, userID)
	}
	if err := s.store.SaveTicket(t); err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"ticket":     t,
		"validation": res,
	}

	// Intake prompts only make sense while the ticket is still being
	// assembled; past VALIDATED the conversation has moved on.
	switch t.Status {
	case ticket.StatusDraft, ticket.StatusValidated:
		prompt, more := s.engine.NextPrompt(&t)
		s.touchSession(asString(args["session_id"]), t.TicketID, prompt)
		result["_guidance"] = promptGuidance(prompt, more)
		if more {
			result["next_prompt"] = prompt
		}
	default:
		s.touchSession(asString(args["session_id"]), t.TicketID, "")
		result["_guidance"] = []string{fmt.Sprintf("The ticket stands at %s.", t.Status)}
	}
	if statusNote != "" {
		result["status_change"] = statusNote
	}
	return result, nil
}

// syncValidationStatus keeps the draft/validated boundary in step with the
// ticket's actual validity. Later statuses are never touched here.
func (s *Server) syncValidationStatus(t ticket.Ticket, isValid bool, userID string) (ticket.Ticket, string, error) {
	details := map[string]string{"trigger": "validation"}
	switch {
	case t.Status == ticket.StatusDraft && isValid:
		moved, err := s.machine.Transition(t, ticket.StatusValidated, userID, details)
		if err != nil {
			return t, "", err
		}
		return moved, "Every required field is present; the ticket advanced to VALIDATED.", nil
	case t.Status == ticket.StatusValidated && !isValid:
		moved, err := s.machine.Transition(t, ticket.StatusDraft, userID, details)
		if err != nil {
			return t, "", err
		}
		return moved, "A required field went missing; the ticket dropped back to DRAFT.", nil
	}
	return t, "", nil
}

// recordFieldsUpdated writes the field-change audit event. Audit trouble is
// logged, not surfaced: the update itself already persisted.
func (s *Server) recordFieldsUpdated(ticketID string, fields map[string]interface{}, userID string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, ticket.NormalizeFieldName(name))
	}
	sort.Strings(names)

	err := s.store.AppendAuditEvent(audit.Event{
		EventID:   uuid.NewString(),
		TicketID:  ticketID,
		EventType: audit.FieldsUpdated,
		UserID:    userID,
		Details:   map[string]string{"fields": strings.Join(names, ",")},
		Timestamp: s.now().UnixMicro(),
	})
	if err != nil {
		log.Warn().Err(err).Str("ticket", ticketID).Msg("Failed to record field update")
	}
}

// enrichLocation fills missing GPS coordinates and county from the
// geocoder. Caller-provided values are never overwritten, and geocoder
// trouble never fails the write.
func (s *Server) enrichLocation(t ticket.Ticket) ticket.Ticket {
	if s.geocoder == nil || strings.TrimSpace(t.Address) == "" {
		return t
	}
	if t.GPSLat != nil && t.GPSLng != nil && t.County != "" {
		return t
	}

	placement, err := s.geocoder.Locate(context.Background(), t.Address, t.City, t.County)
	if err != nil {
		log.Debug().Err(err).Str("ticket", t.TicketID).Msg("Geocoding skipped")
		return t
	}

	c := t.Clone()
	if c.GPSLat == nil && c.GPSLng == nil {
		lat, lng := placement.Lat, placement.Lng
		c.GPSLat = &lat
		c.GPSLng = &lng
	}
	if c.County == "" && placement.County != "" {
		c.County = placement.County
	}
	return c
}

// handleGetNextPrompt returns the one question to ask next, or a completion
// notice when the required set is covered.
func (s *Server) handleGetNextPrompt(args map[string]interface{}) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	prompt, more := s.engine.NextPrompt(&t)
	s.touchSession(asString(args["session_id"]), t.TicketID, prompt)

	if !more {
		return map[string]interface{}{
			"ticket_id": t.TicketID,
			"complete":  true,
			"_guidance": []string{"Nothing left to ask. Confirm the details with the caller, then call 'confirm_ticket'."},
		}, nil
	}
	return map[string]interface{}{
		"ticket_id": t.TicketID,
		"complete":  false,
		"prompt":    prompt,
		"_guidance": promptGuidance(prompt, true),
	}, nil
}

// handleValidateTicket runs a full validation pass without persisting
// anything.
func (s *Server) handleValidateTicket(args map[string]interface{}) (interface{}, error) {
	t, err := s.loadTicket(args)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Validate(&t)
	if err != nil {
		return nil, err
	}

	guidance := []string{fmt.Sprintf("Completeness score: %.0f%%.", res.Score*100)}
	if res.IsValid {
		guidance = append(guidance, "The ticket is valid. Read it back to the caller, then 'confirm_ticket' moves it to READY.")
	} else {
		guidance = append(guidance, "Required gaps remain. Work through them with 'get_next_prompt' and 'update_ticket'.")
	}

	return map[string]interface{}{
		"ticket_id":  t.TicketID,
		"status":     t.Status,
		"validation": res,
		"_guidance":  guidance,
	}, nil
}
