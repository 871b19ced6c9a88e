package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"locate-mcp/internal/compliance"
	"locate-mcp/internal/session"
	"locate-mcp/internal/ticket"
)

// formatResult renders a handler result as the text payload of a tool
// response. Indented JSON keeps the output readable in client logs.
func (s *Server) formatResult(data interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}

// resolveTicketID picks the ticket a tool call is about: an explicit
// ticket_id always wins, otherwise the session's current ticket.
func (s *Server) resolveTicketID(args map[string]interface{}) (string, error) {
	if id := strings.TrimSpace(asString(args["ticket_id"])); id != "" {
		return id, nil
	}
	sessionID := strings.TrimSpace(asString(args["session_id"]))
	if sessionID == "" {
		return "", fmt.Errorf("no ticket_id given and no session to fall back on")
	}
	sess, ok, err := s.sessions.Get(context.Background(), sessionID)
	if err != nil {
		return "", fmt.Errorf("session lookup failed: %w", err)
	}
	if !ok || sess.TicketID == "" {
		return "", fmt.Errorf("session %s has no current ticket; pass ticket_id explicitly", sessionID)
	}
	return sess.TicketID, nil
}

func (s *Server) loadTicket(args map[string]interface{}) (ticket.Ticket, error) {
	id, err := s.resolveTicketID(args)
	if err != nil {
		return ticket.Ticket{}, err
	}
	return s.store.LoadTicket(id)
}

// touchSession pins the session to the ticket and records the prompt just
// issued. Session trouble is logged, never surfaced: intake keeps working
// without one.
func (s *Server) touchSession(sessionID, ticketID, prompt string) string {
	ctx := context.Background()
	now := s.now()

	var sess session.Session
	if sessionID != "" {
		if found, ok, err := s.sessions.Get(ctx, sessionID); err == nil && ok {
			sess = found
		}
	}
	if sess.SessionID == "" {
		sess = session.New(now)
	}

	sess.TicketID = ticketID
	if prompt != "" {
		sess.LastPrompt = prompt
		sess.PromptCount++
	}
	sess.LastActiveAt = now

	if err := s.sessions.Put(ctx, sess); err != nil {
		log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("Session save failed")
	}
	return sess.SessionID
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		var out int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &out); err == nil {
			return out
		}
	}
	return 0
}

// argFields pulls the fields argument as a map. Some clients send the
// object inline, some as a JSON-encoded string; both forms are accepted.
func argFields(args map[string]interface{}) map[string]interface{} {
	raw, ok := args["fields"]
	if !ok || raw == nil {
		return map[string]interface{}{}
	}
	switch f := raw.(type) {
	case map[string]interface{}:
		return f
	case string:
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(f), &out); err == nil {
			return out
		}
	}
	return map[string]interface{}{}
}

// argStrings reads a string-array argument, tolerating a JSON array or a
// comma-separated string. Blank entries are dropped.
func argStrings(v interface{}) []string {
	var raw []string
	switch list := v.(type) {
	case []interface{}:
		for _, item := range list {
			raw = append(raw, asString(item))
		}
	case []string:
		raw = list
	case string:
		raw = strings.Split(list, ",")
	}

	var out []string
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func promptGuidance(prompt string, more bool) []string {
	if more {
		return []string{
			fmt.Sprintf("Ask the caller exactly one question: %q", prompt),
			"Record the answer with 'update_ticket', then ask for the next prompt.",
		}
	}
	return []string{
		"Every required field is present. Call 'validate_ticket' for the full picture, then 'confirm_ticket' when the caller is done.",
	}
}

func responseGuidance(summary ticket.ResponseSummary, outstanding []ticket.MemberInfo) []string {
	if len(outstanding) > 0 {
		codes := make([]string, 0, len(outstanding))
		for _, m := range outstanding {
			codes = append(codes, m.MemberCode)
		}
		sort.Strings(codes)
		return []string{fmt.Sprintf("Still waiting on: %s.", strings.Join(codes, ", "))}
	}
	out := []string{"All expected utilities have responded."}
	if summary.NotClearCount > 0 {
		out = append(out, fmt.Sprintf("%d member(s) reported NOT_CLEAR facilities: confirm markings on site before any digging.", summary.NotClearCount))
	} else {
		out = append(out, "Every response is CLEAR. Once the waiting period has passed the site is good to dig.")
	}
	return out
}

func lifecycleGuidance(lc compliance.Lifecycle) []string {
	out := []string{fmt.Sprintf("Lifecycle reads %s.", lc.DisplayStatus)}
	if lc.ActionText != "" {
		out = append(out, lc.ActionText)
	}
	return out
}

// ticketBrief is the list_tickets row shape: enough to pick a ticket out
// of a list without pulling the full record.
type ticketBrief struct {
	TicketID          string     `json:"ticket_id"`
	Status            string     `json:"status"`
	County            string     `json:"county,omitempty"`
	City              string     `json:"city,omitempty"`
	WorkDescription   string     `json:"work_description,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	TicketExpiresDate *time.Time `json:"ticket_expires_date,omitempty"`
}

func briefOf(t ticket.Ticket) ticketBrief {
	return ticketBrief{
		TicketID:          t.TicketID,
		Status:            string(t.Status),
		County:            t.County,
		City:              t.City,
		WorkDescription:   t.WorkDescription,
		CreatedAt:         t.CreatedAt,
		TicketExpiresDate: t.TicketExpiresDate,
	}
}
