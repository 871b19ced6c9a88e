package workflow

import (
	"errors"
	"testing"
	"time"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/ticket"
)

type captureSink struct {
	events []audit.Event
	fail   bool
}

func (c *captureSink) Record(e audit.Event) error {
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.events = append(c.events, e)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMachine_Transition_HappyPath(t *testing.T) {
	sink := &captureSink{}
	m := NewMachine(sink)
	m.Now = fixedClock(time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC))

	in := ticket.Ticket{TicketID: "T240108-AAAA0001", Status: ticket.StatusDraft}
	out, err := m.Transition(in, ticket.StatusValidated, "caller-7", map[string]string{"reason": "required fields complete"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != ticket.StatusValidated {
		t.Errorf("status = %s, want VALIDATED", out.Status)
	}
	if in.Status != ticket.StatusDraft {
		t.Error("input ticket was mutated")
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected exactly 1 audit event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if e.EventType != audit.StatusChanged || e.FromStatus != "DRAFT" || e.ToStatus != "VALIDATED" {
		t.Errorf("bad audit event: %+v", e)
	}
	if e.UserID != "caller-7" || e.Details["reason"] != "required fields complete" {
		t.Errorf("audit context lost: %+v", e)
	}
	if e.EventID == "" {
		t.Error("audit event needs an id")
	}
}

func TestMachine_Transition_Illegal(t *testing.T) {
	m := NewMachine(nil)
	in := ticket.Ticket{TicketID: "T240108-AAAA0001", Status: ticket.StatusDraft}
	out, err := m.Transition(in, ticket.StatusSubmitted, "", nil)

	var terr *StateTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *StateTransitionError, got %T (%v)", err, err)
	}
	if terr.Current != ticket.StatusDraft || terr.Attempted != ticket.StatusSubmitted {
		t.Errorf("error payload wrong: %+v", terr)
	}
	if out.Status != ticket.StatusDraft {
		t.Error("failed transition must return the ticket unchanged")
	}
}

func TestMachine_Transition_UnknownStatus(t *testing.T) {
	m := NewMachine(nil)
	in := ticket.Ticket{Status: ticket.StatusDraft}
	if _, err := m.Transition(in, ticket.Status("LOST"), "", nil); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestMachine_Transition_SubmittedStampsComplianceDates(t *testing.T) {
	filedAt := time.Date(2024, time.January, 8, 14, 30, 0, 0, time.UTC)
	m := NewMachine(&captureSink{})
	m.Now = fixedClock(filedAt)

	in := ticket.Ticket{TicketID: "T240108-AAAA0001", Status: ticket.StatusReady}
	out, err := m.Transition(in, ticket.StatusSubmitted, "caller-7", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SubmittedAt == nil || !out.SubmittedAt.Equal(filedAt) {
		t.Errorf("submitted_at = %v, want %v", out.SubmittedAt, filedAt)
	}
	if out.LawfulStartDate == nil || out.LawfulStartDate.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("lawful_start = %v, want 2024-01-10", out.LawfulStartDate)
	}
	if out.TicketExpiresDate == nil || out.TicketExpiresDate.Format("2006-01-02") != "2024-01-22" {
		t.Errorf("expires = %v, want 2024-01-22", out.TicketExpiresDate)
	}
	if in.SubmittedAt != nil {
		t.Error("input ticket gained compliance dates")
	}
}

func TestMachine_Transition_NonSubmissionLeavesDatesAlone(t *testing.T) {
	m := NewMachine(nil)
	m.Now = fixedClock(time.Date(2024, time.January, 12, 9, 0, 0, 0, time.UTC))
	sub := time.Date(2024, time.January, 8, 14, 0, 0, 0, time.UTC)
	in := ticket.Ticket{TicketID: "T", Status: ticket.StatusSubmitted, SubmittedAt: &sub}
	out, err := m.Transition(in, ticket.StatusResponsesIn, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.SubmittedAt.Equal(sub) {
		t.Errorf("submitted_at changed on a later transition: %v", out.SubmittedAt)
	}
}

func TestMachine_Transition_SinkFailureDoesNotBlock(t *testing.T) {
	m := NewMachine(&captureSink{fail: true})
	in := ticket.Ticket{TicketID: "T", Status: ticket.StatusDraft}
	out, err := m.Transition(in, ticket.StatusValidated, "", nil)
	if err != nil {
		t.Fatalf("sink failure must not fail the transition: %v", err)
	}
	if out.Status != ticket.StatusValidated {
		t.Errorf("status = %s, want VALIDATED", out.Status)
	}
}

func TestMachine_RecordCreation(t *testing.T) {
	sink := &captureSink{}
	m := NewMachine(sink)
	m.Now = fixedClock(time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC))
	m.RecordCreation(ticket.Ticket{TicketID: "T240108-AAAA0001", Status: ticket.StatusDraft}, "caller-7")
	if len(sink.events) != 1 {
		t.Fatalf("expected creation event, got %d", len(sink.events))
	}
	if sink.events[0].EventType != audit.Created || sink.events[0].ToStatus != "DRAFT" {
		t.Errorf("bad creation event: %+v", sink.events[0])
	}
}
