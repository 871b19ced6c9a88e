package corpus

import (
	"testing"
	"time"

	"locate-mcp/internal/metrics"
	"locate-mcp/internal/store"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/workflow"
)

// A Monday afternoon, so lawful-start math lands on predictable weekdays.
var genNow = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func TestGenerateWalksLegalLifecycles(t *testing.T) {
	records := Generate(GeneratorConfig{Scenario: "mild", Count: 40, Seed: 7, Now: genNow})
	if len(records) != 40 {
		t.Fatalf("got %d records, want 40", len(records))
	}

	seen := map[string]bool{}
	var prevCreated time.Time
	completed := 0
	for _, rec := range records {
		tk := rec.Ticket
		if seen[tk.TicketID] {
			t.Fatalf("duplicate ticket ID %s", tk.TicketID)
		}
		seen[tk.TicketID] = true

		if !tk.CreatedAt.After(prevCreated) {
			t.Errorf("ticket %s created %v, not after previous %v", tk.TicketID, tk.CreatedAt, prevCreated)
		}
		prevCreated = tk.CreatedAt

		// All generated tickets reach submission before anything else
		// happens to them.
		if tk.SubmittedAt == nil || tk.LawfulStartDate == nil || tk.TicketExpiresDate == nil {
			t.Fatalf("ticket %s missing compliance dates: %+v", tk.TicketID, tk)
		}
		if tk.Status == ticket.StatusExpired {
			t.Errorf("ticket %s expired in the mild scenario", tk.TicketID)
		}
		if tk.Status == ticket.StatusCompleted {
			completed++
		}

		if len(rec.Events) == 0 || rec.Events[0].EventType != "Created" {
			t.Fatalf("ticket %s events do not start with Created: %+v", tk.TicketID, rec.Events)
		}
		for _, e := range rec.Events {
			if e.TicketID != tk.TicketID {
				t.Errorf("event %s belongs to %s, found under %s", e.EventID, e.TicketID, tk.TicketID)
			}
			if e.EventType != "StatusChanged" {
				continue
			}
			from := ticket.Status(e.FromStatus)
			to := ticket.Status(e.ToStatus)
			if !workflow.CanTransition(from, to) {
				t.Errorf("ticket %s recorded an illegal move %s -> %s", tk.TicketID, from, to)
			}
		}

		for _, r := range rec.Responses {
			if r.TicketID != tk.TicketID {
				t.Errorf("response %s filed under the wrong ticket", r.ResponseID)
			}
			if r.CreatedAt.Before(*tk.SubmittedAt) {
				t.Errorf("response from %s arrived before submission", r.MemberCode)
			}
			if r.CreatedAt.After(genNow) {
				t.Errorf("response from %s arrived in the future", r.MemberCode)
			}
		}
	}

	if completed == 0 {
		t.Error("a six-week mild corpus should contain completed tickets")
	}
}

func TestScenarioShapes(t *testing.T) {
	t.Run("no-shows leave expired tickets", func(t *testing.T) {
		records := Generate(GeneratorConfig{Scenario: "no-shows", Count: 40, Seed: 3, Now: genNow})

		expired, short := 0, 0
		for _, rec := range records {
			if rec.Ticket.Status == ticket.StatusExpired {
				expired++
			}
			if len(rec.Responses) < len(rec.Ticket.ExpectedMembers) {
				short++
			}
		}
		if expired == 0 {
			t.Error("no tickets expired; silent members should strand old tickets")
		}
		if short == 0 {
			t.Error("every expected member responded; the scenario should leave holes")
		}
	})

	t.Run("slow members drag the percentiles", func(t *testing.T) {
		records := Generate(GeneratorConfig{Scenario: "slow-members", Count: 40, Seed: 11, Now: genNow})

		var tickets []ticket.Ticket
		responsesByTicket := map[string][]ticket.MemberResponse{}
		for _, rec := range records {
			tickets = append(tickets, rec.Ticket)
			if len(rec.Responses) > 0 {
				responsesByTicket[rec.Ticket.TicketID] = rec.Responses
			}
		}

		cards := map[string]metrics.MemberScorecard{}
		for _, card := range metrics.BuildScorecards(tickets, responsesByTicket).Members {
			cards[card.MemberCode] = card
		}

		for code := range slowCodes {
			card, ok := cards[code]
			if !ok {
				t.Fatalf("no scorecard for slow member %s", code)
			}
			if card.P50Days < 2 {
				t.Errorf("%s P50 = %v days, want at least the 2-day window", code, card.P50Days)
			}
		}
		atmos, ok := cards["ATMOS"]
		if !ok {
			t.Fatal("no scorecard for ATMOS")
		}
		if atmos.P85Days > 2 {
			t.Errorf("ATMOS P85 = %v days, want within the 2-day window", atmos.P85Days)
		}
	})
}

func TestGenerateIsSeeded(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "mild", Count: 15, Seed: 42, Now: genNow}
	a := Generate(cfg)
	b := Generate(cfg)

	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Ticket.TicketID != b[i].Ticket.TicketID {
			t.Errorf("record %d: ticket IDs differ: %s vs %s", i, a[i].Ticket.TicketID, b[i].Ticket.TicketID)
		}
		if a[i].Ticket.Status != b[i].Ticket.Status {
			t.Errorf("record %d: statuses differ: %s vs %s", i, a[i].Ticket.Status, b[i].Ticket.Status)
		}
		if len(a[i].Responses) != len(b[i].Responses) {
			t.Errorf("record %d: response counts differ: %d vs %d", i, len(a[i].Responses), len(b[i].Responses))
		}
	}
}

func TestSaveWritesProductionLayout(t *testing.T) {
	records := Generate(GeneratorConfig{Scenario: "mild", Count: 8, Seed: 2, Now: genNow})
	dir := t.TempDir()
	if err := Save(dir, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}

	stored, err := st.ListTickets(store.Filter{})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(stored) != len(records) {
		t.Fatalf("store holds %d tickets, want %d", len(stored), len(records))
	}

	for _, rec := range records {
		responses, err := st.LoadResponses(rec.Ticket.TicketID)
		if err != nil {
			t.Fatalf("LoadResponses(%s): %v", rec.Ticket.TicketID, err)
		}
		if len(responses) != len(rec.Responses) {
			t.Errorf("ticket %s: %d responses stored, want %d", rec.Ticket.TicketID, len(responses), len(rec.Responses))
		}

		events, err := st.AuditEvents(rec.Ticket.TicketID)
		if err != nil {
			t.Fatalf("AuditEvents(%s): %v", rec.Ticket.TicketID, err)
		}
		if len(events) != len(rec.Events) {
			t.Errorf("ticket %s: %d events stored, want %d", rec.Ticket.TicketID, len(events), len(rec.Events))
		}
	}
}
