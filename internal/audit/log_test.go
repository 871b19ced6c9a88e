package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func microsAt(h int) int64 {
	return time.Date(2024, time.January, 8, h, 0, 0, 0, time.UTC).UnixMicro()
}

func TestLog_Append_DeduplicatesAndSorts(t *testing.T) {
	l := NewLog()
	e1 := Event{EventID: "e1", TicketID: "T240108-AAAA0001", EventType: Created, ToStatus: "DRAFT", Timestamp: microsAt(9)}
	e2 := Event{EventID: "e2", TicketID: "T240108-AAAA0001", EventType: StatusChanged, FromStatus: "DRAFT", ToStatus: "VALIDATED", Timestamp: microsAt(11)}

	l.Append(e2, e1)
	l.Append(e1) // duplicate
	l.Append(e2) // duplicate

	got := l.All()
	if len(got) != 2 {
		t.Fatalf("expected 2 events after dedupe, got %d", len(got))
	}
	if got[0].EventID != "e1" || got[1].EventID != "e2" {
		t.Errorf("events not in chronological order: %s, %s", got[0].EventID, got[1].EventID)
	}
}

func TestLog_Append_IdentityWithoutEventID(t *testing.T) {
	l := NewLog()
	e := Event{TicketID: "T240108-AAAA0001", EventType: StatusChanged, ToStatus: "READY", Timestamp: microsAt(9)}
	l.Append(e)
	l.Append(e)
	if l.Count() != 1 {
		t.Errorf("expected identity dedupe without event id, got %d events", l.Count())
	}
}

func TestLog_ForTicket(t *testing.T) {
	l := NewLog()
	l.Append(
		Event{EventID: "a", TicketID: "T240108-AAAA0001", EventType: Created, Timestamp: microsAt(9)},
		Event{EventID: "b", TicketID: "T240108-BBBB0002", EventType: Created, Timestamp: microsAt(10)},
		Event{EventID: "c", TicketID: "T240108-AAAA0001", EventType: StatusChanged, ToStatus: "VALIDATED", Timestamp: microsAt(11)},
	)
	got := l.ForTicket("T240108-AAAA0001")
	if len(got) != 2 {
		t.Fatalf("expected 2 events for ticket, got %d", len(got))
	}
	for _, e := range got {
		if e.TicketID != "T240108-AAAA0001" {
			t.Errorf("foreign event leaked into history: %s", e.TicketID)
		}
	}
}

func TestLog_SaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	l := NewLog()
	l.Append(
		Event{EventID: "e1", TicketID: "T240108-AAAA0001", EventType: Created, ToStatus: "DRAFT", Timestamp: microsAt(9)},
		Event{EventID: "e2", TicketID: "T240108-AAAA0001", EventType: StatusChanged, FromStatus: "DRAFT", ToStatus: "VALIDATED", UserID: "caller-7", Timestamp: microsAt(11), Details: map[string]string{"reason": "all required fields present"}},
	)
	if err := l.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewLog()
	if err := reloaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := reloaded.All()
	if len(got) != 2 {
		t.Fatalf("expected 2 events after reload, got %d", len(got))
	}
	if got[1].UserID != "caller-7" || got[1].Details["reason"] != "all required fields present" {
		t.Errorf("event payload lost in round trip: %+v", got[1])
	}
}

func TestLog_Load_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	content := `{"eventId":"ok1","ticketId":"T240108-AAAA0001","eventType":"Created","ts":1704704400000000}
not json at all
{"eventId":"ok2","ticketId":"T240108-AAAA0001","eventType":"StatusChanged","toStatus":"VALIDATED","ts":1704711600000000}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLog()
	if err := l.Load(path); err != nil {
		t.Fatalf("load should tolerate corrupt lines: %v", err)
	}
	if l.Count() != 2 {
		t.Errorf("expected 2 valid events, got %d", l.Count())
	}
}

func TestLog_Load_MissingFileIsNotError(t *testing.T) {
	l := NewLog()
	if err := l.Load(filepath.Join(t.TempDir(), "nope.jsonl")); err != nil {
		t.Errorf("missing file should not be an error, got %v", err)
	}
}

func TestEncodeLine_EndsWithNewline(t *testing.T) {
	b, err := EncodeLine(Event{EventID: "e1", TicketID: "T240108-AAAA0001", EventType: Created, Timestamp: microsAt(9)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if b[len(b)-1] != '\n' {
		t.Error("encoded line must end with newline")
	}
}
