package rpc

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"locate-mcp/internal/session"
	"locate-mcp/internal/ticket"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"hello", "hello"},
		{42.0, "42"},
		{true, "true"},
	}
	for _, tc := range tests {
		if got := asString(tc.in); got != tc.want {
			t.Errorf("asString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
	}{
		{nil, 0},
		{float64(7), 7},
		{3, 3},
		{"12", 12},
		{" 12 ", 12},
		{"twelve", 0},
		{true, 0},
	}
	for _, tc := range tests {
		if got := asInt(tc.in); got != tc.want {
			t.Errorf("asInt(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestArgFields(t *testing.T) {
	inline := map[string]interface{}{"fields": map[string]interface{}{"county": "Travis"}}
	if got := argFields(inline); got["county"] != "Travis" {
		t.Errorf("inline map: got %v", got)
	}

	encoded := map[string]interface{}{"fields": `{"city": "Austin"}`}
	if got := argFields(encoded); got["city"] != "Austin" {
		t.Errorf("JSON string: got %v", got)
	}

	for name, args := range map[string]map[string]interface{}{
		"absent":    {},
		"nil":       {"fields": nil},
		"bad json":  {"fields": "{not json"},
		"bad shape": {"fields": 7},
	} {
		if got := argFields(args); len(got) != 0 {
			t.Errorf("%s: got %v, want empty map", name, got)
		}
	}
}

func TestArgStrings(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, nil},
		{"json array", []interface{}{"ATMOS", " ONCOR ", ""}, []string{"ATMOS", "ONCOR"}},
		{"string slice", []string{"ATMOS"}, []string{"ATMOS"}},
		{"comma separated", "ATMOS, ONCOR,,", []string{"ATMOS", "ONCOR"}},
	}
	for _, tc := range tests {
		if got := argStrings(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: argStrings = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolveTicketID(t *testing.T) {
	ctx := context.Background()
	cache := session.NewMemoryCache(time.Hour)
	s := &Server{sessions: cache, now: time.Now}

	sess := session.New(time.Now())
	sess.TicketID = "T240304-AAAA1111"
	if err := cache.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	empty := session.New(time.Now())
	if err := cache.Put(ctx, empty); err != nil {
		t.Fatalf("Put: %v", err)
	}

	t.Run("explicit wins", func(t *testing.T) {
		id, err := s.resolveTicketID(map[string]interface{}{
			"ticket_id":  "T240304-BBBB2222",
			"session_id": sess.SessionID,
		})
		if err != nil || id != "T240304-BBBB2222" {
			t.Errorf("got (%q, %v)", id, err)
		}
	})

	t.Run("session fallback", func(t *testing.T) {
		id, err := s.resolveTicketID(map[string]interface{}{"session_id": sess.SessionID})
		if err != nil || id != sess.TicketID {
			t.Errorf("got (%q, %v)", id, err)
		}
	})

	t.Run("nothing to go on", func(t *testing.T) {
		if _, err := s.resolveTicketID(map[string]interface{}{}); err == nil {
			t.Error("want error with neither ticket_id nor session_id")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if _, err := s.resolveTicketID(map[string]interface{}{"session_id": "nope"}); err == nil {
			t.Error("want error for unknown session")
		}
	})

	t.Run("session without ticket", func(t *testing.T) {
		if _, err := s.resolveTicketID(map[string]interface{}{"session_id": empty.SessionID}); err == nil {
			t.Error("want error for session with no current ticket")
		}
	})
}

func TestTouchSession(t *testing.T) {
	cache := session.NewMemoryCache(time.Hour)
	s := &Server{sessions: cache, now: time.Now}

	id := s.touchSession("", "T240304-AAAA1111", "Which county?")
	if id == "" {
		t.Fatal("want a fresh session ID")
	}

	// A second touch reuses the session and counts the prompt.
	again := s.touchSession(id, "T240304-AAAA1111", "Which city?")
	if again != id {
		t.Fatalf("session changed: %q -> %q", id, again)
	}
	sess, ok, err := cache.Get(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if sess.PromptCount != 2 {
		t.Errorf("PromptCount = %d, want 2", sess.PromptCount)
	}
	if sess.LastPrompt != "Which city?" {
		t.Errorf("LastPrompt = %q", sess.LastPrompt)
	}
}

func TestResponseGuidance(t *testing.T) {
	outstanding := []ticket.MemberInfo{{MemberCode: "ONCOR"}, {MemberCode: "ATMOS"}}
	got := responseGuidance(ticket.ResponseSummary{TotalExpected: 3, TotalReceived: 1}, outstanding)
	if len(got) != 1 || !strings.Contains(got[0], "ATMOS, ONCOR") {
		t.Errorf("waiting guidance = %v", got)
	}

	got = responseGuidance(ticket.ResponseSummary{TotalExpected: 2, TotalReceived: 2, ClearCount: 1, NotClearCount: 1}, nil)
	if len(got) != 2 || !strings.Contains(got[1], "NOT_CLEAR") {
		t.Errorf("not-clear guidance = %v", got)
	}

	got = responseGuidance(ticket.ResponseSummary{TotalExpected: 2, TotalReceived: 2, ClearCount: 2}, nil)
	if len(got) != 2 || !strings.Contains(got[1], "good to dig") {
		t.Errorf("all-clear guidance = %v", got)
	}
}
