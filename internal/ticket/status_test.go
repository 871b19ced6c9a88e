package ticket

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "exact", input: "DRAFT", want: StatusDraft},
		{name: "lowercase", input: "ready_to_dig", want: StatusReadyToDig},
		{name: "padded", input: "  Submitted ", want: StatusSubmitted},
		{name: "unknown", input: "PENDING", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusCompleted: true,
		StatusCancelled: true,
		StatusExpired:   true,
	}
	for _, s := range AllStatuses() {
		if got := s.IsTerminal(); got != terminal[s] {
			t.Errorf("%s: IsTerminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestSeverity_Rank_Ordering(t *testing.T) {
	order := []Severity{SeverityRequired, SeverityRecommended, SeverityWarning, SeverityInfo}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %s to rank before %s", order[i-1], order[i])
		}
	}
}

func TestParseResponseStatus(t *testing.T) {
	got, err := ParseResponseStatus("not_clear")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ResponseNotClear {
		t.Errorf("expected NOT_CLEAR, got %s", got)
	}
	if _, err := ParseResponseStatus("maybe"); err == nil {
		t.Error("expected error for unknown response status")
	}
}
