// Package visuals renders Mermaid diagrams for conversational clients that
// can display them inline. Every generator returns a fenced code block, or
// an empty string when there is nothing worth drawing.
package visuals

import (
	"fmt"
	"strings"

	"locate-mcp/internal/ticket"
	"locate-mcp/internal/workflow"
)

// LifecycleDiagram renders the ticket state machine as a Mermaid state
// diagram. When current names a known status it is highlighted so the caller
// can see at a glance where the ticket sits in the flow.
func LifecycleDiagram(current ticket.Status) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString("    [*] --> DRAFT\n")

	for _, from := range ticket.AllStatuses() {
		targets := workflow.TransitionsFrom(from)
		if len(targets) == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> [*]\n", from))
			continue
		}
		for _, to := range targets {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	if current.IsValid() {
		sb.WriteString("    classDef current fill:#2d7dd2,color:#fff,stroke:#1b4e82\n")
		sb.WriteString(fmt.Sprintf("    class %s current\n", current))
	}

	sb.WriteString("```")
	return sb.String()
}

// ResponseChart renders the response picture on a ticket as a Mermaid pie
// chart: cleared, not clear, and still awaited.
func ResponseChart(s ticket.ResponseSummary) string {
	awaiting := s.TotalExpected - s.TotalReceived
	if awaiting < 0 {
		awaiting = 0
	}
	if s.TotalReceived == 0 && awaiting == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Utility responses\n")
	if s.ClearCount > 0 {
		sb.WriteString(fmt.Sprintf("    \"Clear\" : %d\n", s.ClearCount))
	}
	if s.NotClearCount > 0 {
		sb.WriteString(fmt.Sprintf("    \"Not clear\" : %d\n", s.NotClearCount))
	}
	if awaiting > 0 {
		sb.WriteString(fmt.Sprintf("    \"Awaiting\" : %d\n", awaiting))
	}
	sb.WriteString("```")
	return sb.String()
}
