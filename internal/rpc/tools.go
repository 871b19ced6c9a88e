package rpc

func (s *Server) listTools() interface{} {
	ticketRef := map[string]interface{}{
		"ticket_id":  map[string]interface{}{"type": "string", "description": "The ticket ID. Optional when session_id names a session with a current ticket."},
		"session_id": map[string]interface{}{"type": "string", "description": "Intake session to resolve the ticket from when ticket_id is omitted."},
	}

	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name": "create_ticket",
				"description": "Open a new locate ticket draft from whatever the caller has said so far. Returns the draft, its validation gaps, a completeness score, and the single next question to ask. \n\n" +
					"Guidance: Start every new dig request here, even with only one or two known fields. The response opens an intake session; pass its session_id on every following call so the conversation stays pinned to this ticket.\n" +
					"AI MUST ask the caller exactly ONE question at a time, using the 'next_prompt' verbatim.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"fields":     map[string]interface{}{"type": "object", "description": "Initial field values keyed by snake_case field name (e.g. county, city, work_description).", "additionalProperties": true},
						"session_id": map[string]interface{}{"type": "string", "description": "Optional: reuse an existing intake session."},
						"user_id":    map[string]interface{}{"type": "string", "description": "Who is creating the ticket."},
					},
				},
			},
			map[string]interface{}{
				"name": "update_ticket",
				"description": "Apply field updates to a ticket and re-validate. Locked fields are rejected up front with the exact field names; nothing is partially applied. \n\n" +
					"A draft with every required field present advances to VALIDATED automatically; a VALIDATED ticket that loses a required field drops back to DRAFT.\n" +
					"A 'status' key inside fields requests an explicit lifecycle transition instead (e.g. {\"status\": \"READY_TO_DIG\"} once the crew is on site with markings verified). Illegal transitions are refused.\n" +
					"Guidance: Record one answer, then relay the returned 'next_prompt'.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"fields":  map[string]interface{}{"type": "object", "description": "Field values keyed by snake_case field name. null or empty string clears a field.", "additionalProperties": true},
						"user_id": map[string]interface{}{"type": "string", "description": "Who is making the change."},
					}),
					"required": []string{"fields"},
				},
			},
			map[string]interface{}{
				"name": "get_next_prompt",
				"description": "Return the single highest-priority question to ask the caller, or a completion notice when nothing more is needed. \n\n" +
					"Guidance: Use the prompt VERBATIM; the wording is tuned for phone intake. When 'complete' is true, read the ticket back to the caller and move to 'confirm_ticket'.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": ticketRef,
				},
			},
			map[string]interface{}{
				"name": "validate_ticket",
				"description": "Run a full validation pass: required/recommended/warning gaps, the validated field list, and the weighted completeness score. Read-only. \n\n" +
					"Guidance: WARNINGS never block submission; mention them to the caller but do not refuse to proceed over them.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": ticketRef,
				},
			},
			map[string]interface{}{
				"name": "confirm_ticket",
				"description": "Confirm a VALIDATED ticket for filing: VALIDATED becomes READY and the work description locks. \n\n" +
					"Guidance: Call this only after the caller has heard the ticket read back and agreed it is correct.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"user_id": map[string]interface{}{"type": "string", "description": "Who confirmed the ticket."},
					}),
				},
			},
			map[string]interface{}{
				"name": "mark_submitted",
				"description": "Record that a human filed the READY ticket with the one-call center. Stamps the submission time, the lawful start date (two business days out), and the expiration date (14 calendar days). \n\n" +
					"This server never files tickets itself; filing happens by phone or on the one-call portal, and this tool records the fact afterwards.\n" +
					"Guidance: Pass the utility members the center said it notified under 'members'; responses are tracked against that list.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"user_id":             map[string]interface{}{"type": "string", "description": "Who filed the ticket with the one-call center. Required."},
						"confirmation_number": map[string]interface{}{"type": "string", "description": "Optional: the center's confirmation number, kept in the audit trail."},
						"members":             map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Optional: member codes the center notified (e.g. [\"ATMOS\", \"ONCOR\"])."},
					}),
					"required": []string{"user_id"},
				},
			},
			map[string]interface{}{
				"name": "record_member_response",
				"description": "Record a utility member's response (CLEAR or NOT_CLEAR) on a submitted ticket. Unknown members are added to the expected list rather than rejected; a repeat response from the same member updates the earlier one in place. \n\n" +
					"The ticket's status is recomputed from the full response picture: partial coverage sits at IN_PROGRESS, full coverage at RESPONSES_IN.\n" +
					"Guidance: NOT_CLEAR means facilities are in conflict at the dig site; the caller must confirm markings on the ground before digging.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"member_code":  map[string]interface{}{"type": "string", "description": "The utility member's code (e.g. ATMOS). Required."},
						"status":       map[string]interface{}{"type": "string", "enum": []string{"CLEAR", "NOT_CLEAR"}, "description": "The member's answer. Required."},
						"member_name":  map[string]interface{}{"type": "string", "description": "Optional: member display name, used when the code is new to this ticket."},
						"facilities":   map[string]interface{}{"type": "string", "description": "Optional: facilities the member reported (e.g. 'gas distribution main')."},
						"comment":      map[string]interface{}{"type": "string", "description": "Optional: free-text comment from the member."},
						"submitted_by": map[string]interface{}{"type": "string", "description": "Optional: who relayed the response."},
					}),
					"required": []string{"member_code", "status"},
				},
			},
			map[string]interface{}{
				"name": "get_ticket",
				"description": "Fetch the full ticket: fields, validation gaps, member responses, and the advisory lifecycle view (can work start, days until expiration, required actions). \n\n" +
					"Guidance: The lifecycle block is advisory date math; the authoritative state is 'ticket.status'.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": ticketRef,
				},
			},
			map[string]interface{}{
				"name": "get_ticket_history",
				"description": "Reconstruct the ticket's status timeline from the audit trail: every span in every status with its residency in days. \n\n" +
					"Guidance: Use this to answer 'how long has this ticket been waiting' precisely instead of estimating.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": ticketRef,
				},
			},
			map[string]interface{}{
				"name":        "list_tickets",
				"description": "List stored tickets, newest first, optionally filtered by status and county.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"status": map[string]interface{}{"type": "string", "enum": []string{"DRAFT", "VALIDATED", "READY", "SUBMITTED", "IN_PROGRESS", "RESPONSES_IN", "READY_TO_DIG", "COMPLETED", "CANCELLED", "EXPIRED"}, "description": "Optional status filter."},
						"county": map[string]interface{}{"type": "string", "description": "Optional county filter, case-insensitive."},
						"limit":  map[string]interface{}{"type": "integer", "description": "Optional cap on results."},
					},
				},
			},
			map[string]interface{}{
				"name": "cancel_ticket",
				"description": "Cancel a ticket. Allowed from every status; cancellation is final. \n\n" +
					"Guidance: Always pass the caller's stated reason; it goes into the audit trail.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"reason":  map[string]interface{}{"type": "string", "description": "Why the ticket is being cancelled."},
						"user_id": map[string]interface{}{"type": "string", "description": "Who cancelled it."},
					}),
				},
			},
			map[string]interface{}{
				"name":        "complete_ticket",
				"description": "Mark the excavation work finished. Only a READY_TO_DIG ticket can complete; set that status first via 'update_ticket' once the crew starts.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": mergeProps(ticketRef, map[string]interface{}{
						"user_id": map[string]interface{}{"type": "string", "description": "Who completed the work."},
					}),
				},
			},
			map[string]interface{}{
				"name": "get_compliance",
				"description": "Return the compliance picture for a ticket: submission, lawful start, expiration and marking-validity dates, plus the derived lifecycle view. \n\n" +
					"STRICT GUARDRAIL: AI MUST NOT compute waiting periods or expiration dates itself. Texas business-day rules (weekends, observed holidays) live in this tool; hand-computed dates WILL be wrong on holiday weeks.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": ticketRef,
				},
			},
			map[string]interface{}{
				"name": "check_calendar",
				"description": "Business-day probe: whether a date is a business day, any holiday on it, the earliest lawful dig start from a reference date, and holidays in between. \n\n" +
					"Guidance: Use this BEFORE promising a caller any start date.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date":           map[string]interface{}{"type": "string", "description": "The date to probe (YYYY-MM-DD). Required."},
						"reference_date": map[string]interface{}{"type": "string", "description": "Optional: filing reference date for the lawful-start calculation. Default: today."},
					},
					"required": []string{"date"},
				},
			},
			map[string]interface{}{
				"name": "member_scorecard",
				"description": "Per-utility response performance across all stored tickets: response counts, clear rate, and latency percentiles (P50/P85 days from submission to response). \n\n" +
					"Guidance: A P85 beyond the two-business-day waiting period identifies members that routinely hold tickets up; flag those to ops rather than promising callers fast turnarounds.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"member_code": map[string]interface{}{"type": "string", "description": "Optional: limit the scorecard to one member."},
					},
				},
			},
		},
	}
}

// mergeProps overlays tool-specific properties on the shared ticket
// reference block without mutating it.
func mergeProps(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
