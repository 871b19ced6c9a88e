package validation

import "locate-mcp/internal/ticket"

// FieldRule describes one business field: how badly the ticket needs it and
// how to ask a caller for it. Rules are ordered the way an intake
// conversation naturally flows: where, what, when, who.
type FieldRule struct {
	Name        string
	Label       string
	Required    bool
	Recommended bool
	Prompt      string
}

// Weight is the field's contribution to the completeness score.
func (r FieldRule) Weight() float64 {
	switch {
	case r.Required:
		return 3.0
	case r.Recommended:
		return 2.0
	default:
		return 0.5
	}
}

// MissingSeverity is the gap severity when the field is absent, or empty
// when absence is acceptable.
func (r FieldRule) MissingSeverity() (ticket.Severity, bool) {
	switch {
	case r.Required:
		return ticket.SeverityRequired, true
	case r.Recommended:
		return ticket.SeverityRecommended, true
	default:
		return "", false
	}
}

var fieldRules = []FieldRule{
	{
		Name: "county", Label: "County", Required: true,
		Prompt: "Which Texas county is the dig site in?",
	},
	{
		Name: "city", Label: "City", Required: true,
		Prompt: "Which city or town is the work in? If it's outside city limits, the nearest one.",
	},
	{
		Name: "address", Label: "Street address", Recommended: true,
		Prompt: "What's the street address of the dig site? GPS coordinates work too if there's no address.",
	},
	{
		Name: "cross_street", Label: "Nearest cross street", Recommended: true,
		Prompt: "What's the nearest cross street or intersection?",
	},
	{Name: "gps_lat", Label: "GPS latitude"},
	{Name: "gps_lng", Label: "GPS longitude"},
	{
		Name: "work_description", Label: "Work description", Required: true,
		Prompt: "Briefly, what work is being done? For example: installing a fence, repairing a water line.",
	},
	{
		Name: "work_type", Label: "Work type", Required: true,
		Prompt: "What type of work is this? For example: fencing, plumbing, grading, utility install.",
	},
	{
		Name: "work_start_date", Label: "Planned start date", Required: true,
		Prompt: "When do you plan to start digging? A date like 2024-03-15 is perfect.",
	},
	{Name: "work_duration_days", Label: "Expected duration (days)"},
	{
		Name: "caller_name", Label: "Caller name", Required: true,
		Prompt: "Who is filing this request? Full name, please.",
	},
	{
		Name: "caller_phone", Label: "Caller phone", Required: true,
		Prompt: "What's the best phone number to reach you?",
	},
	{Name: "caller_email", Label: "Caller email"},
	{
		Name: "company_name", Label: "Company", Recommended: true,
		Prompt: "Is this work for a company? If so, which one?",
	},
	{
		Name: "excavator_company", Label: "Excavation company", Recommended: true,
		Prompt: "Who will actually be doing the digging? The excavation company's name.",
	},
	{
		Name: "excavator_phone", Label: "Excavator phone", Recommended: true,
		Prompt: "What's the excavator's phone number?",
	},
	{Name: "excavator_address", Label: "Excavator address"},
	{
		Name: "contact_name", Label: "On-site contact", Recommended: true,
		Prompt: "Who should utility crews ask for at the site?",
	},
	{
		Name: "contact_phone", Label: "On-site contact phone", Recommended: true,
		Prompt: "What's the on-site contact's phone number?",
	},
	{Name: "marking_instructions", Label: "Marking instructions"},
	{Name: "remarks", Label: "Remarks"},
	{Name: "white_lined", Label: "Site white-lined"},
	{Name: "explosives", Label: "Explosives in use"},
	{Name: "boring", Label: "Directional boring"},
	{Name: "depth_feet", Label: "Expected depth (feet)"},
}

var rulesByName = func() map[string]FieldRule {
	m := make(map[string]FieldRule, len(fieldRules))
	for _, r := range fieldRules {
		m[r.Name] = r
	}
	return m
}()

// Rules returns the ordered rule table.
func Rules() []FieldRule {
	out := make([]FieldRule, len(fieldRules))
	copy(out, fieldRules)
	return out
}

// RuleFor looks up the rule for a field name.
func RuleFor(name string) (FieldRule, bool) {
	r, ok := rulesByName[ticket.NormalizeFieldName(name)]
	return r, ok
}

// totalWeight is the denominator of the completeness score.
var totalWeight = func() float64 {
	var sum float64
	for _, r := range fieldRules {
		sum += r.Weight()
	}
	return sum
}()
