package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"locate-mcp/internal/geo"
	"locate-mcp/internal/ticket"
)

// Format checks run only on values that are present. A suspicious value is
// worth a warning and a follow-up question, but it never blocks the ticket:
// callers routinely give numbers and addresses in odd shapes that are still
// perfectly actionable for the locate crews.

var (
	phoneShape = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]*$`)
	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Texas bounding box, generous on every side.
const (
	texasLatMin = 25.6
	texasLatMax = 36.7
	texasLngMin = -106.7
	texasLngMax = -93.4
)

// checkFormat validates a present value against the field's format
// conventions, keyed by name suffix: *_phone, *_email, and the GPS pair.
func checkFormat(name string, value any, ref time.Time) []ticket.ValidationGap {
	switch {
	case strings.HasSuffix(name, "_phone"):
		return checkPhone(name, value)
	case strings.HasSuffix(name, "_email"):
		return checkEmail(name, value)
	case name == "gps_lat":
		return checkRange(name, value, texasLatMin, texasLatMax)
	case name == "gps_lng":
		return checkRange(name, value, texasLngMin, texasLngMax)
	case name == "county":
		return checkCounty(value)
	case name == "work_start_date":
		return checkStartDate(value, ref)
	}
	return nil
}

func checkPhone(name string, value any) []ticket.ValidationGap {
	s, ok := asString(value)
	if !ok {
		return nil
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if phoneShape.MatchString(s) && (digits == 10 || digits == 11) {
		return nil
	}
	return []ticket.ValidationGap{{
		FieldName: name,
		Severity:  ticket.SeverityWarning,
		Message:   fmt.Sprintf("%q doesn't look like a phone number", s),
		Prompt:    fmt.Sprintf("The phone number %q looks unusual. Could you double-check it?", s),
	}}
}

func checkEmail(name string, value any) []ticket.ValidationGap {
	s, ok := asString(value)
	if !ok || emailShape.MatchString(s) {
		return nil
	}
	return []ticket.ValidationGap{{
		FieldName: name,
		Severity:  ticket.SeverityWarning,
		Message:   fmt.Sprintf("%q doesn't look like an email address", s),
		Prompt:    fmt.Sprintf("The email %q looks unusual. Could you double-check it?", s),
	}}
}

func checkRange(name string, value any, min, max float64) []ticket.ValidationGap {
	v, ok := asFloat(value)
	if !ok {
		return []ticket.ValidationGap{{
			FieldName: name,
			Severity:  ticket.SeverityWarning,
			Message:   "coordinate is not numeric",
			Prompt:    "Those GPS coordinates don't parse as numbers. Can you re-send them?",
		}}
	}
	if v >= min && v <= max {
		return nil
	}
	return []ticket.ValidationGap{{
		FieldName: name,
		Severity:  ticket.SeverityWarning,
		Message:   fmt.Sprintf("coordinate %v falls outside Texas", v),
		Prompt:    "Those coordinates don't look like they're in Texas. Can you re-check them?",
	}}
}

func checkCounty(value any) []ticket.ValidationGap {
	s, ok := asString(value)
	if !ok || geo.IsKnownCounty(s) {
		return nil
	}
	return []ticket.ValidationGap{{
		FieldName: "county",
		Severity:  ticket.SeverityWarning,
		Message:   fmt.Sprintf("%q is not a recognized Texas county", s),
		Prompt:    fmt.Sprintf("I don't recognize %q as a Texas county. Could you confirm the county name?", s),
	}}
}

func checkStartDate(value any, ref time.Time) []ticket.ValidationGap {
	d, ok := asTime(value)
	if !ok {
		return nil
	}
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	startDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if startDay.After(refDay) {
		return nil
	}
	return []ticket.ValidationGap{{
		FieldName: "work_start_date",
		Severity:  ticket.SeverityWarning,
		Message:   "planned start date is not in the future",
		Prompt:    "That start date is today or already past. When will digging actually begin?",
	}}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		if parsed, err := ticket.ParseDate(d); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
