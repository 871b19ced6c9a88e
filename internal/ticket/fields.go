package ticket

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Business fields are addressed by snake_case name at the tool boundary, in
// the validation rules, and in the lock tables. The accessor table below is
// the single mapping between those names and the struct.

type accessor struct {
	get func(*Ticket) any
	set func(*Ticket, any) error
}

var accessors = map[string]accessor{
	"county":       stringField(func(t *Ticket) *string { return &t.County }),
	"city":         stringField(func(t *Ticket) *string { return &t.City }),
	"address":      stringField(func(t *Ticket) *string { return &t.Address }),
	"cross_street": stringField(func(t *Ticket) *string { return &t.CrossStreet }),
	"gps_lat":      floatField(func(t *Ticket) **float64 { return &t.GPSLat }),
	"gps_lng":      floatField(func(t *Ticket) **float64 { return &t.GPSLng }),

	"work_description":   stringField(func(t *Ticket) *string { return &t.WorkDescription }),
	"work_type":          stringField(func(t *Ticket) *string { return &t.WorkType }),
	"work_start_date":    dateField(func(t *Ticket) **time.Time { return &t.WorkStartDate }),
	"work_duration_days": intField(func(t *Ticket) **int { return &t.WorkDurationDays }),

	"caller_name":       stringField(func(t *Ticket) *string { return &t.CallerName }),
	"caller_phone":      stringField(func(t *Ticket) *string { return &t.CallerPhone }),
	"caller_email":      stringField(func(t *Ticket) *string { return &t.CallerEmail }),
	"company_name":      stringField(func(t *Ticket) *string { return &t.CompanyName }),
	"excavator_company": stringField(func(t *Ticket) *string { return &t.ExcavatorCompany }),
	"excavator_phone":   stringField(func(t *Ticket) *string { return &t.ExcavatorPhone }),
	"excavator_address": stringField(func(t *Ticket) *string { return &t.ExcavatorAddress }),
	"contact_name":      stringField(func(t *Ticket) *string { return &t.ContactName }),
	"contact_phone":     stringField(func(t *Ticket) *string { return &t.ContactPhone }),

	"marking_instructions": stringField(func(t *Ticket) *string { return &t.MarkingInstructions }),
	"remarks":              stringField(func(t *Ticket) *string { return &t.Remarks }),
	"white_lined":          boolField(func(t *Ticket) **bool { return &t.WhiteLined }),
	"explosives":           boolField(func(t *Ticket) **bool { return &t.Explosives }),
	"boring":               boolField(func(t *Ticket) **bool { return &t.Boring }),
	"depth_feet":           floatField(func(t *Ticket) **float64 { return &t.DepthFeet }),
}

// FieldNames returns every addressable business field name, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(accessors))
	for name := range accessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFieldName reports whether name addresses a business field.
func IsFieldName(name string) bool {
	_, ok := accessors[NormalizeFieldName(name)]
	return ok
}

// NormalizeFieldName lowers and trims a caller-supplied field name.
func NormalizeFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Field returns the current value of a business field. Unset fields (and
// whitespace-only strings) come back as nil; the second result is false only
// for unknown names.
func (t Ticket) Field(name string) (any, bool) {
	acc, ok := accessors[NormalizeFieldName(name)]
	if !ok {
		return nil, false
	}
	return acc.get(&t), true
}

// FieldMap returns all non-empty business fields keyed by name.
func (t Ticket) FieldMap() map[string]any {
	out := make(map[string]any)
	for name, acc := range accessors {
		if v := acc.get(&t); v != nil {
			out[name] = v
		}
	}
	return out
}

// Apply returns a copy of the ticket with the given field updates applied.
// A nil value (or empty string) clears the field. The receiver is never
// modified; on any error the original ticket should be kept.
func (t Ticket) Apply(updates map[string]any) (Ticket, error) {
	c := t.Clone()
	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, raw := range names {
		name := NormalizeFieldName(raw)
		acc, ok := accessors[name]
		if !ok {
			return t, fmt.Errorf("unknown ticket field %q", raw)
		}
		if err := acc.set(&c, updates[raw]); err != nil {
			return t, fmt.Errorf("field %s: %w", name, err)
		}
	}
	return c, nil
}

func stringField(ptr func(*Ticket) *string) accessor {
	return accessor{
		get: func(t *Ticket) any {
			v := strings.TrimSpace(*ptr(t))
			if v == "" {
				return nil
			}
			return v
		},
		set: func(t *Ticket, raw any) error {
			if raw == nil {
				*ptr(t) = ""
				return nil
			}
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", raw)
			}
			*ptr(t) = strings.TrimSpace(s)
			return nil
		},
	}
}

func floatField(ptr func(*Ticket) **float64) accessor {
	return accessor{
		get: func(t *Ticket) any {
			if p := *ptr(t); p != nil {
				return *p
			}
			return nil
		},
		set: func(t *Ticket, raw any) error {
			v, cleared, err := coerceFloat(raw)
			if err != nil {
				return err
			}
			if cleared {
				*ptr(t) = nil
			} else {
				*ptr(t) = &v
			}
			return nil
		},
	}
}

func intField(ptr func(*Ticket) **int) accessor {
	return accessor{
		get: func(t *Ticket) any {
			if p := *ptr(t); p != nil {
				return *p
			}
			return nil
		},
		set: func(t *Ticket, raw any) error {
			v, cleared, err := coerceFloat(raw)
			if err != nil {
				return err
			}
			if cleared {
				*ptr(t) = nil
				return nil
			}
			n := int(v)
			if float64(n) != v {
				return fmt.Errorf("expected whole number, got %v", v)
			}
			*ptr(t) = &n
			return nil
		},
	}
}

func boolField(ptr func(*Ticket) **bool) accessor {
	return accessor{
		get: func(t *Ticket) any {
			if p := *ptr(t); p != nil {
				return *p
			}
			return nil
		},
		set: func(t *Ticket, raw any) error {
			if raw == nil {
				*ptr(t) = nil
				return nil
			}
			switch v := raw.(type) {
			case bool:
				*ptr(t) = &v
			case string:
				s := strings.ToLower(strings.TrimSpace(v))
				if s == "" {
					*ptr(t) = nil
					return nil
				}
				b, err := strconv.ParseBool(s)
				if err != nil {
					switch s {
					case "yes", "y":
						b = true
					case "no", "n":
						b = false
					default:
						return fmt.Errorf("expected boolean, got %q", v)
					}
				}
				*ptr(t) = &b
			default:
				return fmt.Errorf("expected boolean, got %T", raw)
			}
			return nil
		},
	}
}

func dateField(ptr func(*Ticket) **time.Time) accessor {
	return accessor{
		get: func(t *Ticket) any {
			if p := *ptr(t); p != nil {
				return *p
			}
			return nil
		},
		set: func(t *Ticket, raw any) error {
			if raw == nil {
				*ptr(t) = nil
				return nil
			}
			switch v := raw.(type) {
			case time.Time:
				*ptr(t) = &v
			case string:
				s := strings.TrimSpace(v)
				if s == "" {
					*ptr(t) = nil
					return nil
				}
				d, err := ParseDate(s)
				if err != nil {
					return err
				}
				*ptr(t) = &d
			default:
				return fmt.Errorf("expected date string, got %T", raw)
			}
			return nil
		},
	}
}

// coerceFloat handles the value shapes JSON decoding and conversational
// clients produce for numbers. cleared is true for nil and empty strings.
func coerceFloat(raw any) (v float64, cleared bool, err error) {
	switch n := raw.(type) {
	case nil:
		return 0, true, nil
	case float64:
		return n, false, nil
	case float32:
		return float64(n), false, nil
	case int:
		return float64(n), false, nil
	case int64:
		return float64(n), false, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true, nil
		}
		f, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			return 0, false, fmt.Errorf("expected number, got %q", n)
		}
		return f, false, nil
	default:
		return 0, false, fmt.Errorf("expected number, got %T", raw)
	}
}

// ParseDate accepts the date shapes callers actually send: bare dates and
// RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "01/02/2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD)", s)
}
