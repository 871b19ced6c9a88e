package validation

import (
	"fmt"
	"sort"
	"time"

	"locate-mcp/internal/ticket"
)

// AnalyzeFieldGaps inspects a field map and returns everything wrong or
// missing with it, unprioritized. ref anchors the date sanity checks.
func AnalyzeFieldGaps(fields map[string]any, ref time.Time) []ticket.ValidationGap {
	var gaps []ticket.ValidationGap

	for _, rule := range fieldRules {
		v, present := fields[rule.Name]
		if !present || isEmpty(v) {
			if sev, blockingOrRecommended := rule.MissingSeverity(); blockingOrRecommended {
				gaps = append(gaps, ticket.ValidationGap{
					FieldName: rule.Name,
					Severity:  sev,
					Message:   fmt.Sprintf("%s is missing", rule.Label),
					Prompt:    rule.Prompt,
				})
			}
			continue
		}
		gaps = append(gaps, checkFormat(rule.Name, v, ref)...)
	}

	gaps = append(gaps, crossFieldGaps(fields)...)

	// Surface unknown keys so a conversational client notices its own typos.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, known := rulesByName[ticket.NormalizeFieldName(name)]; !known {
			gaps = append(gaps, ticket.ValidationGap{
				FieldName: ticket.NormalizeFieldName(name),
				Severity:  ticket.SeverityInfo,
				Message:   fmt.Sprintf("%q is not a recognized ticket field", name),
			})
		}
	}

	return gaps
}

// crossFieldGaps holds the rules no single field can answer for itself.
func crossFieldGaps(fields map[string]any) []ticket.ValidationGap {
	var gaps []ticket.ValidationGap

	hasAddress := !isEmpty(fields["address"])
	hasLat := !isEmpty(fields["gps_lat"])
	hasLng := !isEmpty(fields["gps_lng"])

	// The site must be findable: a street address or a complete coordinate
	// pair. One lone coordinate locates nothing.
	if !hasAddress && !(hasLat && hasLng) {
		gaps = append(gaps, ticket.ValidationGap{
			FieldName: "location",
			Severity:  ticket.SeverityRequired,
			Message:   "dig site needs a street address or a GPS coordinate pair",
			Prompt:    "Where exactly is the dig site? A street address or GPS coordinates, whichever you have.",
		})
	}

	if hasLat != hasLng {
		missing, given := "gps_lng", "latitude"
		if hasLng {
			missing, given = "gps_lat", "longitude"
		}
		gaps = append(gaps, ticket.ValidationGap{
			FieldName: missing,
			Severity:  ticket.SeverityWarning,
			Message:   fmt.Sprintf("GPS %s given without its pair", given),
			Prompt:    fmt.Sprintf("You gave a GPS %s but not the other coordinate. What's the full pair?", given),
		})
	}

	return gaps
}

// PrioritizeGaps orders gaps by severity, most blocking first. The sort is
// stable, so gaps of equal severity keep their conversational flow order.
func PrioritizeGaps(gaps []ticket.ValidationGap) []ticket.ValidationGap {
	out := make([]ticket.ValidationGap, len(gaps))
	copy(out, gaps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
