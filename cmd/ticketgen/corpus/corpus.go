// Package corpus generates seeded dig-ticket corpora for demos and local
// testing. Every generated ticket walks the real state machine, so the
// stored records, member responses, and audit trail come out exactly the
// way production writes them.
package corpus

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/calendar"
	"locate-mcp/internal/compliance"
	"locate-mcp/internal/response"
	"locate-mcp/internal/store"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/validation"
	"locate-mcp/internal/workflow"
)

// GeneratorConfig controls corpus generation. The same Seed and Now produce
// the same ticket shapes; event and response IDs are still unique per run.
type GeneratorConfig struct {
	Scenario string // mild, slow-members, no-shows
	Count    int
	Seed     int64
	Now      time.Time
}

// Record is one generated ticket with everything production would have
// persisted alongside it.
type Record struct {
	Ticket    ticket.Ticket
	Responses []ticket.MemberResponse
	Events    []audit.Event
}

type eventCollector struct {
	events *[]audit.Event
}

func (c eventCollector) Record(e audit.Event) error {
	*c.events = append(*c.events, e)
	return nil
}

var sites = []struct {
	county, city, address, cross string
}{
	{"Travis", "Austin", "1100 Congress Ave", "E 11th St"},
	{"Dallas", "Dallas", "2200 Ross Ave", "N Pearl St"},
	{"Harris", "Houston", "901 Bagby St", "Walker St"},
	{"Bexar", "San Antonio", "100 Military Plaza", "W Commerce St"},
	{"Tarrant", "Fort Worth", "200 Texas St", "Houston St"},
	{"Williamson", "Round Rock", "221 E Main St", "S Mays St"},
}

var jobs = []struct {
	kind, description string
}{
	{"fencing", "Setting fence posts along the rear property line"},
	{"plumbing", "Repairing a broken water service line near the meter"},
	{"electrical", "Trenching for a new electrical service conduit"},
	{"landscaping", "Planting shade trees along the front easement"},
	{"utility installation", "Boring for fiber conduit under the driveway"},
	{"foundation", "Digging pier holes for a deck foundation"},
}

var callers = []struct {
	name, phone, company string
}{
	{"Dana Whitfield", "512-555-0142", ""},
	{"Ray Delgado", "737-555-0108", "Delgado Fence Co"},
	{"Marcus Bell", "214-555-0199", "Bell Site Services"},
	{"Alicia Tran", "832-555-0167", ""},
	{"Priya Natarajan", "210-555-0123", "Natarajan Landscapes"},
}

var memberPool = []ticket.MemberInfo{
	{MemberCode: "ATMOS", MemberName: "Atmos Energy", IsActive: true},
	{MemberCode: "ONCOR", MemberName: "Oncor Electric Delivery", IsActive: true},
	{MemberCode: "CENTERPOINT", MemberName: "CenterPoint Energy", IsActive: true},
	{MemberCode: "AUSTIN_WATER", MemberName: "Austin Water Utility", IsActive: true},
	{MemberCode: "GRANDE", MemberName: "Grande Communications", IsActive: true},
}

// slowCodes are the members that drag their feet in the slow-members
// scenario. Their latencies land past the two-business-day window so the
// scorecards have something to flag.
var slowCodes = map[string]bool{
	"CENTERPOINT": true,
	"GRANDE":      true,
}

var facilitiesNotes = []string{
	"2in steel gas main crossing the site, marked in yellow",
	"Buried primary electric along the north edge, marked in red",
	"Fiber duct bank parallel to the curb, marked in orange",
}

// Generate builds cfg.Count tickets, one arrival per day walking backward
// from cfg.Now. The oldest tickets have finished their whole life; the
// newest are mid-flight.
func Generate(cfg GeneratorConfig) []Record {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]Record, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		arrival := cfg.Now.AddDate(0, 0, i-cfg.Count).Add(time.Duration(8+rng.Intn(9)) * time.Hour)
		rec, err := generateOne(cfg, rng, arrival)
		if err != nil {
			// Construction only follows legal lifecycle edges, so this
			// indicates a bug rather than bad input.
			panic(fmt.Sprintf("corpus: generating ticket %d: %v", i, err))
		}
		records = append(records, rec)
	}
	return records
}

func generateOne(cfg GeneratorConfig, rng *rand.Rand, arrival time.Time) (Record, error) {
	var rec Record
	cursor := arrival
	machine := workflow.NewMachine(eventCollector{&rec.Events})
	machine.Now = func() time.Time { return cursor }

	t := draftTicket(rng, arrival)
	machine.RecordCreation(t, "ticketgen")

	step := func(to ticket.Status, userID string, details map[string]string) error {
		next, err := machine.Transition(t, to, userID, details)
		if err != nil {
			return err
		}
		t = next
		return nil
	}

	// Intake happens in one sitting: filled out within the hour, confirmed,
	// and filed with the one-call center the same morning.
	cursor = cursor.Add(time.Duration(20+rng.Intn(41)) * time.Minute)
	if err := step(ticket.StatusValidated, "ticketgen", map[string]string{"trigger": "validation"}); err != nil {
		return rec, err
	}
	cursor = cursor.Add(time.Duration(10+rng.Intn(31)) * time.Minute)
	if err := step(ticket.StatusReady, t.CallerName, map[string]string{"trigger": "request"}); err != nil {
		return rec, err
	}
	cursor = cursor.Add(time.Duration(30+rng.Intn(91)) * time.Minute)
	submitDetails := map[string]string{}
	if rng.Float64() < 0.7 {
		submitDetails["confirmation_number"] = fmt.Sprintf("TX811-%s-%04d", cursor.Format("20060102"), 1000+rng.Intn(9000))
	}
	if err := step(ticket.StatusSubmitted, t.CallerName, submitDetails); err != nil {
		return rec, err
	}

	// A few callers change their minds shortly after filing.
	if rng.Float64() < 0.06 {
		cancelAt := cursor.Add(time.Duration(4+rng.Intn(27)) * time.Hour)
		if !cancelAt.After(cfg.Now) {
			cursor = cancelAt
			if err := step(ticket.StatusCancelled, t.CallerName, map[string]string{
				"trigger": "request",
				"reason":  "caller withdrew the request",
			}); err != nil {
				return rec, err
			}
			rec.Ticket = t
			return rec, nil
		}
	}

	if err := replayResponses(cfg, rng, &rec, machine, &t, &cursor); err != nil {
		return rec, err
	}

	// Crews dig once the waiting period is over and everyone has answered.
	if t.Status == ticket.StatusResponsesIn && rng.Float64() < 0.85 {
		digAt := t.LawfulStartDate.Add(8 * time.Hour)
		if last := lastResponseTime(rec.Responses); last.After(digAt) {
			digAt = last.Add(2 * time.Hour)
		}
		digAt = digAt.Add(time.Duration(rng.Intn(13)) * time.Hour)
		if !digAt.After(cfg.Now) {
			cursor = digAt
			if err := step(ticket.StatusReadyToDig, t.CallerName, map[string]string{"trigger": "request"}); err != nil {
				return rec, err
			}
			doneAt := digAt.Add(time.Duration(24+rng.Intn(49)) * time.Hour)
			if !doneAt.After(cfg.Now) && rng.Float64() < 0.9 {
				cursor = doneAt
				if err := step(ticket.StatusCompleted, t.CallerName, map[string]string{"trigger": "request"}); err != nil {
					return rec, err
				}
			}
		}
	}

	// Tickets the sweeper would already have caught come out expired.
	if t.Status == ticket.StatusSubmitted || t.Status == ticket.StatusInProgress {
		if t.TicketExpiresDate != nil {
			sweepAt := t.TicketExpiresDate.Add(30 * time.Hour)
			if !sweepAt.After(cfg.Now) {
				cursor = sweepAt
				if err := step(ticket.StatusExpired, "sweeper", map[string]string{
					"reason":     "response window elapsed",
					"expired_on": t.TicketExpiresDate.Format("2006-01-02"),
				}); err != nil {
					return rec, err
				}
			}
		}
	}

	rec.Ticket = t
	return rec, nil
}

func draftTicket(rng *rand.Rand, arrival time.Time) ticket.Ticket {
	site := sites[rng.Intn(len(sites))]
	job := jobs[rng.Intn(len(jobs))]
	caller := callers[rng.Intn(len(callers))]

	t := ticket.Ticket{
		TicketID:        fmt.Sprintf("T%s-%08X", arrival.UTC().Format("060102"), rng.Uint32()),
		Status:          ticket.StatusDraft,
		County:          site.county,
		City:            site.city,
		Address:         site.address,
		WorkDescription: job.description,
		WorkType:        job.kind,
		CallerName:      caller.name,
		CallerPhone:     caller.phone,
		CompanyName:     caller.company,
		CreatedAt:       arrival,
		UpdatedAt:       arrival,
	}

	start := calendar.Normalize(arrival).AddDate(0, 0, 3+rng.Intn(7))
	t.WorkStartDate = &start
	if rng.Float64() < 0.6 {
		days := 1 + rng.Intn(5)
		t.WorkDurationDays = &days
	}
	if rng.Float64() < 0.5 {
		t.CrossStreet = site.cross
	}
	if rng.Float64() < 0.3 {
		t.MarkingInstructions = "Mark the full width of the rear easement"
	}
	if rng.Float64() < 0.25 {
		whiteLined := true
		t.WhiteLined = &whiteLined
	}

	roster := rng.Perm(len(memberPool))[:2+rng.Intn(3)]
	sort.Ints(roster)
	for _, idx := range roster {
		t.ExpectedMembers = append(t.ExpectedMembers, memberPool[idx])
	}

	// Stored gaps reflect what the intake engine saw at creation time.
	t.Gaps = validation.PrioritizeGaps(validation.AnalyzeFieldGaps(t.FieldMap(), arrival))
	return t
}

// replayResponses plays member answers through the same upsert and status
// logic the server uses, so generated tickets advance exactly as live ones
// would.
func replayResponses(cfg GeneratorConfig, rng *rand.Rand, rec *Record, machine *workflow.Machine, t *ticket.Ticket, cursor *time.Time) error {
	type planned struct {
		member ticket.MemberInfo
		at     time.Time
	}

	var plan []planned
	for _, m := range t.ExpectedMembers {
		if cfg.Scenario == "no-shows" && rng.Float64() < 0.3 {
			continue
		}
		latency := time.Duration((12 + rng.Float64()*36) * float64(time.Hour))
		if cfg.Scenario == "slow-members" && slowCodes[strings.ToUpper(m.MemberCode)] {
			latency = time.Duration((48 + rng.Float64()*96) * float64(time.Hour))
		}
		plan = append(plan, planned{member: m, at: t.SubmittedAt.Add(latency)})
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].at.Before(plan[j].at) })

	for _, p := range plan {
		if p.at.After(cfg.Now) {
			continue
		}
		*cursor = p.at

		incoming := ticket.MemberResponse{
			TicketID:    t.TicketID,
			MemberCode:  p.member.MemberCode,
			Status:      ticket.ResponseClear,
			SubmittedBy: "one-call relay",
		}
		if rng.Float64() < 0.15 {
			incoming.Status = ticket.ResponseNotClear
			incoming.Facilities = facilitiesNotes[rng.Intn(len(facilitiesNotes))]
		}

		var stored ticket.MemberResponse
		rec.Responses, stored, _ = response.Upsert(rec.Responses, incoming, p.at)
		rec.Events = append(rec.Events, audit.Event{
			EventID:   uuid.NewString(),
			TicketID:  t.TicketID,
			EventType: audit.ResponseRecorded,
			Timestamp: p.at.UnixMicro(),
			UserID:    stored.SubmittedBy,
			Details: map[string]string{
				"member_code": stored.MemberCode,
				"status":      string(stored.Status),
			},
		})

		next := response.CalculateStatus(t.ExpectedMembers, rec.Responses)
		if next != t.Status && workflow.CanTransition(t.Status, next) {
			moved, err := machine.Transition(*t, next, stored.SubmittedBy, map[string]string{
				"trigger":     "member_response",
				"member_code": stored.MemberCode,
			})
			if err != nil {
				return err
			}
			*t = moved
		} else {
			t.UpdatedAt = p.at
		}
	}

	if len(rec.Responses) > 0 {
		var dates []time.Time
		for _, r := range rec.Responses {
			dates = append(dates, r.UpdatedAt)
		}
		t.MarkingValidUntil = compliance.MarkingValidity(dates)
	}
	return nil
}

func lastResponseTime(responses []ticket.MemberResponse) time.Time {
	var last time.Time
	for _, r := range responses {
		if r.UpdatedAt.After(last) {
			last = r.UpdatedAt
		}
	}
	return last
}

// Save writes the corpus through the production store so the output
// directory is a drop-in data path for the server.
func Save(outDir string, records []Record) error {
	st, err := store.NewFileStore(outDir)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", outDir, err)
	}

	for _, rec := range records {
		if err := st.SaveTicket(rec.Ticket); err != nil {
			return fmt.Errorf("saving ticket %s: %w", rec.Ticket.TicketID, err)
		}
		if len(rec.Responses) > 0 {
			if err := st.SaveResponses(rec.Ticket.TicketID, rec.Responses); err != nil {
				return fmt.Errorf("saving responses for %s: %w", rec.Ticket.TicketID, err)
			}
		}
		for _, e := range rec.Events {
			if err := st.AppendAuditEvent(e); err != nil {
				return fmt.Errorf("appending audit event for %s: %w", rec.Ticket.TicketID, err)
			}
		}
	}
	return nil
}
