package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket is a Texas 811-style locate request. It is treated as an immutable
// value: every operation that changes a ticket returns a modified copy and
// leaves its input untouched.
type Ticket struct {
	TicketID  string `json:"ticket_id"`
	SessionID string `json:"session_id,omitempty"`
	Status    Status `json:"status"`

	// Dig site location.
	County      string   `json:"county,omitempty"`
	City        string   `json:"city,omitempty"`
	Address     string   `json:"address,omitempty"`
	CrossStreet string   `json:"cross_street,omitempty"`
	GPSLat      *float64 `json:"gps_lat,omitempty"`
	GPSLng      *float64 `json:"gps_lng,omitempty"`

	// Work being performed.
	WorkDescription  string     `json:"work_description,omitempty"`
	WorkType         string     `json:"work_type,omitempty"`
	WorkStartDate    *time.Time `json:"work_start_date,omitempty"`
	WorkDurationDays *int       `json:"work_duration_days,omitempty"`

	// People.
	CallerName       string `json:"caller_name,omitempty"`
	CallerPhone      string `json:"caller_phone,omitempty"`
	CallerEmail      string `json:"caller_email,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	ExcavatorCompany string `json:"excavator_company,omitempty"`
	ExcavatorPhone   string `json:"excavator_phone,omitempty"`
	ExcavatorAddress string `json:"excavator_address,omitempty"`
	ContactName      string `json:"contact_name,omitempty"`
	ContactPhone     string `json:"contact_phone,omitempty"`

	// Site specifics.
	MarkingInstructions string   `json:"marking_instructions,omitempty"`
	Remarks             string   `json:"remarks,omitempty"`
	WhiteLined          *bool    `json:"white_lined,omitempty"`
	Explosives          *bool    `json:"explosives,omitempty"`
	Boring              *bool    `json:"boring,omitempty"`
	DepthFeet           *float64 `json:"depth_feet,omitempty"`

	// Validation state as of the last engine run.
	Gaps []ValidationGap `json:"gaps,omitempty"`

	// Utility members expected to respond on this ticket.
	ExpectedMembers []MemberInfo `json:"expected_members,omitempty"`

	// Compliance dates, stamped when the ticket is marked submitted.
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	LawfulStartDate   *time.Time `json:"lawful_start_date,omitempty"`
	TicketExpiresDate *time.Time `json:"ticket_expires_date,omitempty"`
	MarkingValidUntil *time.Time `json:"marking_valid_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidationGap is one missing or suspect field, with the conversational
// prompt an assistant should relay to the caller.
type ValidationGap struct {
	FieldName string   `json:"field_name"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Prompt    string   `json:"prompt"`
}

// MemberInfo identifies a utility member on a ticket's expected-response
// list. Codes are compared case-insensitively; the stored code keeps the
// casing it first arrived with.
type MemberInfo struct {
	MemberCode   string `json:"member_code"`
	MemberName   string `json:"member_name"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// MemberResponse is one utility member's answer on a ticket. A ticket holds
// at most one response per member; re-submissions update the existing record
// in place, keeping its ResponseID and CreatedAt.
type MemberResponse struct {
	ResponseID  string         `json:"response_id"`
	TicketID    string         `json:"ticket_id"`
	MemberCode  string         `json:"member_code"`
	Status      ResponseStatus `json:"status"`
	Facilities  string         `json:"facilities,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ResponseSummary aggregates the response picture on a ticket. TotalReceived
// can exceed TotalExpected when unexpected members respond.
type ResponseSummary struct {
	TotalExpected int `json:"total_expected"`
	TotalReceived int `json:"total_received"`
	ClearCount    int `json:"clear_count"`
	NotClearCount int `json:"not_clear_count"`
}

// NewTicketID builds a date-prefixed ticket number, sortable by creation day.
func NewTicketID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("T%s-%s", now.UTC().Format("060102"), suffix)
}

// NewResponseID returns a fresh response identifier.
func NewResponseID() string {
	return uuid.NewString()
}

// Clone returns a deep copy. Pointer-valued fields are duplicated so the
// copy shares no mutable state with the original.
func (t Ticket) Clone() Ticket {
	c := t
	c.GPSLat = cloneFloat(t.GPSLat)
	c.GPSLng = cloneFloat(t.GPSLng)
	c.WorkStartDate = cloneTime(t.WorkStartDate)
	c.WorkDurationDays = cloneInt(t.WorkDurationDays)
	c.WhiteLined = cloneBool(t.WhiteLined)
	c.Explosives = cloneBool(t.Explosives)
	c.Boring = cloneBool(t.Boring)
	c.DepthFeet = cloneFloat(t.DepthFeet)
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.LawfulStartDate = cloneTime(t.LawfulStartDate)
	c.TicketExpiresDate = cloneTime(t.TicketExpiresDate)
	c.MarkingValidUntil = cloneTime(t.MarkingValidUntil)
	if t.Gaps != nil {
		c.Gaps = make([]ValidationGap, len(t.Gaps))
		copy(c.Gaps, t.Gaps)
	}
	if t.ExpectedMembers != nil {
		c.ExpectedMembers = make([]MemberInfo, len(t.ExpectedMembers))
		copy(c.ExpectedMembers, t.ExpectedMembers)
	}
	return c
}

// FindMember looks up an expected member by code, case-insensitively.
func (t Ticket) FindMember(code string) (MemberInfo, bool) {
	for _, m := range t.ExpectedMembers {
		if strings.EqualFold(m.MemberCode, code) {
			return m, true
		}
	}
	return MemberInfo{}, false
}

// HasRequiredGap reports whether the last validation run left any blocking
// gap on the ticket.
func (t Ticket) HasRequiredGap() bool {
	for _, g := range t.Gaps {
		if g.Severity == SeverityRequired {
			return true
		}
	}
	return false
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
