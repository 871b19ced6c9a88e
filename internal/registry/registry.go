// Package registry maintains a ticket's expected-member list. Utility members
// accrete onto a ticket the first time they appear, usually when an
// unrecognized member code arrives in a response.
package registry

import (
	"errors"
	"strings"

	"locate-mcp/internal/ticket"
)

var (
	// ErrEmptyMemberCode rejects a blank member code.
	ErrEmptyMemberCode = errors.New("member code must not be empty")
	// ErrEmptyMemberName rejects a blank member name.
	ErrEmptyMemberName = errors.New("member name must not be empty")
)

// EnsureMember adds a member to the ticket's expected list if no entry with
// the same code exists, comparing codes case-insensitively. An existing entry
// is never touched: its name and contact data survive no matter what the new
// call carries. Returns the (possibly updated) ticket and whether an entry
// was added.
//
// The input ticket is never modified.
func EnsureMember(t ticket.Ticket, code, name string) (ticket.Ticket, bool, error) {
	return Ensure(t, ticket.MemberInfo{
		MemberCode: strings.TrimSpace(code),
		MemberName: strings.TrimSpace(name),
		IsActive:   true,
	})
}

// Ensure is EnsureMember for a fully populated entry, e.g. one enriched from
// a member directory.
func Ensure(t ticket.Ticket, info ticket.MemberInfo) (ticket.Ticket, bool, error) {
	code := strings.TrimSpace(info.MemberCode)
	if code == "" {
		return t, false, ErrEmptyMemberCode
	}
	if strings.TrimSpace(info.MemberName) == "" {
		return t, false, ErrEmptyMemberName
	}

	if _, found := t.FindMember(code); found {
		return t, false, nil
	}

	info.MemberCode = code
	out := t.Clone()
	out.ExpectedMembers = append(out.ExpectedMembers, info)
	return out, true, nil
}
