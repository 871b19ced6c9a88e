package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"locate-mcp/internal/ticket"
)

// Directory is an optional lookup table of known utility members, loaded from
// a YAML file at startup. It enriches expected-member entries with real names
// and contact data; without it, tickets still work on bare member codes.
//
// A nil *Directory is valid and resolves every code to a placeholder.
type Directory struct {
	entries map[string]ticket.MemberInfo
	order   []string
}

type directoryFile struct {
	Members []directoryEntry `yaml:"members"`
}

type directoryEntry struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Phone  string `yaml:"phone"`
	Email  string `yaml:"email"`
	Active *bool  `yaml:"active"`
}

// LoadDirectory reads a member directory from a YAML file. Entries without a
// code are skipped with a warning; duplicate codes keep the first entry.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading member directory: %w", err)
	}

	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing member directory %s: %w", path, err)
	}

	members := make([]ticket.MemberInfo, 0, len(file.Members))
	for i, e := range file.Members {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			log.Warn().Str("path", path).Int("entry", i).Msg("Member directory entry has no code, skipping")
			continue
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		members = append(members, ticket.MemberInfo{
			MemberCode:   code,
			MemberName:   strings.TrimSpace(e.Name),
			ContactPhone: strings.TrimSpace(e.Phone),
			ContactEmail: strings.TrimSpace(e.Email),
			IsActive:     active,
		})
	}

	d := NewDirectory(members)
	log.Info().Str("path", path).Int("members", d.Len()).Msg("Member directory loaded")
	return d, nil
}

// NewDirectory builds a directory from an in-memory member list.
func NewDirectory(members []ticket.MemberInfo) *Directory {
	d := &Directory{entries: make(map[string]ticket.MemberInfo, len(members))}
	for _, m := range members {
		key := strings.ToLower(strings.TrimSpace(m.MemberCode))
		if key == "" {
			continue
		}
		if _, dup := d.entries[key]; dup {
			log.Warn().Str("code", m.MemberCode).Msg("Duplicate member code in directory, keeping first")
			continue
		}
		d.entries[key] = m
		d.order = append(d.order, key)
	}
	return d
}

// Lookup finds a directory entry by code, case-insensitively.
func (d *Directory) Lookup(code string) (ticket.MemberInfo, bool) {
	if d == nil {
		return ticket.MemberInfo{}, false
	}
	m, ok := d.entries[strings.ToLower(strings.TrimSpace(code))]
	return m, ok
}

// Resolve builds the expected-member entry for a code, merging what the
// caller supplied with what the directory knows. A caller-supplied name wins
// over the directory; with neither, the member gets a placeholder name so the
// registry contract is still satisfied.
func (d *Directory) Resolve(code, name string) ticket.MemberInfo {
	code = strings.TrimSpace(code)
	info := ticket.MemberInfo{
		MemberCode: code,
		MemberName: strings.TrimSpace(name),
		IsActive:   true,
	}

	if known, ok := d.Lookup(code); ok {
		if info.MemberName == "" {
			info.MemberName = known.MemberName
		}
		info.ContactPhone = known.ContactPhone
		info.ContactEmail = known.ContactEmail
		info.IsActive = known.IsActive
	}
	if info.MemberName == "" && code != "" {
		info.MemberName = "Utility " + strings.ToUpper(code)
	}
	return info
}

// Members returns the directory entries in file order.
func (d *Directory) Members() []ticket.MemberInfo {
	if d == nil {
		return nil
	}
	out := make([]ticket.MemberInfo, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.entries[key])
	}
	return out
}

// Len reports how many members the directory knows.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}
