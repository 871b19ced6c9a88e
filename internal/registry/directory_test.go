package registry

import (
	"os"
	"path/filepath"
	"testing"

	"locate-mcp/internal/ticket"
)

const sampleDirectory = `members:
  - code: ATMOS
    name: Atmos Energy Mid-Tex
    phone: 800-460-3030
    email: locates@atmos.example
  - code: ONCOR
    name: Oncor Electric Delivery
    active: false
  - code: ""
    name: Entry With No Code
  - code: ATMOS
    name: Duplicate Of Atmos
`

func writeDirectory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "members.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing directory fixture: %v", err)
	}
	return path
}

func TestLoadDirectory(t *testing.T) {
	d, err := LoadDirectory(writeDirectory(t, sampleDirectory))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("directory has %d members, want 2 (no-code and duplicate entries skipped)", d.Len())
	}

	m, ok := d.Lookup("atmos")
	if !ok {
		t.Fatal("ATMOS should resolve case-insensitively")
	}
	if m.MemberName != "Atmos Energy Mid-Tex" {
		t.Errorf("duplicate entry overwrote the first: %q", m.MemberName)
	}
	if m.ContactPhone != "800-460-3030" || m.ContactEmail != "locates@atmos.example" {
		t.Errorf("contact data = %q / %q", m.ContactPhone, m.ContactEmail)
	}
	if !m.IsActive {
		t.Error("active should default to true when omitted")
	}

	oncor, _ := d.Lookup("ONCOR")
	if oncor.IsActive {
		t.Error("explicit active: false should stick")
	}
}

func TestLoadDirectory_Errors(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should error")
	}
	if _, err := LoadDirectory(writeDirectory(t, "members: [not: valid: yaml")); err == nil {
		t.Error("malformed yaml should error")
	}
}

func TestDirectory_Resolve(t *testing.T) {
	d := NewDirectory([]ticket.MemberInfo{{
		MemberCode:   "ATMOS",
		MemberName:   "Atmos Energy Mid-Tex",
		ContactPhone: "800-460-3030",
		IsActive:     true,
	}})

	tests := []struct {
		name      string
		dir       *Directory
		code      string
		given     string
		wantName  string
		wantPhone string
	}{
		{
			name: "caller name wins", dir: d,
			code: "ATMOS", given: "Atmos (per caller)",
			wantName: "Atmos (per caller)", wantPhone: "800-460-3030",
		},
		{
			name: "directory fills missing name", dir: d,
			code: "atmos", given: "",
			wantName: "Atmos Energy Mid-Tex", wantPhone: "800-460-3030",
		},
		{
			name: "unknown code gets placeholder", dir: d,
			code: "txu", given: "",
			wantName: "Utility TXU",
		},
		{
			name: "nil directory still resolves", dir: nil,
			code: "oncor", given: "",
			wantName: "Utility ONCOR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dir.Resolve(tt.code, tt.given)
			if got.MemberName != tt.wantName {
				t.Errorf("name = %q, want %q", got.MemberName, tt.wantName)
			}
			if got.ContactPhone != tt.wantPhone {
				t.Errorf("phone = %q, want %q", got.ContactPhone, tt.wantPhone)
			}
			if got.MemberCode != tt.code {
				t.Errorf("code = %q, want caller casing %q", got.MemberCode, tt.code)
			}
		})
	}
}

func TestDirectory_Members(t *testing.T) {
	d := NewDirectory([]ticket.MemberInfo{
		{MemberCode: "ONCOR", MemberName: "Oncor"},
		{MemberCode: "ATMOS", MemberName: "Atmos"},
	})
	members := d.Members()
	if len(members) != 2 || members[0].MemberCode != "ONCOR" || members[1].MemberCode != "ATMOS" {
		t.Errorf("Members() lost file order: %+v", members)
	}

	var nilDir *Directory
	if nilDir.Members() != nil || nilDir.Len() != 0 {
		t.Error("nil directory should behave as empty")
	}
}
