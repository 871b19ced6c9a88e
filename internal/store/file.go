package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/ticket"
)

const (
	dirPerms = 0o750

	ticketsDir   = "tickets"
	responsesDir = "responses"
	backupsDir   = "backups"
	auditFile    = "audit.jsonl"
)

// FileStore keeps everything under one data directory as plain JSON:
// tickets/<id>.json, responses/<id>.json, a rolling previous version of each
// ticket under backups/, and an append-only audit.jsonl.
type FileStore struct {
	root string

	mu sync.RWMutex
}

// NewFileStore opens (creating if needed) a file store rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	for _, sub := range []string{ticketsDir, responsesDir, backupsDir} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), dirPerms); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	log.Debug().Str("root", dataDir).Msg("File store opened")
	return &FileStore{root: dataDir}, nil
}

// SaveTicket writes a ticket, keeping the previous version under backups/.
func (s *FileStore) SaveTicket(t ticket.Ticket) error {
	if err := checkID(t.TicketID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.ticketPath(t.TicketID)
	if prev, err := os.ReadFile(path); err == nil {
		backup := filepath.Join(s.root, backupsDir, t.TicketID+".json")
		if err := atomic.WriteFile(backup, bytes.NewReader(prev)); err != nil {
			return fmt.Errorf("backing up ticket %s: %w", t.TicketID, err)
		}
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ticket %s: %w", t.TicketID, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// LoadTicket reads one ticket by ID.
func (s *FileStore) LoadTicket(id string) (ticket.Ticket, error) {
	if err := checkID(id); err != nil {
		return ticket.Ticket{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.ticketPath(id))
	if os.IsNotExist(err) {
		return ticket.Ticket{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("reading ticket %s: %w", id, err)
	}

	var t ticket.Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return ticket.Ticket{}, fmt.Errorf("decoding ticket %s: %w", id, err)
	}
	return t, nil
}

// ListTickets scans the ticket directory. Files that fail to decode are
// skipped with a warning so one corrupt record cannot hide the rest.
func (s *FileStore) ListTickets(f Filter) ([]ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.root, ticketsDir))
	if err != nil {
		return nil, fmt.Errorf("reading ticket directory: %w", err)
	}

	var out []ticket.Ticket
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, ticketsDir, name))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable ticket file")
			continue
		}
		var t ticket.Ticket
		if err := json.Unmarshal(data, &t); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping corrupt ticket file")
			continue
		}
		if matches(t, f) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].TicketID < out[j].TicketID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// SaveResponses replaces the stored response set for a ticket.
func (s *FileStore) SaveResponses(ticketID string, responses []ticket.MemberResponse) error {
	if err := checkID(ticketID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding responses for %s: %w", ticketID, err)
	}
	path := filepath.Join(s.root, responsesDir, ticketID+".json")
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing responses for %s: %w", ticketID, err)
	}
	return nil
}

// LoadResponses reads a ticket's response set.
func (s *FileStore) LoadResponses(ticketID string) ([]ticket.MemberResponse, error) {
	if err := checkID(ticketID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.root, responsesDir, ticketID+".json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading responses for %s: %w", ticketID, err)
	}

	var responses []ticket.MemberResponse
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("decoding responses for %s: %w", ticketID, err)
	}
	return responses, nil
}

// AppendAuditEvent appends one event to audit.jsonl.
func (s *FileStore) AppendAuditEvent(e audit.Event) error {
	line, err := audit.EncodeLine(e)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.auditPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

// AuditEvents reads the audit trail, filtered to one ticket unless the ID is
// empty.
func (s *FileStore) AuditEvents(ticketID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := audit.NewLog()
	if err := trail.Load(s.auditPath()); err != nil {
		return nil, err
	}
	if ticketID == "" {
		return trail.All(), nil
	}
	return trail.ForTicket(ticketID), nil
}

// Record lets the store double as the state machine's audit sink.
func (s *FileStore) Record(e audit.Event) error {
	return s.AppendAuditEvent(e)
}

func (s *FileStore) ticketPath(id string) string {
	return filepath.Join(s.root, ticketsDir, id+".json")
}

func (s *FileStore) auditPath() string {
	return filepath.Join(s.root, auditFile)
}

func matches(t ticket.Ticket, f Filter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.County != "" && !strings.EqualFold(t.County, f.County) {
		return false
	}
	if f.SessionID != "" && t.SessionID != f.SessionID {
		return false
	}
	return true
}

// checkID rejects IDs that are empty or could escape the data directory.
func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("ticket ID must not be empty")
	}
	if strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return fmt.Errorf("invalid ticket ID %q", id)
	}
	return nil
}
