package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Log provides thread-safe, chronological storage for ticket audit events.
type Log struct {
	mu     sync.RWMutex
	events []Event
}

// NewLog creates a new empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Append adds events to the log, ensuring chronological order and
// deduplication.
func (l *Log) Append(events ...Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := make(map[string]bool, len(l.events))
	for _, e := range l.events {
		existing[e.identity()] = true
	}

	newCount := 0
	for _, e := range events {
		if !existing[e.identity()] {
			existing[e.identity()] = true
			l.events = append(l.events, e)
			newCount++
		}
	}

	if newCount == 0 {
		return
	}

	sort.Slice(l.events, func(i, j int) bool {
		if l.events[i].Timestamp != l.events[j].Timestamp {
			return l.events[i].Timestamp < l.events[j].Timestamp
		}
		return l.events[i].EventType < l.events[j].EventType
	})
}

// Record adds a single event; it exists to satisfy the workflow sink
// contract.
func (l *Log) Record(e Event) error {
	l.Append(e)
	return nil
}

// All returns a copy of every event in chronological order.
func (l *Log) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ForTicket returns the full event history for a single ticket.
func (l *Log) ForTicket(ticketID string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var result []Event
	for _, e := range l.events {
		if e.TicketID == ticketID {
			result = append(result, e)
		}
	}
	return result
}

// Count returns the number of events in the log.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// LatestTimestamp returns the time of the most recent event, or the zero time
// for an empty log.
func (l *Log) LatestTimestamp() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return time.Time{}
	}
	return time.UnixMicro(l.events[len(l.events)-1].Timestamp)
}

// Load reads events from a JSONL file into the log. A missing file is not an
// error; unreadable lines are skipped with a warning so one corrupt record
// cannot take the whole trail down.
func (l *Log) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in audit log")
			continue
		}
		events = append(events, e)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading audit log: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(events)).Msg("Loaded audit events")
	l.Append(events...)
	return nil
}

// Save persists the full log to a JSONL file via a temp-file rename.
func (l *Log) Save(path string) error {
	l.mu.RLock()
	events := make([]Event, len(l.events))
	copy(events, l.events)
	l.mu.RUnlock()

	if len(events) == 0 {
		return nil
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp audit file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, e := range events {
		if err := encoder.Encode(e); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode audit event: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush audit file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close audit file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename audit file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(events)).Msg("Audit events saved")
	return nil
}

// EncodeLine renders one event as a JSONL line, newline included. Callers
// that append to an open file use this instead of rewriting via Save.
func EncodeLine(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit event: %w", err)
	}
	return append(b, '\n'), nil
}
