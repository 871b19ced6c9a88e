// Package session tracks intake conversations. A session ties a sequence of
// tool calls to the ticket being drafted, so a conversational client can ask
// one question at a time without re-sending the whole ticket.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session is one intake conversation.
type Session struct {
	SessionID    string    `json:"session_id"`
	TicketID     string    `json:"ticket_id,omitempty"`
	LastPrompt   string    `json:"last_prompt,omitempty"`
	PromptCount  int       `json:"prompt_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// New starts a fresh session.
func New(now time.Time) Session {
	return Session{
		SessionID:    uuid.NewString(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Cache stores sessions under a sliding TTL: any Get or Put pushes the
// expiry out again, so a session dies only after going quiet.
type Cache interface {
	// Get fetches a session. The second return is false for unknown or
	// expired IDs.
	Get(ctx context.Context, id string) (Session, bool, error)
	// Put stores a session, resetting its TTL.
	Put(ctx context.Context, s Session) error
	// Delete drops a session. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error
}

// Open picks the session backend. With a Redis URL it tries Redis and falls
// back to the in-process cache when the server is unreachable; without one it
// goes straight to memory. Sessions are disposable, so a degraded backend is
// never fatal.
func Open(ctx context.Context, redisURL string, ttl time.Duration) Cache {
	if redisURL == "" {
		log.Debug().Msg("No Redis URL configured, using in-memory sessions")
		return NewMemoryCache(ttl)
	}

	cache, err := newRedisCache(ctx, redisURL, ttl)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory sessions")
		return NewMemoryCache(ttl)
	}
	log.Info().Msg("Session cache backed by Redis")
	return cache
}
