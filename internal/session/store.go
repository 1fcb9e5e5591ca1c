// Package session manages conversation sessions: identity, transcript,
// and the scheduling state, behind a Store interface with in-memory and
// Redis implementations plus an optional Postgres transcript archive.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dangtuan21/hana-salon/internal/booking"
)

// ErrSessionNotFound is returned for lookups of unknown or expired
// sessions. It is the only session error callers are expected to branch
// on.
var ErrSessionNotFound = errors.New("session: not found")

// DefaultIdleTimeout is how long a session may sit untouched before the
// sweeper removes it.
const DefaultIdleTimeout = 24 * time.Hour

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one customer conversation: transcript plus the scheduling
// state the booking engine operates on.
type Session struct {
	ID string `json:"sessionId"`
	booking.SessionState

	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// New returns a fresh session with a generated ID. An empty id means
// generate one.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Session{
		ID: id,
		SessionState: booking.SessionState{
			Booking: booking.NewBookingState(),
		},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
}

// Record appends a transcript entry and touches the session.
func (s *Session) Record(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	s.Touch()
}

// Store is the session persistence surface. Implementations must be safe
// for concurrent use; Get returns ErrSessionNotFound for unknown IDs.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get loads a session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// Update persists a modified session and refreshes its idle deadline.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}

// Sweeper is implemented by stores that need explicit idle cleanup. The
// Redis store relies on key TTLs instead and does not implement it.
type Sweeper interface {
	// Sweep removes sessions idle past the cutoff and reports how many.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// StatsProvider is implemented by stores that can enumerate live
// sessions cheaply. The stats endpoint degrades gracefully when the
// configured store cannot.
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes the live session population.
type Stats struct {
	ActiveSessions int       `json:"activeSessions"`
	OldestActivity time.Time `json:"oldestActivity"`
}
