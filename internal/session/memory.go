package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// MemoryStore keeps sessions in process memory. The default store for
// development and tests; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *logging.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger.Component("session.memory"),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session: duplicate session %s", s.ID)
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep removes sessions whose last activity is older than the cutoff.
func (m *MemoryStore) Sweep(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("swept idle sessions", "removed", removed)
	}
	return removed, nil
}

func (m *MemoryStore) Stats(context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{ActiveSessions: len(m.sessions)}
	for _, s := range m.sessions {
		if st.OldestActivity.IsZero() || s.LastActivity.Before(st.OldestActivity) {
			st.OldestActivity = s.LastActivity
		}
	}
	return st, nil
}

// cloneSession deep-copies through JSON so callers never share mutable
// state with the store. Sessions are small; the cost does not matter at
// conversation cadence.
func cloneSession(s *Session) *Session {
	data, err := json.Marshal(s)
	if err != nil {
		// Session contains only JSON-encodable fields.
		panic(fmt.Sprintf("session: clone failed: %v", err))
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("session: clone failed: %v", err))
	}
	return &out
}

// RunSweeper sweeps the store on the given interval until the context is
// cancelled. Started from main as a background goroutine.
func RunSweeper(ctx context.Context, store Sweeper, interval, idleTimeout time.Duration, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.Sweep(ctx, idleTimeout); err != nil {
				logger.Error("session sweep failed", "error", err)
			}
		}
	}
}
