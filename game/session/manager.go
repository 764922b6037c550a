package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
)

const (
	DefaultMaxSessions   = 100
	DefaultGameOverGrace = 5 * time.Minute
	DefaultSweepInterval = 30 * time.Minute
	DefaultIdleTimeout   = 60 * time.Minute

	// Generated ids avoid characters that are easy to misread (0/o, 1/l/i).
	idAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	idLength   = 6
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrInvalidSessionID     = service.ErrInvalidSessionID
	ErrTooManySessions      = service.ErrTooManySessions
)

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	mu          sync.RWMutex
	maxSessions int
	grace       time.Duration
	now         func() time.Time
	afterFunc   func(time.Duration, func())
	engineOpts  []engine.Option
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.maxSessions = n }
}

// WithGameOverGrace sets how long a finished game stays around.
func WithGameOverGrace(d time.Duration) Option {
	return func(m *Manager) { m.grace = d }
}

// WithClock replaces time.Now for activity bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithAfterFunc replaces time.AfterFunc for delayed deletions.
func WithAfterFunc(fn func(time.Duration, func())) Option {
	return func(m *Manager) { m.afterFunc = fn }
}

// WithEngineOptions is passed to every engine the manager creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*service.Session),
		maxSessions: DefaultMaxSessions,
		grace:       DefaultGameOverGrace,
		now:         time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new game. An empty id gets a generated one.
func (m *Manager) Create(id string, rules *engine.RuleSet, dict engine.Dictionary, players int) (*service.Session, error) {
	if id != "" && !service.ValidSessionID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}
	if id == "" {
		id = m.generateSessionID()
	} else if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewGame(rules, dict, players, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	session := service.NewSession(id, eng, rules, m.now())
	m.sessions[strings.ToLower(id)] = session
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// ScheduleDeletion removes a finished session after the grace period. Only
// the first call for a session schedules anything.
func (m *Manager) ScheduleDeletion(id string) bool {
	session, err := m.Get(id)
	if err != nil || !session.MarkForDelete() {
		return false
	}

	m.afterFunc(m.grace, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		key := strings.ToLower(id)
		// the id may have been reused by a newer session
		if m.sessions[key] == session {
			delete(m.sessions, key)
			log.Info().Str("session", session.ID).Msg("finished session removed")
		}
	})
	log.Debug().Str("session", session.ID).Dur("grace", m.grace).Msg("session deletion scheduled")
	return true
}

// CleanupExpiredSessions removes sessions with no activity within maxIdle
func (m *Manager) CleanupExpiredSessions(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	removed := 0

	for key, session := range m.sessions {
		if session.LastActivity().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done. Both durations
// must be positive.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 || maxIdle <= 0 {
		return fmt.Errorf("sweep interval and idle timeout must be positive, got %v and %v", interval, maxIdle)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := m.CleanupExpiredSessions(maxIdle); removed > 0 {
				log.Info().Int("removed", removed).Int("active", m.Count()).Msg("idle sessions cleaned up")
			}
		}
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns an unused id. Must hold m.mu.
func (m *Manager) generateSessionID() string {
	buf := make([]byte, idLength)
	for {
		for i := range buf {
			buf[i] = idAlphabet[frand.Intn(len(idAlphabet))]
		}
		if _, exists := m.sessions[string(buf)]; !exists {
			return string(buf)
		}
	}
}
