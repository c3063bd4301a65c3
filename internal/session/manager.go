package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default pomodoro phase lengths, overridable per session via the API.
const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

// Session bundles the state owned by one user session. Actions are
// serialized through ActionMu: one outbound completion call is in flight per
// session at a time. The timer and deck carry their own locking because the
// UI polls them while an action may be blocked on the provider.
type Session struct {
	ID        string
	CreatedAt time.Time

	Store *Store
	Deck  *ReviewDeck

	// ActionMu serializes HandleAction calls for this session.
	ActionMu sync.Mutex

	timerMu sync.Mutex
	timer   *Pomodoro

	seenMu   sync.Mutex
	lastSeen time.Time
}

// Timer runs fn with the pomodoro timer locked.
func (s *Session) Timer(fn func(*Pomodoro)) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	fn(s.timer)
}

func (s *Session) touch(now time.Time) {
	s.seenMu.Lock()
	s.lastSeen = now
	s.seenMu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

// Manager is the registry of live sessions. Sessions never share state; the
// registry only maps IDs to them and drops the ones nobody has touched for
// the TTL.
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	ttl          time.Duration
	historyLimit int
}

// NewManager builds a registry. ttl bounds session idleness; historyLimit is
// forwarded to each session's store (0 = unbounded history).
func NewManager(ttl time.Duration, historyLimit int) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		ttl:          ttl,
		historyLimit: historyLimit,
	}
}

// Create registers a fresh session with empty state.
func (m *Manager) Create() *Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Store:     NewStore(m.historyLimit),
		Deck:      NewReviewDeck(),
		timer:     NewPomodoro(DefaultFocusMinutes, DefaultBreakMinutes),
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.touch(time.Now().UTC())
	return sess, true
}

// Delete discards a session and everything it owns.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle past the TTL and reports how many went.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.idleSince()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps at the given interval until stop is closed.
func (m *Manager) Janitor(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			m.Sweep(now.UTC())
		}
	}
}
