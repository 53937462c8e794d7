package session

import (
	"errors"
	"sync"

	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns the in-memory sessions. Sessions are isolated from each
// other; the map itself is the only shared state and is guarded here.
type Manager struct {
	mu             sync.RWMutex
	sessions       map[string]*Session
	tabSwitchLimit int
}

func NewManager(tabSwitchLimit int) *Manager {
	return &Manager{
		sessions:       make(map[string]*Session),
		tabSwitchLimit: tabSwitchLimit,
	}
}

// Create starts a session over the given poll snapshot and registers it.
func (m *Manager) Create(poll *model.Poll, identity policy.Identity, submit SubmitFunc) *Session {
	cfg := Config{
		Timer:          poll.TimerDuration(),
		TabSwitchLimit: m.tabSwitchLimit,
	}
	s := New(poll, identity, cfg, submit)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops a session from the registry. Terminal sessions are removed
// by the submission service once their state has been reported.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
