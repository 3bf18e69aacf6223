package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	sessionMaxAge   = 60 * time.Minute
	cleanupInterval = 10 * time.Minute
	historyLimit    = 20
)

// chatTurn is one exchange in a session's conversation history.
type chatTurn struct {
	Role    string
	Content string
}

// ChatSession tracks one WebSocket connection's conversation state.
type ChatSession struct {
	ID           string
	createdAt    time.Time
	lastActivity time.Time
	history      []chatTurn
	mu           sync.Mutex
}

// Touch updates the session's last activity timestamp.
func (s *ChatSession) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// Remember appends a question/answer pair to the conversation history,
// keeping only the most recent turns.
func (s *ChatSession) Remember(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		chatTurn{Role: "user", Content: question},
		chatTurn{Role: "assistant", Content: answer},
	)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}

// History returns a copy of the conversation so far.
func (s *ChatSession) History() []chatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// SessionManager owns the chat sessions for all live WebSocket
// connections and evicts stale ones in the background.
type SessionManager struct {
	sessions map[string]*ChatSession
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

// NewSessionManager starts a session manager with background cleanup.
func NewSessionManager() *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*ChatSession),
		stopCh:   make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Create registers a new session with a fresh ID.
func (m *SessionManager) Create() *ChatSession {
	now := time.Now()
	session := &ChatSession{
		ID:           uuid.NewString(),
		createdAt:    now,
		lastActivity: now,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session with the given ID, or nil.
func (m *SessionManager) Get(id string) *ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Remove drops a session when its connection closes.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Active returns the number of live sessions.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupStale removes sessions idle longer than maxAge and returns
// how many were dropped.
func (m *SessionManager) CleanupStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		session.mu.Lock()
		stale := session.lastActivity.Before(cutoff)
		session.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Close stops the background cleanup loop.
func (m *SessionManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupStale(sessionMaxAge)
		case <-m.stopCh:
			return
		}
	}
}
