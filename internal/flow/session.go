package flow

import (
	"sync"
	"time"
)

// Step is the session's position in the question sequence.
type Step string

const (
	StepLanguage Step = "language"
	StepName     Step = "name"
	StepMethod   Step = "contact_method"
	StepPhone    Step = "phone"
	StepNote     Step = "note"
)

// Session holds one in-progress conversation. Fields are populated
// progressively and only ever mutated by the machine.
type Session struct {
	ID        int64
	Username  string
	Step      Step
	Language  string
	Name      string
	Method    string
	Phone     string
	Note      string
	UpdatedAt time.Time
}

// Store keeps one session per active conversation.
//
// Sessions are ephemeral: implementations are not required to survive a
// process restart, and the in-memory store does not.
type Store interface {
	Get(id int64) (*Session, bool)
	Put(s *Session)
	Delete(id int64)
	Len() int
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
}

// NewMemoryStore returns an in-memory Store. A positive ttl expires sessions
// that have not been touched for that long; zero keeps them indefinitely.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

func (m *memoryStore) Get(id int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.expired(sess, time.Now()) {
		delete(m.sessions, id)
		return nil, false
	}
	return sess, true
}

func (m *memoryStore) Put(s *Session) {
	if s == nil {
		return
	}
	s.UpdatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.sweepLocked()
}

func (m *memoryStore) Delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryStore) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}

// sweepLocked drops expired sessions opportunistically on writes.
func (m *memoryStore) sweepLocked() {
	if m.ttl <= 0 {
		return
	}
	now := time.Now()
	for id, sess := range m.sessions {
		if m.expired(sess, now) {
			delete(m.sessions, id)
		}
	}
}
