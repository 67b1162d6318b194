// Package session issues session identities and tracks which sessions are
// live. Conversation history persistence lives in HistoryStore.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live conversation identity.
type Session struct {
	ID      string    `json:"session_id"`
	Created time.Time `json:"created_at"`
}

// NewToken mints a session token: millisecond timestamp plus a random suffix.
// The timestamp prefix keeps tokens roughly sortable by creation time.
func NewToken() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// Manager tracks live sessions in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]Session)}
}

// New registers a session under the given id, minting a token when id is
// blank, and returns it.
func (m *Manager) New(id string) Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewToken()
	}
	session := Session{ID: id, Created: time.Now()}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return session
}

// Get resolves a live session by id.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return Session{}, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

// Remove drops a session. Removing an unknown id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, strings.TrimSpace(id))
	m.mu.Unlock()
}

// ActiveIDs returns live session ids in sorted order.
func (m *Manager) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
