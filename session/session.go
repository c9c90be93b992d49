// Package session keeps track of conversations by id.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xhd2015/clau/types"
)

type Session struct {
	ID           types.SessionID        `json:"id"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Clone returns a copy that does not share the metadata map
func (s *Session) Clone() *Session {
	clone := *s
	if s.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// ConfigOptions returns the options to run a query in this session
func (s *Session) ConfigOptions() []types.ConfigOption {
	var opts []types.ConfigOption
	if s.SystemPrompt != "" {
		opts = append(opts, types.WithSystemPrompt(s.SystemPrompt))
	}
	return opts
}

type Option func(s *Session)

func WithSystemPrompt(prompt string) Option {
	return func(s *Session) {
		s.SystemPrompt = prompt
	}
}

func WithMetadata(key string, value interface{}) Option {
	return func(s *Session) {
		if s.Metadata == nil {
			s.Metadata = make(map[string]interface{})
		}
		s.Metadata[key] = value
	}
}

// WithID uses id instead of a generated one
func WithID(id types.SessionID) Option {
	return func(s *Session) {
		s.ID = id
	}
}

// NewID generates a random session id
func NewID() types.SessionID {
	return types.SessionID(uuid.New().String())
}

// New creates a session that is not registered anywhere
func New(opts ...Option) *Session {
	s := &Session{
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ID == "" {
		s.ID = NewID()
	}
	return s
}

// Manager is an in-memory registry of sessions, safe for concurrent use.
// Sessions are copied in and out, callers never share state with it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[types.SessionID]*Session),
	}
}

// Create creates and registers a new session
func (m *Manager) Create(opts ...Option) *Session {
	s := New(opts...)
	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	m.mu.Unlock()
	return s
}

// Record registers id if it is not known yet and returns the
// registered session. opts only apply to a newly created session.
func (m *Manager) Record(id types.SessionID, opts ...Option) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s.Clone()
	}
	s := New(append(opts, WithID(id))...)
	m.sessions[id] = s.Clone()
	return s
}

// Get returns the session, or false if it is not registered
func (m *Manager) Get(id types.SessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Resume is like Get but fails with *types.SessionNotFoundError
func (m *Manager) Resume(id types.SessionID) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, &types.SessionNotFoundError{ID: id}
	}
	return s, nil
}

// List returns the ids of all sessions, sorted
func (m *Manager) List() []types.SessionID {
	m.mu.RLock()
	ids := make([]types.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Delete removes the session, reports whether it existed
func (m *Manager) Delete(id types.SessionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}
