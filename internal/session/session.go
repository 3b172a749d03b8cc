// Package session holds per-client search state: the criteria being edited
// and the most recent AI search result.
package session

import (
	"errors"
	"sync"
	"time"

	"propfinder/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = errors.New("session not found")

// DefaultIdleTTL is how long an untouched session is kept
const DefaultIdleTTL = 24 * time.Hour

// Session is a snapshot of one client's search state
type Session struct {
	ID        string
	Criteria  model.Criteria
	Result    model.SearchResult
	Searching bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// seq is the number of the latest search started in this session
	seq uint64
}

// Seq returns the number of the latest search started in this session
func (s Session) Seq() uint64 {
	return s.seq
}

// Manager owns all sessions
type Manager struct {
	// configError is shown by every session while searching is impossible
	configError string
	idleTTL     time.Duration
	now         func() time.Time
	log         zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. A non-empty configError disables
// searching and is reported by every session until the process restarts.
func NewManager(configError string, log zerolog.Logger) *Manager {
	return &Manager{
		configError: configError,
		idleTTL:     DefaultIdleTTL,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With().Str("component", "sessions").Logger(),
		sessions:    make(map[string]*Session),
	}
}

// SearchEnabled reports whether sessions may run searches
func (m *Manager) SearchEnabled() bool {
	return m.configError == ""
}

func (m *Manager) emptyResult() model.SearchResult {
	return model.SearchResult{
		Listings:        []model.Listing{},
		GroundingChunks: []model.GroundingChunk{},
		Error:           m.configError,
	}
}

// Create starts a session with default criteria
func (m *Manager) Create() Session {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Criteria:  model.DefaultCriteria(),
		Result:    m.emptyResult(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Debug().Str("session_id", s.ID).Msg("Session created")
	return s.snapshot()
}

// sweepLocked drops sessions idle for longer than idleTTL. A session with
// a search in flight is kept. Callers hold m.mu.
func (m *Manager) sweepLocked(now time.Time) {
	if m.idleTTL <= 0 {
		return
	}
	expired := 0
	for id, s := range m.sessions {
		if !s.Searching && now.Sub(s.UpdatedAt) > m.idleTTL {
			delete(m.sessions, id)
			expired++
		}
	}
	if expired > 0 {
		m.log.Debug().Int("expired", expired).Msg("Swept idle sessions")
	}
}

// Get returns a snapshot of a session
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Delete forgets a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Update applies fn to the session criteria. The criteria stay untouched when fn fails.
func (m *Manager) Update(id string, fn func(model.Criteria) (model.Criteria, error)) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	next, err := fn(s.Criteria)
	if err != nil {
		return Session{}, err
	}
	s.Criteria = next
	s.UpdatedAt = m.now()
	return s.snapshot(), nil
}

// BeginSearch registers a new search and returns its sequence number
// together with the criteria it must run with. The previous result is
// dropped so a stale answer is never shown while the new one is pending.
func (m *Manager) BeginSearch(id string) (uint64, model.Criteria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return 0, model.Criteria{}, ErrSessionNotFound
	}
	s.seq++
	s.Searching = true
	s.Result = m.emptyResult()
	s.UpdatedAt = m.now()
	return s.seq, s.Criteria.Normalize(), nil
}

// FinishSearch stores the result of search seq. Results of superseded
// searches are discarded and false is returned.
func (m *Manager) FinishSearch(id string, seq uint64, result model.SearchResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	if seq != s.seq {
		m.log.Debug().
			Str("session_id", id).
			Uint64("seq", seq).
			Uint64("latest", s.seq).
			Msg("Discarding stale search result")
		return false, nil
	}

	if result.Listings == nil {
		result.Listings = []model.Listing{}
	}
	if result.GroundingChunks == nil {
		result.GroundingChunks = []model.GroundingChunk{}
	}
	s.Result = result
	s.Searching = false
	s.UpdatedAt = m.now()
	return true, nil
}

// Clear resets criteria to defaults and drops the search result.
// A pending search is invalidated.
func (m *Manager) Clear(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.seq++
	s.Searching = false
	s.Criteria = model.DefaultCriteria()
	s.Result = m.emptyResult()
	s.UpdatedAt = m.now()
	return s.snapshot(), nil
}

// Len returns the number of sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (s *Session) snapshot() Session {
	out := *s
	out.Criteria = s.Criteria.Normalize()
	out.Result.Listings = append([]model.Listing{}, s.Result.Listings...)
	out.Result.GroundingChunks = append([]model.GroundingChunk{}, s.Result.GroundingChunks...)
	return out
}
