package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned when a session id matches neither a live
// session nor a stored attempt.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions of this server instance. A session not in
// memory (server restart, renderer reload against another instance) is
// restored from attempt storage with its remaining time recomputed from
// startedAt.
type Manager struct {
	store   DocumentStore
	storage AttemptStorage
	budget  time.Duration
	perDraw int
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session Manager.
func NewManager(store DocumentStore, storage AttemptStorage, budget time.Duration, perDraw int, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		storage:  storage,
		budget:   budget,
		perDraw:  perDraw,
		log:      log.With().Str("component", "session_manager").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Draw creates a fresh session and draws an exam into it. The session is
// registered only when the draw succeeds, so a failed draw leaves nothing
// behind.
func (m *Manager) Draw(ctx context.Context, req model.DrawExamRequest) (*Snapshot, error) {
	sess := newSession(uuid.New().String(), m.store, m.storage, m.budget, m.perDraw, m.log)

	snap, err := sess.Draw(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return snap, nil
}

// Get returns the live session for an id, restoring it from attempt storage
// when the server does not have it in memory.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	attempt, err := m.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrSessionNotFound
	}

	sess := newSession(id, m.store, m.storage, m.budget, m.perDraw, m.log)

	m.mu.Lock()
	// A concurrent Get may have restored the same session; keep the first,
	// so the attempt is resumed (and possibly auto-submitted) exactly once.
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.resume(ctx, attempt)
	m.log.Info().Str("session_id", id).Msg("Session restored from attempt storage")
	return sess, nil
}
