package store

import (
	"context"
	"sync"
	"time"

	"triage-interview/pkg"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory Store. It backs the test suite and
// lets the server run without a DATABASE_URL; state does not survive a
// restart.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*pkg.Session
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*pkg.Session)}
}

// Get retrieves a copy of the session by id.
func (m *Memory) Get(_ context.Context, id string) (*pkg.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess), nil
}

// Create stores a new session and assigns a fresh UUID.
func (m *Memory) Create(_ context.Context, sess *pkg.Session) (*pkg.Session, error) {
	now := time.Now().UTC()
	stored := cloneSession(sess)
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Questions == nil {
		stored.Questions = []string{}
	}
	if stored.Answers == nil {
		stored.Answers = []pkg.QA{}
	}

	m.mu.Lock()
	m.sessions[stored.ID] = stored
	m.mu.Unlock()

	return cloneSession(stored), nil
}

// AppendAnswer appends one QA pair under the store lock.
func (m *Memory) AppendAnswer(_ context.Context, id string, qa pkg.QA) (*pkg.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.Answers = append(sess.Answers, qa)
	sess.UpdatedAt = time.Now().UTC()
	return cloneSession(sess), nil
}

// AppendQuestion appends one question under the store lock, conditional on
// the expected list length.
func (m *Memory) AppendQuestion(_ context.Context, id string, question string, expectedLen int) (*pkg.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if len(sess.Questions) != expectedLen {
		return nil, ErrConflict
	}
	sess.Questions = append(sess.Questions, question)
	sess.UpdatedAt = time.Now().UTC()
	return cloneSession(sess), nil
}

// SetReport writes the report once; later writes return ErrReportExists.
func (m *Memory) SetReport(_ context.Context, id string, report *pkg.Report) (*pkg.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Report != nil {
		return nil, ErrReportExists
	}
	r := *report
	sess.Report = &r
	sess.UpdatedAt = time.Now().UTC()
	return cloneSession(sess), nil
}

// cloneSession deep-copies a session, keeping empty slices empty rather than
// nil so the memory store serializes the same JSON as the Postgres store.
func cloneSession(sess *pkg.Session) *pkg.Session {
	out := *sess
	if sess.Questions != nil {
		out.Questions = make([]string, len(sess.Questions))
		copy(out.Questions, sess.Questions)
	}
	if sess.Answers != nil {
		out.Answers = make([]pkg.QA, len(sess.Answers))
		copy(out.Answers, sess.Answers)
	}
	if sess.Report != nil {
		r := *sess.Report
		out.Report = &r
	}
	return &out
}
