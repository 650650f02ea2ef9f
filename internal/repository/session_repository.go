package repository

import (
	"sync"

	"github.com/vhoang/QuizForge/internal/model"
)

// SessionRepository holds live quiz sessions. Sessions are in-memory only and
// die with the process; nothing is persisted.
type SessionRepository interface {
	Save(session *model.QuizSession)
	FindByID(id string) (*model.QuizSession, bool)
	Delete(id string)
	All() []*model.QuizSession
}

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.QuizSession
}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{sessions: make(map[string]*model.QuizSession)}
}

func (r *sessionRepository) Save(session *model.QuizSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

func (r *sessionRepository) FindByID(id string) (*model.QuizSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *sessionRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *sessionRepository) All() []*model.QuizSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*model.QuizSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}
