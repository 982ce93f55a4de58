package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/storage"
)

type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.RefreshSession
	log      *zap.SugaredLogger
}

func NewSessionRepository(log *zap.SugaredLogger) *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]models.RefreshSession),
		log:      log,
	}
}

func (m *InMemorySessionRepository) CreateSession(ctx context.Context, session models.RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.RefreshToken] = session
	m.log.Debugw("session created", "subjectID", session.SubjectID, "family", session.Family)

	return nil
}

func (m *InMemorySessionRepository) GetSession(ctx context.Context, refreshToken string) (*models.RefreshSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[refreshToken]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}

	return &session, nil
}

func (m *InMemorySessionRepository) DeleteSession(ctx context.Context, refreshToken string) (*models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[refreshToken]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	delete(m.sessions, refreshToken)

	return &session, nil
}

func (m *InMemorySessionRepository) DeleteFamilySessions(ctx context.Context, family string) ([]models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []models.RefreshSession
	for token, session := range m.sessions {
		if session.Family == family {
			deleted = append(deleted, session)
			delete(m.sessions, token)
		}
	}
	m.log.Debugw("family sessions deleted", "family", family, "count", len(deleted))

	return deleted, nil
}

func (m *InMemorySessionRepository) DeleteAllUserSessions(ctx context.Context, subjectID string) ([]models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []models.RefreshSession
	for token, session := range m.sessions {
		if session.SubjectID == subjectID {
			deleted = append(deleted, session)
			delete(m.sessions, token)
		}
	}
	m.log.Debugw("user sessions deleted", "subjectID", subjectID, "count", len(deleted))

	return deleted, nil
}

func (m *InMemorySessionRepository) DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, session := range m.sessions {
		if session.IssuedAt.Before(cutoff) {
			delete(m.sessions, token)
			removed++
		}
	}

	return removed, nil
}
