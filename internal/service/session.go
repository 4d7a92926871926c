package service

import (
	"context"
	"sync"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/util"
	"quiz-rag/internal/vectorindex"

	"go.uber.org/zap"
)

// ModelProvider builds the model clients a session works with.
type ModelProvider interface {
	Embedder(namespace, credential string) (domain.EmbeddingService, error)
	Generator(credential string) (domain.QuizGenerationService, error)
}

// purger is implemented by embedders that keep per-session cache entries.
type purger interface {
	Purge(ctx context.Context) error
}

// Session holds the state of one learner working through one resource.
// Every pipeline call takes the session lock, so a session serves one request
// at a time.
type Session struct {
	ID string

	mu         sync.Mutex
	embedder   domain.EmbeddingService
	generator  domain.QuizGenerationService
	index      *vectorindex.Index
	resource   string
	resourceID string
	quiz       *domain.Quiz
	selections []domain.Selection
	lastSeen   time.Time
}

// NewSession creates a session around already built model clients.
func NewSession(id string, embedder domain.EmbeddingService, generator domain.QuizGenerationService) *Session {
	return &Session{
		ID:        id,
		embedder:  embedder,
		generator: generator,
		lastSeen:  time.Now(),
	}
}

// SessionSnapshot is a consistent copy of a session's visible state.
type SessionSnapshot struct {
	ID           string
	ResourceName string
	ResourceID   string
	ChunkCount   int
	Quiz         *domain.Quiz
	Selections   []domain.Selection
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:           s.ID,
		ResourceName: s.resource,
		ResourceID:   s.resourceID,
		Quiz:         s.quiz,
		Selections:   append([]domain.Selection(nil), s.selections...),
	}
	if s.index != nil {
		snap.ChunkCount = s.index.Size()
	}
	return snap
}

// SessionStore keeps sessions in memory. Sessions idle for longer than the
// TTL are dropped when the store is next accessed.
type SessionStore struct {
	provider ModelProvider
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store. A non-positive ttl keeps sessions
// until they are deleted.
func NewSessionStore(provider ModelProvider, ttl time.Duration) *SessionStore {
	return &SessionStore{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session. credential is an optional provider API key that
// overrides the server's own for this session only.
func (st *SessionStore) Create(ctx context.Context, credential string) (*Session, error) {
	st.evictExpired(ctx)

	id := util.NewULID()
	embedder, err := st.provider.Embedder(id, credential)
	if err != nil {
		return nil, err
	}
	generator, err := st.provider.Generator(credential)
	if err != nil {
		return nil, err
	}

	sess := NewSession(id, embedder, generator)
	sess.lastSeen = st.now()

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	logger.Get().Info("Session created",
		zap.String("sessionID", id),
		zap.Bool("ownCredential", credential != ""),
	)
	return sess, nil
}

// Get returns a live session and marks it as used.
func (st *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	st.evictExpired(ctx)

	st.mu.Lock()
	sess, ok := st.sessions[id]
	if ok {
		sess.lastSeen = st.now()
	}
	st.mu.Unlock()

	if !ok {
		return nil, domain.NewNotFoundError("session " + id + " not found")
	}
	return sess, nil
}

// Delete ends a session and purges the embeddings it cached.
func (st *SessionStore) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return domain.NewNotFoundError("session " + id + " not found")
	}
	st.release(ctx, sess)
	return nil
}

// Len returns the number of sessions currently held.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) evictExpired(ctx context.Context) {
	if st.ttl <= 0 {
		return
	}
	cutoff := st.now().Add(-st.ttl)

	var expired []*Session
	st.mu.Lock()
	for id, sess := range st.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		logger.Get().Info("Session expired", zap.String("sessionID", sess.ID))
		st.release(ctx, sess)
	}
}

func (st *SessionStore) release(ctx context.Context, sess *Session) {
	p, ok := sess.embedder.(purger)
	if !ok {
		return
	}
	if err := p.Purge(ctx); err != nil {
		logger.Get().Warn("Failed to purge session embeddings", zap.Error(err), zap.String("sessionID", sess.ID))
	}
}
