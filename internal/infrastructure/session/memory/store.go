package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

// Store keeps sessions in process memory. Sessions idle for longer than ttl
// are evicted on the next access.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *domain.Session
	lastSeen time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store; ttl <= 0 disables expiry.
func New(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	session := domain.NewSession(uuid.NewString(), now.UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(now)
	s.sessions[session.ID] = &entry{session: session, lastSeen: now}
	return session, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %q", id))
	}
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %q expired", id))
	}
	e.lastSeen = now
	return e.session, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id %q", id))
	}
	e.session.Clear()
	delete(s.sessions, id)
	return nil
}

// Len reports live sessions, expired ones included until they are evicted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) evictExpiredLocked(now time.Time) {
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}
