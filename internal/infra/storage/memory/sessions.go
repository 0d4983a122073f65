package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "staynest/internal/domain/auth"
	domainuser "staynest/internal/domain/user"
)

// SessionStore keeps bearer sessions in memory.
type SessionStore struct {
	mu        sync.RWMutex
	tokens    map[domainauth.Token]*domainauth.Session
	userIndex map[domainuser.ID]map[domainauth.Token]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens:    make(map[domainauth.Token]*domainauth.Session),
		userIndex: make(map[domainuser.ID]map[domainauth.Token]struct{}),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = cloneSession(session)
	if _, ok := s.userIndex[session.UserID]; !ok {
		s.userIndex[session.UserID] = make(map[domainauth.Token]struct{})
	}
	s.userIndex[session.UserID][session.Token] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	if index, ok := s.userIndex[session.UserID]; ok {
		delete(index, token)
		if len(index) == 0 {
			delete(s.userIndex, session.UserID)
		}
	}
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.userIndex[userID]
	if !ok {
		return nil
	}
	for token := range index {
		delete(s.tokens, token)
	}
	delete(s.userIndex, userID)
	return nil
}

func cloneSession(s *domainauth.Session) *domainauth.Session {
	if s == nil {
		return nil
	}
	copySession := *s
	return &copySession
}

// UserDirectory is a direct, autocommitting view over the store's users for
// code that sits outside unit-of-work boundaries (session auth).
type UserDirectory struct {
	Store *Store
}

func (d UserDirectory) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	s := d.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (d UserDirectory) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	s := d.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return cloneUser(s.users[id]), nil
	}
	return nil, domainuser.ErrNotFound
}

func (d UserDirectory) Save(ctx context.Context, user *domainuser.User) error {
	s := d.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.usersByEmail[user.Email]; ok && existing != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	s.users[user.ID] = cloneUser(user)
	s.usersByEmail[user.Email] = user.ID
	return nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
var _ domainuser.Repository = UserDirectory{}
