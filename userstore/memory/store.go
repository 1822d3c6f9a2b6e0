// Package memory is an in-process [reporterAuth.UserStore].
package memory

import (
	"context"
	"strings"
	"sync"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// Store keeps users in a map guarded by one mutex. UpdateUser holds the mutex
// while mutate runs, so updates to the same record are serialized.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*reporterAuth.UserRecord
	byEmail map[string]string
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*reporterAuth.UserRecord),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clone(u *reporterAuth.UserRecord) *reporterAuth.UserRecord {
	out := *u
	if u.PreviousPasswordHashes != nil {
		out.PreviousPasswordHashes = append([]string(nil), u.PreviousPasswordHashes...)
	}
	return &out
}

func (s *Store) CreateUser(_ context.Context, user *reporterAuth.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return reporterAuth.ErrDuplicateEmail
	}
	s.byID[user.UserID] = clone(user)
	s.byEmail[key] = user.UserID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*reporterAuth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, reporterAuth.ErrUserNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*reporterAuth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, reporterAuth.ErrUserNotFound
	}
	return clone(u), nil
}

func (s *Store) ListUsers(context.Context) ([]*reporterAuth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*reporterAuth.UserRecord, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, clone(u))
	}
	return out, nil
}

// UpdateUser applies mutate to a copy and swaps it in only when mutate succeeds
// and the resulting email is still unique.
func (s *Store) UpdateUser(_ context.Context, id string, mutate func(*reporterAuth.UserRecord) error) (*reporterAuth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, reporterAuth.ErrUserNotFound
	}

	next := clone(current)
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UserID = id

	oldKey, newKey := emailKey(current.Email), emailKey(next.Email)
	if oldKey != newKey {
		if _, taken := s.byEmail[newKey]; taken {
			return nil, reporterAuth.ErrDuplicateEmail
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = id
	}
	s.byID[id] = next
	return clone(next), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) (*reporterAuth.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, reporterAuth.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, emailKey(u.Email))
	return u, nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
