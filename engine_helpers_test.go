package reporterAuth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*UserRecord

	getByEmailCalls int
	getByIDCalls    int
	updateCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*UserRecord)}
}

func copyUser(u *UserRecord) *UserRecord {
	out := *u
	out.PreviousPasswordHashes = append([]string(nil), u.PreviousPasswordHashes...)
	return &out
}

func (s *fakeStore) emailTakenLocked(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateUser(_ context.Context, user *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(user.Email, "") {
		return ErrDuplicateEmail
	}
	s.users[user.UserID] = copyUser(user)
	return nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getByEmailCalls++
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getByIDCalls++
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *fakeStore) ListUsers(context.Context) ([]*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, id string, mutate func(*UserRecord) error) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	next := copyUser(u)
	if err := mutate(next); err != nil {
		return nil, err
	}
	if s.emailTakenLocked(next.Email, id) {
		return nil, ErrDuplicateEmail
	}
	s.users[id] = next
	return copyUser(next), nil
}

func (s *fakeStore) DeleteUser(_ context.Context, id string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	delete(s.users, id)
	return u, nil
}

func (s *fakeStore) byEmail(t *testing.T, email string) *UserRecord {
	t.Helper()
	u, err := s.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("lookup %s: %v", email, err)
	}
	return u
}

type captureMailer struct {
	mu    sync.Mutex
	sent  []OTPMessage
	err   error
	delay time.Duration
}

func (m *captureMailer) SendOTP(ctx context.Context, msg OTPMessage) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last(t *testing.T, to string, purpose OTPPurpose) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to && m.sent[i].Purpose == purpose {
			return m.sent[i].Code
		}
	}
	t.Fatalf("no %s code sent to %s", purpose, to)
	return ""
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var errSMTPDown = errors.New("smtp: connection refused")

const testPassword = "Abcd123!"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Mail.DispatchWait = time.Second
	cfg.Mail.SendTimeout = 2 * time.Second
	return cfg
}

func newTestEngine(t *testing.T, mutate ...func(*Config)) (*Engine, *fakeStore, *captureMailer) {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	store := newFakeStore()
	mailer := &captureMailer{}
	e, err := New().WithConfig(cfg).WithUserStore(store).WithMailer(mailer).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, store, mailer
}

func registerVerified(t *testing.T, e *Engine, m *captureMailer, username, email string) string {
	t.Helper()
	ctx := context.Background()
	res, err := e.Register(ctx, RegisterRequest{Username: username, Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if err := e.VerifyEmail(ctx, email, m.last(t, email, OTPPurposeVerification)); err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return res.UserID
}

func loginSession(t *testing.T, e *Engine, m *captureMailer, email, pw string) *Session {
	t.Helper()
	ctx := context.Background()
	if _, err := e.Login(ctx, LoginRequest{Email: email, Password: pw}); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	s, err := e.VerifyLoginOTP(ctx, email, m.last(t, email, OTPPurposeLogin))
	if err != nil {
		t.Fatalf("verify login otp %s: %v", email, err)
	}
	return s
}
