package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faithfast/faithfast-go/internal/crypto"
	"github.com/faithfast/faithfast-go/internal/mailer"
	"github.com/faithfast/faithfast-go/internal/model"
	"github.com/faithfast/faithfast-go/internal/repository"
)

// fakeStore is an in-memory UserStore.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User

	CreateErr error
	GetErr    error

	LastLoginCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*model.User)}
}

func (s *fakeStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) MarkVerified(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.IsVerified {
		return false, nil
	}
	u.IsVerified = true
	return true, nil
}

func (s *fakeStore) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	s.LastLoginCalls++
	u.LastLogin = &at
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *fakeStore) setStatus(id int64, status model.UserStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Status = status
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu      sync.Mutex
	Sent    []mailer.Message
	SendErr error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

var errBoom = errors.New("boom")

type testEnv struct {
	store  *fakeStore
	mailer *fakeMailer
	tokens *crypto.TokenIssuer
	auth   *AuthService
	verify *VerificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := crypto.NewTokenIssuer(crypto.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		VerifySecret:  "verify-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	store := newFakeStore()
	m := &fakeMailer{}
	verify := NewVerificationService(store, tokens, m, "https://shop.example/")

	return &testEnv{
		store:  store,
		mailer: m,
		tokens: tokens,
		auth:   NewAuthService(store, crypto.BcryptHasher{Cost: 4}, tokens, verify),
		verify: verify,
	}
}

// verificationCode pulls the token out of the last verification email.
func (e *testEnv) verificationCode(t *testing.T) string {
	t.Helper()
	e.mailer.mu.Lock()
	defer e.mailer.mu.Unlock()
	require.NotEmpty(t, e.mailer.Sent)

	body := e.mailer.Sent[len(e.mailer.Sent)-1].HTML
	_, rest, found := strings.Cut(body, "verify-email?token=")
	require.True(t, found, "no verification link in %q", body)
	code, _, _ := strings.Cut(rest, `"`)
	return code
}
