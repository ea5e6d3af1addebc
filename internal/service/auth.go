package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/faithfast/faithfast-go/internal/crypto"
	"github.com/faithfast/faithfast-go/internal/model"
	"github.com/faithfast/faithfast-go/internal/repository"
)

var (
	ErrMissingFields        = errors.New("please fill all required fields")
	ErrInvalidEmail         = errors.New("please provide a valid email address")
	ErrPasswordTooLong      = errors.New("password must be at most 72 bytes")
	ErrLoginFieldsRequired  = errors.New("please provide email and password")
	ErrCodeRequired         = errors.New("verification code is required")
	ErrEmailTaken           = errors.New("email already exists")
	ErrPersistence          = errors.New("failed to create user")
	ErrNotRegistered        = errors.New("user is not registered")
	ErrAccountInactive      = errors.New("your account is not active, please contact the admin")
	ErrInvalidCredentials   = errors.New("incorrect password")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
)

// UserStore is the credential store the auth flows run against.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	MarkVerified(ctx context.Context, id int64) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// AuthService handles registration, login, email verification and token refresh.
type AuthService struct {
	users        UserStore
	hasher       crypto.PasswordHasher
	tokens       *crypto.TokenIssuer
	verification *VerificationService
	now          func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher crypto.PasswordHasher, tokens *crypto.TokenIssuer, verification *VerificationService) *AuthService {
	return &AuthService{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		now:          time.Now,
	}
}

// Register creates an unverified account after its verification email has been sent.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) > crypto.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.verification.Request(ctx, name, email); err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
		Status:       model.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return model.TokenPair{}, ErrLoginFieldsRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenPair{}, ErrNotRegistered
		}
		return model.TokenPair{}, err
	}

	if user.Status != model.StatusActive {
		slog.WarnContext(ctx, "login refused", "user_id", user.ID, "status", user.Status)
		return model.TokenPair{}, ErrAccountInactive
	}

	if !s.hasher.Compare(req.Password, user.PasswordHash) {
		slog.WarnContext(ctx, "login failed", "user_id", user.ID, "reason", "password mismatch")
		return model.TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issuing refresh token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return model.TokenPair{}, fmt.Errorf("recording login: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyEmail redeems a verification code.
func (s *AuthService) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) (*model.User, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	return s.verification.Redeem(ctx, code)
}

// Refresh mints a new access token from a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenRequired
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}
	if user.Status != model.StatusActive {
		return "", ErrAccountInactive
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing access token: %w", err)
	}
	return access, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// validEmail accepts a bare addr-spec. Display names and angle brackets are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
