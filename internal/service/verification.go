package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/faithfast/faithfast-go/internal/crypto"
	"github.com/faithfast/faithfast-go/internal/mailer"
	"github.com/faithfast/faithfast-go/internal/model"
	"github.com/faithfast/faithfast-go/internal/repository"
)

var (
	ErrEmailDelivery   = errors.New("failed to send verification email")
	ErrInvalidCode     = errors.New("invalid or expired verification code")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("email is already verified")
)

// VerificationService issues email verification links and redeems them.
type VerificationService struct {
	users       UserStore
	tokens      *crypto.TokenIssuer
	mailer      mailer.Mailer
	frontendURL string
}

// NewVerificationService creates a new VerificationService. Links point at
// frontendURL + "/verify-email".
func NewVerificationService(users UserStore, tokens *crypto.TokenIssuer, m mailer.Mailer, frontendURL string) *VerificationService {
	return &VerificationService{
		users:       users,
		tokens:      tokens,
		mailer:      m,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Request mails a one-hour verification link for email.
func (s *VerificationService) Request(ctx context.Context, name, email string) error {
	token, err := s.tokens.IssueVerification(email)
	if err != nil {
		return fmt.Errorf("issuing verification token: %w", err)
	}

	body, err := mailer.RenderVerifyEmail(name, s.verifyURL(token))
	if err != nil {
		return fmt.Errorf("rendering verification email: %w", err)
	}

	err = s.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: mailer.VerifyEmailSubject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	slog.InfoContext(ctx, "verification email sent")
	return nil
}

// Redeem validates a verification token and marks its account verified.
func (s *VerificationService) Redeem(ctx context.Context, code string) (*model.User, error) {
	claims, err := s.tokens.ParseVerification(code)
	if err != nil {
		return nil, ErrInvalidCode
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	changed, err := s.users.MarkVerified(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A concurrent redemption got there first.
		return nil, ErrAlreadyVerified
	}

	user.IsVerified = true
	slog.InfoContext(ctx, "email verified", "user_id", user.ID)
	return user, nil
}

func (s *VerificationService) verifyURL(token string) string {
	return s.frontendURL + "/verify-email?" + url.Values{"token": {token}}.Encode()
}
