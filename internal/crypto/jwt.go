package crypto

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "faithfast"
	tokenAudience = "faithfast-api"

	// VerificationTTL bounds how long an email verification link stays valid.
	VerificationTTL = time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingKey   = errors.New("token signing secret is empty")
)

// TokenKind separates the three token families so one can never stand in for another.
type TokenKind string

const (
	KindAccess       TokenKind = "access"
	KindRefresh      TokenKind = "refresh"
	KindVerification TokenKind = "verify_email"
)

// Claims represents the JWT claims for every token the service issues.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64     `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Kind   TokenKind `json:"kind"`
}

// TokenConfig holds the secrets and lifetimes for a TokenIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	VerifySecret  string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and validates access, refresh and email verification tokens.
type TokenIssuer struct {
	secrets map[TokenKind][]byte
	ttls    map[TokenKind]time.Duration
	now     func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.VerifySecret == "" {
		return nil, ErrMissingKey
	}
	return &TokenIssuer{
		secrets: map[TokenKind][]byte{
			KindAccess:       []byte(cfg.AccessSecret),
			KindRefresh:      []byte(cfg.RefreshSecret),
			KindVerification: []byte(cfg.VerifySecret),
		},
		ttls: map[TokenKind]time.Duration{
			KindAccess:       cfg.AccessTTL,
			KindRefresh:      cfg.RefreshTTL,
			KindVerification: VerificationTTL,
		},
		now: time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads the time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// TTL returns the lifetime of tokens of the given kind.
func (i *TokenIssuer) TTL(kind TokenKind) time.Duration {
	return i.ttls[kind]
}

func (i *TokenIssuer) IssueAccess(userID int64) (string, error) {
	return i.sign(KindAccess, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
		UserID:           userID,
	})
}

func (i *TokenIssuer) IssueRefresh(userID int64) (string, error) {
	return i.sign(KindRefresh, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
		UserID:           userID,
	})
}

// IssueVerification signs a short-lived token proving control of email.
func (i *TokenIssuer) IssueVerification(email string) (string, error) {
	return i.sign(KindVerification, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
		Email:            email,
	})
}

func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(KindAccess, token)
}

func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(KindRefresh, token)
}

func (i *TokenIssuer) ParseVerification(token string) (*Claims, error) {
	claims, err := i.parse(KindVerification, token)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) sign(kind TokenKind, claims Claims) (string, error) {
	now := i.now()
	claims.Kind = kind
	claims.Issuer = tokenIssuer
	claims.Audience = jwt.ClaimStrings{tokenAudience}
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttls[kind]))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secrets[kind])
}

func (i *TokenIssuer) parse(kind TokenKind, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secrets[kind], nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
