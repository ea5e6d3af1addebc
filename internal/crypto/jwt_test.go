package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		VerifySecret:  "verify-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}
	return issuer
}

func TestNewTokenIssuerMissingSecret(t *testing.T) {
	_, err := NewTokenIssuer(TokenConfig{AccessSecret: "a", RefreshSecret: "r"})
	if err != ErrMissingKey {
		t.Errorf("NewTokenIssuer() error = %v, want %v", err, ErrMissingKey)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess() unexpected error: %v", err)
	}

	claims, err := issuer.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess() unexpected error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("ParseAccess() UserID = %d, want %d", claims.UserID, 42)
	}
	if claims.Subject != "42" {
		t.Errorf("ParseAccess() Subject = %q, want %q", claims.Subject, "42")
	}
	if claims.ID == "" {
		t.Error("ParseAccess() expected a token id")
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	issuer := newTestIssuer(t)

	access, err := issuer.IssueAccess(7)
	if err != nil {
		t.Fatalf("IssueAccess() unexpected error: %v", err)
	}
	refresh, err := issuer.IssueRefresh(7)
	if err != nil {
		t.Fatalf("IssueRefresh() unexpected error: %v", err)
	}

	ac, err := issuer.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess() unexpected error: %v", err)
	}
	rc, err := issuer.ParseRefresh(refresh)
	if err != nil {
		t.Fatalf("ParseRefresh() unexpected error: %v", err)
	}
	if !rc.ExpiresAt.After(ac.ExpiresAt.Time) {
		t.Errorf("refresh expiry %v should be after access expiry %v", rc.ExpiresAt, ac.ExpiresAt)
	}
}

func TestVerificationToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueVerification("a@x.com")
	if err != nil {
		t.Fatalf("IssueVerification() unexpected error: %v", err)
	}

	claims, err := issuer.ParseVerification(token)
	if err != nil {
		t.Fatalf("ParseVerification() unexpected error: %v", err)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("ParseVerification() Email = %q, want %q", claims.Email, "a@x.com")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != VerificationTTL {
		t.Errorf("verification lifetime = %v, want %v", got, VerificationTTL)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  "shared",
		RefreshSecret: "shared",
		VerifySecret:  "shared",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}

	access, _ := issuer.IssueAccess(1)
	refresh, _ := issuer.IssueRefresh(1)
	verify, _ := issuer.IssueVerification("a@x.com")

	if _, err := issuer.ParseRefresh(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
	if _, err := issuer.ParseAccess(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := issuer.ParseAccess(verify); err == nil {
		t.Error("verification token accepted as access token")
	}
	if _, err := issuer.ParseVerification(access); err == nil {
		t.Error("access token accepted as verification token")
	}
}

func TestParseInvalidToken(t *testing.T) {
	issuer := newTestIssuer(t)

	if _, err := issuer.ParseAccess("not-a-valid-token"); err != ErrInvalidToken {
		t.Errorf("ParseAccess() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestParseWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t)
	token, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess() unexpected error: %v", err)
	}

	other, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  "other",
		RefreshSecret: "other",
		VerifySecret:  "other",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer() unexpected error: %v", err)
	}

	if _, err := other.ParseAccess(token); err == nil {
		t.Error("ParseAccess() expected error for wrong secret")
	}
}

func TestParseExpired(t *testing.T) {
	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	access, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess() unexpected error: %v", err)
	}
	verify, err := issuer.IssueVerification("a@x.com")
	if err != nil {
		t.Fatalf("IssueVerification() unexpected error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.ParseAccess(access); err == nil {
		t.Error("ParseAccess() expected error for expired token")
	}
	if _, err := issuer.ParseVerification(verify); err == nil {
		t.Error("ParseVerification() expected error for expired token")
	}
}

func TestParseWrongIssuerAndAudience(t *testing.T) {
	issuer := newTestIssuer(t)

	tests := []struct {
		name     string
		issuer   string
		audience string
	}{
		{name: "wrong issuer", issuer: "wrong-issuer", audience: tokenAudience},
		{name: "wrong audience", issuer: tokenIssuer, audience: "wrong-audience"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    tt.issuer,
					Audience:  jwt.ClaimStrings{tt.audience},
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					IssuedAt:  jwt.NewNumericDate(time.Now()),
				},
				UserID: 42,
				Kind:   KindAccess,
			}
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			tokenString, err := token.SignedString([]byte("access-secret"))
			if err != nil {
				t.Fatalf("SignedString() unexpected error: %v", err)
			}

			if _, err := issuer.ParseAccess(tokenString); err == nil {
				t.Errorf("ParseAccess() expected error for %s", tt.name)
			}
		})
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 42,
		Kind:   KindAccess,
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	if _, err := issuer.ParseAccess(tokenString); err == nil {
		t.Error("ParseAccess() accepted an unsigned token")
	}
}
