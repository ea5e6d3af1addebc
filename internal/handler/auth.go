package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/faithfast/faithfast-go/internal/middleware"
	"github.com/faithfast/faithfast-go/internal/model"
	"github.com/faithfast/faithfast-go/internal/service"
)

const (
	accessTokenCookie  = middleware.AccessTokenCookie
	refreshTokenCookie = "refreshToken"
)

// CookieOptions controls the attributes of the session cookies set on login.
type CookieOptions struct {
	Secure     bool
	SameSite   http.SameSite
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	cookies CookieOptions
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// HandleRegister handles POST /api/user/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated,
		"User registered successfully. Please check your email to verify your account.",
		user.Response())
}

// HandleVerifyEmail handles POST /api/user/verify-email requests.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.VerifyEmail(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Email successfully verified", user.Response())
}

// HandleLogin handles POST /api/user/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie(accessTokenCookie, tokens.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(refreshTokenCookie, tokens.RefreshToken, h.cookies.RefreshTTL))

	writeSuccess(w, http.StatusOK, "Login successful", tokens)
}

// HandleRefreshToken handles POST /api/user/refresh-token requests.
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	if token == "" && r.ContentLength != 0 {
		var req model.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}

	access, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie(accessTokenCookie, access, h.cookies.AccessTTL))
	writeSuccess(w, http.StatusOK, "New access token generated", model.AccessTokenResponse{AccessToken: access})
}

// HandleUserDetails handles GET /api/user/user-details requests.
func (h *AuthHandler) HandleUserDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User details", user.Response())
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return ""
}
