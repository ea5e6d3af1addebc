package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/faithfast/faithfast-go/internal/crypto"
	"github.com/faithfast/faithfast-go/internal/middleware"
)

// RouterConfig carries what NewRouter needs beyond the handlers.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// NewRouter wires the account routes. ctx bounds background work such as the
// rate limiter's cleanup loop.
func NewRouter(ctx context.Context, cfg RouterConfig, auth *AuthHandler, tokens *crypto.TokenIssuer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
			r.Post("/register", auth.HandleRegister)
			r.Post("/verify-email", auth.HandleVerifyEmail)
			r.Post("/login", auth.HandleLogin)
		})

		r.Post("/refresh-token", auth.HandleRefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(tokens))
			r.Get("/user-details", auth.HandleUserDetails)
		})
	})

	return r
}
