package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/faithfast/faithfast-go/internal/config"
	"github.com/faithfast/faithfast-go/internal/crypto"
	"github.com/faithfast/faithfast-go/internal/handler"
	"github.com/faithfast/faithfast-go/internal/mailer"
	"github.com/faithfast/faithfast-go/internal/repository"
	"github.com/faithfast/faithfast-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Env == "production" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		return err
	}

	hasher, err := crypto.NewPasswordHasher(cfg.PasswordHash, cfg.BcryptCost)
	if err != nil {
		return err
	}

	tokens, err := crypto.NewTokenIssuer(crypto.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		VerifySecret:  cfg.JWTSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	sameSite, err := cfg.Cookie.SameSiteMode()
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	verification := service.NewVerificationService(userRepo, tokens, newMailer(cfg), cfg.FrontendURL)
	authService := service.NewAuthService(userRepo, hasher, tokens, verification)
	authHandler := handler.NewAuthHandler(authService, handler.CookieOptions{
		Secure:     cfg.Cookie.Secure,
		SameSite:   sameSite,
		Domain:     cfg.Cookie.Domain,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})

	router := handler.NewRouter(ctx, handler.RouterConfig{
		AllowedOrigins:    []string{cfg.FrontendURL},
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		TrustProxyHeaders: cfg.TrustProxy,
	}, authHandler, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

func newMailer(cfg config.Config) mailer.Mailer {
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP_HOST not set, verification emails will be logged instead of sent")
		return mailer.LogMailer{Logger: slog.Default()}
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
}
