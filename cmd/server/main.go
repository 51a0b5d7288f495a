package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/internal/bootstrap"
	"github.com/shopkit/shopkit/internal/events"
	"github.com/shopkit/shopkit/internal/handlers"
	"github.com/shopkit/shopkit/internal/mail"
	"github.com/shopkit/shopkit/internal/migrations"
	"github.com/shopkit/shopkit/internal/payment"
	"github.com/shopkit/shopkit/internal/ratelimit"
	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil && os.Getenv(env.EnvGoEnvironment) != "production" {
		slog.Debug("no .env file found, relying on process environment")
	}

	config := loadConfig()
	applyEnvOverrides(&config)

	logger := bootstrap.InitLogger(bootstrap.LoggerOptions{Level: config.Logger.Level})
	util.InitValidator()

	if config.Secret == "" {
		logger.Error("application secret is not set", "env", env.EnvSecret)
		os.Exit(1)
	}

	if err := run(&config, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(config *models.Config, logger models.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.InitDatabase(config.Database, config.Logger.Level)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.RunCoreMigrations(ctx, logger, config.Logger.Level, config.Database.Provider, db); err != nil {
		return err
	}

	storage := bootstrap.InitCacheStorage(config.Cache, db, logger)
	defer storage.Close()

	pubsub, err := events.InitWatermillProvider(&config.EventBus, nil)
	if err != nil {
		return err
	}
	bus := events.NewEventBus(&config.EventBus, pubsub, logger)
	defer bus.Close()

	if _, err := bus.Subscribe(events.EventUserSignedUp, func(ctx context.Context, event models.Event) error {
		logger.Info("new user signed up", "event_id", event.ID)
		return nil
	}); err != nil {
		return err
	}

	// Repositories
	userRepo := repositories.NewBunUserRepository(db)
	accountRepo := repositories.NewBunAccountRepository(db)
	sessionRepo := repositories.NewBunSessionRepository(db)
	verificationRepo := repositories.NewBunVerificationRepository(db)
	productRepo := repositories.NewBunProductRepository(db)
	paymentRepo := repositories.NewBunPaymentRepository(db)
	subscriptionRepo := repositories.NewBunSubscriptionRepository(db)
	tokenRepo := repositories.NewCryptoTokenRepository(config.Secret)

	// Services
	resourceCache := services.NewResourceCache(storage, logger, config.Cache.ListTTL, config.Cache.DetailTTL)
	users := services.NewUserService(userRepo)
	sessions := services.NewSessionService(sessionRepo)
	verifications := services.NewVerificationService(verificationRepo)
	tokens := services.NewTokenService(tokenRepo)
	passwords := services.NewArgon2PasswordService()
	jwt := services.NewJWTService(config.Secret, config.BaseURL, config.JWT.ExpiresIn)
	products := services.NewProductService(productRepo, resourceCache, logger)

	mailer, err := initMail(config, logger)
	if err != nil {
		return err
	}

	auth := services.NewAuthService(config, users, accountRepo, sessions, verifications, tokens, passwords, jwt, mailer, bus, logger)

	paymentProvider, err := payment.NewHTTPClient(config.Payment, logger)
	if err != nil {
		return err
	}
	payments := services.NewPaymentService(paymentRepo, paymentProvider, bus, logger)
	subscriptions := services.NewSubscriptionService(subscriptionRepo, bus, logger)

	verifier := payment.NewWebhookVerifier(os.Getenv(env.EnvPaymentWebhookSecret))
	webhooks := handlers.NewWebhookHandler(verifier, payments, subscriptions, logger)

	// Rate limiting
	registry := ratelimit.NewRegistry()
	handlers.RegisterPolicies(registry)
	limiter := ratelimit.NewLimiter(storage, logger, ratelimit.LimiterOptions{
		KeyPrefix: config.RateLimit.Prefix,
		Bypass:    config.RateLimit.Bypass || !config.RateLimit.Enabled,
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:        config,
		Logger:        logger,
		Storage:       storage,
		Limiter:       limiter,
		Registry:      registry,
		Auth:          auth,
		JWT:           jwt,
		Users:         users,
		Products:      products,
		Payments:      payments,
		Subscriptions: subscriptions,
		Webhooks:      webhooks,
	})

	// Expired sessions pile up quietly; sweep them in the background.
	go purgeSessionsLoop(ctx, sessions, logger)

	port := getEnv(env.EnvPort, "8080")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "app", config.AppName, "port", port)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		return nil
	}
}

func purgeSessionsLoop(ctx context.Context, sessions *services.SessionService, logger models.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Debug("purged expired sessions", "count", deleted)
			}
		}
	}
}

func initMail(config *models.Config, logger models.Logger) (*mail.Service, error) {
	newProvider := func(name string) (mail.Provider, error) {
		switch name {
		case "resend":
			return mail.NewResendProvider(&config.Email, logger)
		case "smtp", "":
			return mail.NewSMTPProvider(&config.Email, logger)
		default:
			return nil, errors.New("unsupported email provider: " + name)
		}
	}

	primary, err := newProvider(config.Email.Provider)
	if err != nil {
		return nil, err
	}

	var fallback mail.Provider
	if config.Email.FallbackProvider != "" && config.Email.FallbackProvider != config.Email.Provider {
		fallback, err = newProvider(config.Email.FallbackProvider)
		if err != nil {
			logger.Warn("fallback email provider unavailable", "provider", config.Email.FallbackProvider, "error", err)
			fallback = nil
		}
	}

	return mail.NewService(logger, primary, fallback), nil
}

// loadConfig starts from defaults and layers the TOML file on top if one
// exists.
func loadConfig() models.Config {
	config := defaultConfig()

	configPath := getEnv(env.EnvConfigPath, "config.toml")
	if _, err := os.Stat(configPath); err != nil {
		return config
	}

	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		slog.Warn("failed to parse TOML config file, using environment variables and defaults", "path", configPath, "error", err)
	}

	return config
}

func defaultConfig() models.Config {
	return models.Config{
		AppName:  "shopkit",
		BaseURL:  "http://localhost:8080",
		BasePath: "/api/v1",
		Database: models.DatabaseConfig{
			Provider: "sqlite",
			URL:      "data/shopkit.db",
		},
		Logger: models.LoggerConfig{Level: "info"},
		Session: models.SessionConfig{
			CookieName: "shopkit_session",
			ExpiresIn:  7 * 24 * time.Hour,
			HttpOnly:   true,
			SameSite:   "lax",
		},
		JWT: models.JWTConfig{
			ExpiresIn: 15 * time.Minute,
		},
		Cache: models.CacheConfig{
			Provider:   models.CacheProviderMemory,
			Prefix:     "shopkit",
			DefaultTTL: 5 * time.Minute,
			ListTTL:    time.Minute,
			DetailTTL:  5 * time.Minute,
		},
		RateLimit: models.RateLimitConfig{
			Enabled: true,
		},
		Email: models.EmailConfig{
			Provider:        "smtp",
			VerificationTTL: 24 * time.Hour,
		},
		Payment: models.PaymentConfig{
			RequestsPerSecond: 10,
			Timeout:           15 * time.Second,
		},
	}
}

// applyEnvOverrides lets deployment environments override the settings
// that commonly differ between instances without editing the TOML file.
func applyEnvOverrides(config *models.Config) {
	if secret := os.Getenv(env.EnvSecret); secret != "" {
		config.Secret = secret
	}
	if baseURL := os.Getenv(env.EnvBaseURL); baseURL != "" {
		config.BaseURL = baseURL
	}
	if prefix := os.Getenv(env.EnvCachePrefix); prefix != "" {
		config.Cache.Prefix = prefix
	}
	if bypass := os.Getenv(env.EnvRateLimitBypass); bypass != "" {
		if value, err := strconv.ParseBool(bypass); err == nil {
			config.RateLimit.Bypass = value
		}
	}
}
