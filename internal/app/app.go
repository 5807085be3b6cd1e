package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/config"
	"github.com/prperemyshlev/kanah-health/internal/handler"
	"github.com/prperemyshlev/kanah-health/internal/mailer"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"github.com/prperemyshlev/kanah-health/internal/utils"
	"github.com/prperemyshlev/kanah-health/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Hour
)

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
	tokens repository.TokenRepository
}

type handlers struct {
	auth    *handler.AuthHandler
	oauth   *handler.OAuthHandler
	profile *handler.ProfileHandler
	health  *HealthChecker
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	blacklistService := service.NewTokenBlacklistService(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	oneTime := service.NewOneTimeStore(infra.Redis())

	metrics, err := service.NewMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var mail mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.SMTP.Enabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP is not configured, emails will only be logged")
	}

	authService := service.NewAuthService(
		repos.User,
		repos.Token,
		jwtManager,
		blacklistService,
		oneTime,
		mail,
		metrics,
		logger,
		service.AuthOptions{
			BCryptCost:               cfg.Security.BCryptCost,
			AccessTokenExpiry:        cfg.JWT.AccessTokenExpiry.Duration,
			RefreshTokenExpiry:       cfg.JWT.RefreshTokenExpiry.Duration,
			RequireEmailVerification: cfg.Auth.RequireEmailVerification,
			VerificationTokenExpiry:  cfg.Auth.VerificationTokenExpiry.Duration,
			RecoveryTokenExpiry:      cfg.Auth.RecoveryTokenExpiry.Duration,
			PublicURL:                cfg.Server.PublicURL,
		},
	)

	providers := map[string]service.OAuthProviderConfig{}
	if cfg.Google.Enabled() {
		providers[service.ProviderGoogle] = service.GoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	}

	oauthService := service.NewOAuthService(
		providers,
		repos.User,
		repos.OAuthProvider,
		repos.Token,
		jwtManager,
		oneTime,
		metrics,
		logger,
		cfg.JWT.RefreshTokenExpiry.Duration,
		service.OAuthOptions{
			StateExpiry:       cfg.Auth.OAuthStateExpiry.Duration,
			AuthCodeExpiry:    cfg.Auth.AuthCodeExpiry.Duration,
			RedirectAllowList: cfg.Auth.RedirectAllowList,
		},
	)

	profileService := service.NewProfileService(repos.User, repos.Mother, repos.Baby, metrics, logger)

	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	h := handlers{
		auth:    handler.NewAuthHandler(authService, oauthService, logger, cfg.Auth.SiteURL),
		oauth:   handler.NewOAuthHandler(oauthService, logger),
		profile: handler.NewProfileHandler(profileService, logger),
		health:  NewHealthChecker(infra),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, authService, rateLimiter, logger, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
		tokens: repos.Token,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	logger *zap.Logger,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	limited := handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey, logger)
	requireAuth := handler.AuthMiddleware(authService)

	// Opened by a browser from an email or the provider, so no apikey header.
	router.GET("/api/v1/auth/verify", limited, h.auth.Verify)
	router.GET("/api/v1/auth/callback", h.oauth.Callback)

	api := router.Group("/api/v1", handler.APIKeyMiddleware(cfg.API.PublicKey))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", limited, h.auth.Signup)
			auth.POST("/login", limited, h.auth.Login)
			auth.POST("/resend", limited, h.auth.Resend)
			auth.POST("/recover", limited, h.auth.Recover)
			auth.POST("/token", limited, h.auth.Token)
			auth.GET("/authorize", limited, h.oauth.Authorize)
			auth.POST("/logout", requireAuth, h.auth.Logout)
			auth.GET("/session", requireAuth, h.auth.Session)
			auth.PUT("/user", requireAuth, h.auth.UpdatePassword)
		}

		api.GET("/users/:id", requireAuth, h.profile.GetUser)
		api.PUT("/users/:id", requireAuth, h.profile.UpsertUser)
		api.POST("/mothers", requireAuth, h.profile.CreateMother)
		api.POST("/babies", requireAuth, h.profile.CreateBabies)
		api.GET("/onboarding/status", requireAuth, h.profile.OnboardingStatus)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.purgeExpiredTokens(janitorCtx)

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopJanitor()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// purgeExpiredTokens deletes expired refresh token rows every janitorInterval.
func (a *App) purgeExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.tokens.DeleteExpired(ctx)
			if err != nil {
				a.infra.Logger().Warn("Failed to purge expired refresh tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				a.infra.Logger().Info("Purged expired refresh tokens", zap.Int64("count", n))
			}
		}
	}
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
