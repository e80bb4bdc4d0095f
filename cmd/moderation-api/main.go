package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-moderation-api/api/swagger"
	"github.com/noah-isme/tutor-moderation-api/internal/handler"
	"github.com/noah-isme/tutor-moderation-api/internal/middleware"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	"github.com/noah-isme/tutor-moderation-api/internal/repository"
	"github.com/noah-isme/tutor-moderation-api/internal/service"
	"github.com/noah-isme/tutor-moderation-api/pkg/cache"
	"github.com/noah-isme/tutor-moderation-api/pkg/config"
	"github.com/noah-isme/tutor-moderation-api/pkg/database"
	"github.com/noah-isme/tutor-moderation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-moderation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-moderation-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutor-moderation-api/pkg/observability"
)

// @title Tutor Moderation API
// @version 1.0.0
// @description Moderation and reputation engine for the tutoring marketplace
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	issueToken := flag.String("issue-token", "", "print a staff token for USER_ID:ROLE and exit (non-production only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if *issueToken != "" {
		if err := printToken(cfg, tokens, *issueToken); err != nil {
			logr.Fatal("failed to issue token", zap.Error(err))
		}
		return
	}

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		observability.CaptureErr(err)
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *migrateOnly || cfg.Database.MigrateOnStart {
		if err := database.Migrate(db.DB); err != nil {
			observability.CaptureErr(err)
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
		if *migrateOnly {
			return
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient = nil
	}
	rateLimits := repository.NewRateLimitRepository(redisClient)
	defer rateLimits.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(observability.GinMiddleware())
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	registerRoutes(r, cfg, db, tokens, rateLimits, metrics, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPTimeout,
		WriteTimeout:      cfg.HTTPTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.CaptureErr(err)
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, db *sqlx.DB, tokens *service.TokenService, rateLimits *repository.RateLimitRepository, metrics *service.MetricsService, logr *zap.Logger) {
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	reputationSvc := service.NewReputationService(userRepo, ratingRepo, overrideRepo, auditRepo, metrics, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, auditRepo, metrics, cfg.Sessions.CloseGrace, validate, logr)
	ratingSvc := service.NewRatingService(ratingRepo, sessionRepo, userRepo, auditRepo, metrics, validate, logr)
	ticketSvc := service.NewTicketService(ticketRepo, userRepo, auditRepo, metrics, validate, logr)
	accountSvc := service.NewAccountService(userRepo, auditRepo, logr)

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	userHandler := handler.NewUserHandler(accountSvc, reputationSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	ratingHandler := handler.NewRatingHandler(ratingSvc)
	ticketHandler := handler.NewTicketHandler(ticketSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(rateLimits, cfg.RateLimit.Requests, cfg.RateLimit.Window, metrics, logr)
	}
	adminOnly := middleware.RequireRoles(models.StaffAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens), middleware.RequireRoles(models.StaffAdmin, models.StaffModerator))
	{
		api.GET("/metrics/summary", metricsHandler.Summary)

		users := api.Group("/users")
		users.GET("/:id", userHandler.Get)
		users.GET("/:id/reputation", userHandler.Reputation)
		users.GET("/:id/ratings", ratingHandler.ListForUser)
		users.PUT("/:id/override", adminOnly, limit, userHandler.SubmitOverride)
		users.DELETE("/:id", adminOnly, limit, userHandler.SoftDelete)

		sessions := api.Group("/sessions")
		sessions.GET("", sessionHandler.List)
		sessions.POST("", limit, sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.POST("/:id/transitions", limit, sessionHandler.Transition)
		sessions.POST("/:id/acknowledgements", limit, sessionHandler.Acknowledge)
		sessions.POST("/:id/completions", limit, sessionHandler.Complete)
		sessions.POST("/:id/ratings", limit, ratingHandler.Attach)

		api.PATCH("/ratings/:id/visibility", limit, ratingHandler.SetVisibility)

		tickets := api.Group("/tickets")
		tickets.GET("", ticketHandler.List)
		tickets.POST("", limit, ticketHandler.Create)
		tickets.GET("/:id", ticketHandler.Get)
		tickets.POST("/:id/transitions", limit, ticketHandler.Transition)
	}
}

func printToken(cfg *config.Config, tokens *service.TokenService, value string) error {
	if cfg.Env == config.EnvProduction {
		return errors.New("token issuing is disabled in production")
	}
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return fmt.Errorf("expected USER_ID:ROLE, got %q", value)
	}
	role := models.StaffRole(strings.ToUpper(parts[1]))
	if role != models.StaffAdmin && role != models.StaffModerator {
		return fmt.Errorf("unknown staff role %q", parts[1])
	}
	token, err := tokens.IssueToken(parts[0], role, 12*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
