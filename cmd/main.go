package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/mongo"

	"natours/internal/caching"
	"natours/internal/config"
	"natours/internal/handlers"
	"natours/internal/jobs"
	"natours/internal/jobs/background"
	"natours/internal/middleware"
	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"
	"natours/pkg/database"
)

const (
	version         = "1.0.0"
	apiPrefix       = "/api"
	shutdownTimeout = 10 * time.Second
	jsonBodyLimit   = "10K"
	uploadBodyLimit = "5M"
)

type app struct {
	cfg       *config.Config
	mongo     *mongo.Client
	auditPool *pgxpool.Pool
	cache     caching.CacheService
	photos    services.MinioService

	auth    services.AuthService
	tours   services.TourService
	users   services.UserService
	reviews services.ReviewService
	audit   services.AuditLogsService

	scheduler *background.JobScheduler
}

func main() {
	cfg, err := config.Load("config.env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(glog.INFO)
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(cfg.IsProduction())

	registerMiddleware(e, cfg)
	a.registerRoutes(e)

	a.scheduler.Start()

	go func() {
		log.Printf("Natours API v%s (%s) starting on port %d", version, cfg.Env, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down HTTP server: %v", err)
	}
	if err := a.scheduler.Stop(); err != nil {
		log.Printf("Failed to stop scheduler: %v", err)
	}
}

// newApp connects every backend and wires the services. Only MongoDB is
// mandatory; Redis, MinIO and the audit database degrade gracefully.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	client, err := database.ConnectMongo(ctx, cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	db := client.Database(cfg.DatabaseName)

	tourRepo := repositories.NewTourRepo(db)
	userRepo := repositories.NewUserRepo(db)
	reviewRepo := repositories.NewReviewRepo(db)
	if err := tourRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("WARN: failed to create tour indexes: %v", err)
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("WARN: failed to create user indexes: %v", err)
	}
	if err := reviewRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("WARN: failed to create review indexes: %v", err)
	}

	a.cache = caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := a.cache.Ping(ctx); err != nil {
		log.Printf("WARN: Redis unavailable at %s, caching and rate limiting are degraded: %v", cfg.Redis.Addr, err)
	}

	if photos, err := services.NewMinioService(cfg.Minio); err != nil {
		log.Printf("WARN: photo storage disabled: %v", err)
	} else {
		if err := photos.EnsureBucketExists(ctx); err != nil {
			log.Printf("WARN: could not verify bucket %s: %v", cfg.Minio.Bucket, err)
		}
		a.photos = photos
	}

	a.audit = services.NewNoopAuditLogsService()
	if cfg.AuditDatabaseURL != "" {
		pool, err := database.NewPool(ctx, cfg.AuditDatabaseURL)
		if err != nil {
			log.Printf("WARN: audit logging disabled: %v", err)
		} else {
			auditRepo := repositories.NewAuditLogsRepo(pool)
			if err := auditRepo.EnsureSchema(ctx); err != nil {
				log.Printf("WARN: failed to create audit schema: %v", err)
			}
			a.auditPool = pool
			a.audit = services.NewAuditLogsService(auditRepo)
		}
	}

	a.auth = services.NewAuthService(a.cache, cfg.JWTSecret, cfg.JWTExpiresIn)
	a.tours = services.NewTourService(tourRepo, a.cache)
	a.reviews = services.NewReviewService(reviewRepo, a.tours)
	a.users = services.NewUserService(userRepo, a.auth, services.NewEmailService(cfg.Email), a.photos)

	a.scheduler, err = background.NewJobScheduler(
		background.JobSpec{
			Name:     "reset-token-cleanup",
			Interval: jobs.ResetTokenCleanupInterval,
			Timeout:  time.Minute,
			Task:     jobs.NewResetTokenCleanup(a.users),
		},
		background.JobSpec{
			Name:     "ratings-reconcile",
			Interval: jobs.RatingsReconcileInterval,
			Timeout:  5 * time.Minute,
			Task:     jobs.NewRatingsReconciler(a.reviews),
		},
		background.JobSpec{
			Name:     "tour-stats-warm",
			Interval: jobs.StatsWarmInterval,
			Timeout:  time.Minute,
			Task:     jobs.NewStatsWarmer(a.tours),
		},
	)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.auditPool != nil {
		a.auditPool.Close()
	}
	if a.mongo != nil {
		database.DisconnectMongo(a.mongo)
	}
}

func registerMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.Secure())
	if !cfg.IsProduction() {
		e.Use(echoMiddleware.Logger())
	}
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.BodyLimitWithConfig(echoMiddleware.BodyLimitConfig{
		Skipper: isMultipart,
		Limit:   jsonBodyLimit,
	}))
	e.Use(echoMiddleware.BodyLimitWithConfig(echoMiddleware.BodyLimitConfig{
		Skipper: func(c echo.Context) bool { return !isMultipart(c) },
		Limit:   uploadBodyLimit,
	}))
	e.Use(middleware.RequestTime())
	e.Static("/", "public")
}

// isMultipart reports whether the request carries a file upload
func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func (a *app) registerRoutes(e *echo.Echo) {
	health := handlers.NewHealthHandlers(a.mongo, a.cache, a.photos)
	e.GET("/health", health.HealthCheck)
	e.GET("/health/live", health.LivenessCheck)

	authMw := middleware.NewAuthMiddleware(a.auth, a.users)
	protect := authMw.Protect()
	rateLimit := middleware.RateLimit(middleware.NewRedisRateLimiterStore(a.cache, a.cfg.RateLimitMax, a.cfg.RateLimitWindow))
	audit := middleware.NewAuditMiddleware(a.audit, apiPrefix+"/v1")

	versions := middleware.NewVersionMiddleware()
	v1 := versions.VersionRoute(e, apiPrefix, versions.GetCurrentVersion(), rateLimit, audit.AuditRequest())

	tourHandlers := handlers.NewTourHandlers(a.tours)
	reviewHandlers := handlers.NewReviewHandlers(a.reviews)
	authHandlers := handlers.NewAuthHandlers(a.users, a.auth, a.cfg.JWTCookieExpiresIn, a.cfg.IsProduction())
	userHandlers := handlers.NewUserHandlers(a.users)
	auditHandlers := handlers.NewAuditLogsHandlers(a.audit)
	jobHandlers := handlers.NewJobHandlers(a.scheduler)

	adminOrLead := authMw.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)
	adminOnly := authMw.RestrictTo(models.RoleAdmin)

	// Tours
	tours := v1.Group("/tours")
	tours.GET("/top-5-cheap", tourHandlers.GetAllTours, tourHandlers.AliasTopTours)
	tours.GET("/tour-stats", tourHandlers.GetTourStats)
	tours.GET("/monthly-plan/:year", tourHandlers.GetMonthlyPlan)
	tours.GET("", tourHandlers.GetAllTours)
	tours.POST("", tourHandlers.CreateTour, protect, adminOrLead)
	tours.GET("/:id", tourHandlers.GetTour)
	tours.PATCH("/:id", tourHandlers.UpdateTour, protect, adminOrLead)
	tours.DELETE("/:id", tourHandlers.DeleteTour, protect, adminOrLead)

	// Reviews, also nested under a tour
	for _, g := range []*echo.Group{v1.Group("/reviews"), tours.Group("/:tourId/reviews")} {
		g.Use(protect)
		g.GET("", reviewHandlers.GetAllReviews)
		g.POST("", reviewHandlers.CreateReview, authMw.RestrictTo(models.RoleUser))
		g.GET("/:id", reviewHandlers.GetReview)
		g.PATCH("/:id", reviewHandlers.UpdateReview, authMw.RestrictTo(models.RoleUser, models.RoleAdmin))
		g.DELETE("/:id", reviewHandlers.DeleteReview, authMw.RestrictTo(models.RoleUser, models.RoleAdmin))
	}

	// Users
	users := v1.Group("/users")
	users.POST("/signup", authHandlers.Signup)
	users.POST("/login", authHandlers.Login)
	users.GET("/logout", authHandlers.Logout, authMw.Identify())
	users.POST("/forgotPassword", authHandlers.ForgotPassword)
	users.PATCH("/resetPassword/:token", authHandlers.ResetPassword)

	me := users.Group("", protect)
	me.PATCH("/updatePassword", authHandlers.UpdatePassword)
	me.PATCH("/updateMyPassword", authHandlers.UpdatePassword)
	me.GET("/me", userHandlers.GetMe)
	me.GET("/me/photo", userHandlers.GetMyPhoto)
	me.PATCH("/updateMe", userHandlers.UpdateMe)
	me.DELETE("/deleteMe", userHandlers.DeleteMe)

	admin := me.Group("", adminOnly)
	admin.GET("", userHandlers.GetAllUsers)
	admin.POST("", userHandlers.CreateUser)
	admin.GET("/:id", userHandlers.GetUser)
	admin.PATCH("/:id", userHandlers.UpdateUser)
	admin.DELETE("/:id", userHandlers.DeleteUser)

	// Operations
	auditLogs := v1.Group("/audit-logs", protect, adminOnly)
	auditLogs.GET("", auditHandlers.ListAuditLogs)
	auditLogs.GET("/:id", auditHandlers.GetAuditLog)

	jobRoutes := v1.Group("/jobs", protect, adminOnly)
	jobRoutes.GET("", jobHandlers.ListJobs)
	jobRoutes.POST("/:name/run", jobHandlers.RunJob)

	e.RouteNotFound("/*", handlers.NotFound)
}
