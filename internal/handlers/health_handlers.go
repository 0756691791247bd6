package handlers

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"natours/internal/caching"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const healthTimeout = 2 * time.Second

var errNotConfigured = errors.New("not configured")

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	mongo   *mongo.Client
	cache   caching.CacheService
	photos  services.MinioService
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache and photos
// may be nil when those backends are not configured.
func NewHealthHandlers(client *mongo.Client, cache caching.CacheService, photos services.MinioService) *HealthHandlers {
	return &HealthHandlers{
		mongo:   client,
		cache:   cache,
		photos:  photos,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
}

// HealthCheck pings every backend. A failing backend degrades the status to 503.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]string),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}

	checks := map[string]func(context.Context) error{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
		"storage":  h.checkStorage,
	}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			c.Logger().Warnf("health check %s failed: %v", name, err)
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			continue
		}
		health.Services[name] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// LivenessCheck determines if the application is running
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	if h.mongo == nil {
		return errNotConfigured
	}
	return h.mongo.Ping(ctx, readpref.Primary())
}

func (h *HealthHandlers) checkRedis(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Ping(ctx)
}

func (h *HealthHandlers) checkStorage(ctx context.Context) error {
	if h.photos == nil {
		return nil
	}
	return h.photos.EnsureBucketExists(ctx)
}
