package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"natours/internal/caching"

	"github.com/stretchr/testify/assert"
)

type pingCache struct {
	caching.CacheService
	err error
}

func (p pingCache) Ping(context.Context) error { return p.err }

func TestHealthCheck_Degraded(t *testing.T) {
	// Arrange
	e := newTestEcho()
	h := NewHealthHandlers(nil, pingCache{err: errors.New("connection refused")}, nil)
	e.GET("/health", h.HealthCheck)

	// Act
	rec := doRequest(e, http.MethodGet, "/health", "")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{
		"database": "unhealthy",
		"redis":    "unhealthy",
		"storage":  "healthy",
	}, body["services"])
}

func TestLivenessCheck(t *testing.T) {
	// Arrange
	e := newTestEcho()
	e.GET("/health/live", NewHealthHandlers(nil, nil, nil).LivenessCheck)

	// Act
	rec := doRequest(e, http.MethodGet, "/health/live", "")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decodeBody(t, rec)["status"])
}
