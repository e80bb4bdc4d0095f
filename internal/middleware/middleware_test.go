package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
	"github.com/noah-isme/tutor-moderation-api/internal/service"
	"github.com/noah-isme/tutor-moderation-api/pkg/logger"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": c.GetString(logger.ActorKey)})
	})
	router.GET("/protected", handlers...)
	return router
}

func serve(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	tokens := service.NewTokenService("secret", "unitutor-admin")
	token, err := tokens.IssueToken("staff-9", models.StaffModerator, time.Hour)
	require.NoError(t, err)
	router := newTestRouter(JWT(tokens))

	rec := serve(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staff-9")

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer broken").Code)
}

func TestRequireRoles(t *testing.T) {
	tokens := service.NewTokenService("secret", "")
	moderator, err := tokens.IssueToken("staff-1", models.StaffModerator, time.Hour)
	require.NoError(t, err)
	admin, err := tokens.IssueToken("staff-2", models.StaffAdmin, time.Hour)
	require.NoError(t, err)
	router := newTestRouter(JWT(tokens), RequireRoles(models.StaffAdmin))

	assert.Equal(t, http.StatusOK, serve(router, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "Bearer "+moderator).Code)

	unauthenticated := newTestRouter(RequireRoles(models.StaffAdmin))
	assert.Equal(t, http.StatusUnauthorized, serve(unauthenticated, "").Code)
}

type counterStub struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *counterStub) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func TestRateLimit(t *testing.T) {
	counter := &counterStub{}
	metrics := service.NewMetricsService()
	router := newTestRouter(RateLimit(counter, 2, time.Minute, metrics, nil))

	assert.Equal(t, http.StatusOK, serve(router, "").Code)
	rec := serve(router, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(router, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, uint64(1), metrics.Snapshot().RateLimited)
}

func TestRateLimitKeysByStaff(t *testing.T) {
	counter := &counterStub{}
	setClaims := func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: c.GetHeader("Authorization"), Role: models.StaffAdmin})
	}
	router := newTestRouter(setClaims, RateLimit(counter, 1, time.Minute, nil, nil))

	assert.Equal(t, http.StatusOK, serve(router, "staff-a").Code)
	assert.Equal(t, http.StatusOK, serve(router, "staff-b").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "staff-a").Code)
	assert.Equal(t, int64(2), counter.counts["staff:staff-a"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	router := newTestRouter(RateLimit(&counterStub{err: errors.New("redis down")}, 1, time.Minute, nil, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "").Code)
	}
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	metrics := service.NewMetricsService()
	router := newTestRouter(Metrics(metrics))

	serve(router, "")
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
