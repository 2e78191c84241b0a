package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-kpi/internal/auth"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	"github.com/lorrc/service-desk-kpi/internal/core/mocks"
)

func newTestAPI(t *testing.T, reportLimiter *mw.RateLimiter) (stdhttp.Handler, *auth.TokenManager, *mocks.MockReportService) {
	t.Helper()
	logger := testLogger()
	errorHandler := NewErrorHandler(logger)
	tm := newTestTokenManager()
	reports := mocks.NewMockReportService()
	authz := mocks.NewMockAuthorizationService()

	router := NewRouter(RouterConfig{
		Logger:         logger,
		TokenManager:   tm,
		AllowedOrigins: []string{"https://desk.example.com"},
		ReportLimiter:  reportLimiter,
		Health:         NewHealthHandler("test", map[string]HealthChecker{"database": stubChecker{}}),
		Me:             NewMeHandler(authz, errorHandler, logger),
		Reports:        NewReportHandler(reports, errorHandler, logger),
	})
	return router, tm, reports
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router, _, _ := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/health/ready", nil))

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(mw.RequestIDHeader))
}

func TestRouter_ReportsRequireToken(t *testing.T) {
	router, tm, reports := newTestAPI(t, nil)
	reports.On("SLARules").Return(domain.DefaultSLARules())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/reports/sla-rules", nil))
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/reports/sla-rules", nil)
	req.Header.Set("Authorization", bearer(t, tm, uuid.New()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _, _ := newTestAPI(t, nil)

	req := httptest.NewRequest(stdhttp.MethodOptions, "/api/v1/reports/kpi/summary", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	req.Header.Set("Access-Control-Request-Method", stdhttp.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://desk.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	router, _, _ := newTestAPI(t, nil)

	req := httptest.NewRequest(stdhttp.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ReportLimiterIsPerUser(t *testing.T) {
	limiter := mw.NewRateLimiter(mw.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
		TTL:               time.Minute,
	})
	t.Cleanup(limiter.Stop)

	router, tm, reports := newTestAPI(t, limiter)
	reports.On("SLARules").Return(domain.DefaultSLARules())

	first, second := uuid.New(), uuid.New()
	codes := make([]int, 0, 3)
	for _, userID := range []uuid.UUID{first, first, second} {
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/reports/sla-rules", nil)
		req.Header.Set("Authorization", bearer(t, tm, userID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Len(t, codes, 3)
	assert.Equal(t, []int{stdhttp.StatusOK, stdhttp.StatusTooManyRequests, stdhttp.StatusOK}, codes)
	reports.AssertNumberOfCalls(t, "SLARules", 2)
	reports.AssertNotCalled(t, "GetSummary", mock.Anything, mock.Anything)
}
