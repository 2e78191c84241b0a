package http

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-kpi/internal/auth"
)

const testSecret = "test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(testSecret, time.Hour)
}

func bearer(t *testing.T, tm *auth.TokenManager, userID uuid.UUID) string {
	t.Helper()
	token, err := tm.GenerateToken(userID, uuid.New())
	require.NoError(t, err)
	return "Bearer " + token
}
