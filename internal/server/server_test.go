package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/moodquest/internal/bootstrap"
	"anoa.com/moodquest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:             "test",
		Port:               "0",
		AllowedOrigins:     []string{"http://localhost:3000"},
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		NotificationTTL:    5 * time.Second,
		SessionIdleTTL:     time.Minute,
		RecentEntriesLimit: 10,
	}
	srv, err := NewServer(cfg, db, nil)
	require.NoError(t, err)
	return srv.Handler()
}

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDashboardFlow(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodPost, "/api/auth/register", "", `{"username":"nova","email":"nova@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)
	token := auth.AccessToken

	w = call(t, h, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, h, http.MethodPost, "/api/moods", token, `{"mood":"grateful","note":"sunny"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var action struct {
		Data struct {
			XPGained int `json:"xp_gained"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &action))
	assert.Equal(t, 10, action.Data.XPGained)

	w = call(t, h, http.MethodPost, "/api/journal", token, `{"title":"Day one","content":"Started tracking."}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, "/api/stats/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Data struct {
			TotalXP           int `json:"total_xp"`
			TotalMoodCheckins int `json:"total_mood_checkins"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 30, stats.Data.TotalXP)
	assert.Equal(t, 1, stats.Data.TotalMoodCheckins)

	w = call(t, h, http.MethodGet, "/api/leaderboard?timeframe=weekly", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"nova"`)

	w = call(t, h, http.MethodGet, "/api/journal/search?q=tracking", token, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = call(t, h, http.MethodGet, "/api/notifications", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodGet, "/api/session", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicRoutes(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodGet, "/api/stats/users", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodGet, "/api/moods", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRenameRefreshesSession(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodPost, "/api/auth/register", "", `{"username":"wren","email":"wren@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	token := auth.AccessToken

	w = call(t, h, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"wren"`)

	w = call(t, h, http.MethodPut, "/api/profile", token, `{"username":"wren_b"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, "/api/session", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"wren_b"`)
}
