package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifications struct {
	pending   []entity.Notification
	dismissed []uuid.UUID
}

func (s *stubNotifications) Enqueue(context.Context, uuid.UUID, []domain.Achievement) error {
	return nil
}

func (s *stubNotifications) Pending(context.Context, uuid.UUID) ([]entity.Notification, error) {
	return s.pending, nil
}

func (s *stubNotifications) Dismiss(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	for _, n := range s.pending {
		if n.ID == id {
			s.dismissed = append(s.dismissed, id)
			return nil
		}
	}
	return fmt.Errorf("%w: notification %s", apperror.ErrNotFound, id)
}

func (s *stubNotifications) PurgeExpired(context.Context) (int64, error) { return 0, nil }

func newRouter(svc *stubNotifications) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(svc, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, uuid.NewString())
	})
	r.GET("/api/notifications", h.GetPending)
	r.DELETE("/api/notifications/:id", h.Dismiss)
	return r
}

func TestGetPending(t *testing.T) {
	svc := &stubNotifications{pending: []entity.Notification{{ID: uuid.New(), Title: "First Steps"}}}

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "First Steps", body.Data[0].Title)
}

func TestDismiss(t *testing.T) {
	id := uuid.New()
	svc := &stubNotifications{pending: []entity.Notification{{ID: id}}}
	r := newRouter(svc)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"known", "/api/notifications/" + id.String(), http.StatusOK},
		{"unknown", "/api/notifications/" + uuid.NewString(), http.StatusNotFound},
		{"malformed", "/api/notifications/not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, []uuid.UUID{id}, svc.dismissed)
}
