package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/moodquest/internal/modules/user/dto"
	userService "anoa.com/moodquest/internal/modules/user/service"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type tokenTable map[string]*dto.Identity

func (t tokenTable) Register(context.Context, dto.RegisterInput) (*dto.AuthResponse, error) {
	return nil, nil
}
func (t tokenTable) Login(context.Context, dto.LoginInput) (*dto.AuthResponse, error) {
	return nil, nil
}
func (t tokenTable) Logout(context.Context, dto.Identity) error { return nil }
func (t tokenTable) OnChange(userService.Listener)              {}

func (t tokenTable) CurrentIdentity(_ context.Context, token string) (*dto.Identity, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return nil, apperror.ErrUnauthorized
}

func newRouter(tokens tokenTable) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(tokens).RequireAuth())
	r.GET("/whoami", func(c *gin.Context) {
		identity, ok := Identity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(response.ContextUserID), "email": identity.Email})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	user := uuid.New()
	r := newRouter(tokenTable{"good": {UserID: user, Email: "a@b.io"}})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "bearer header", header: "Bearer good", want: http.StatusOK},
		{name: "query token for websockets", query: "?token=good", want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), user.String())
			}
		})
	}
}
