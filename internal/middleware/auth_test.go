package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/quillcraft-golang/internal/auth"
	"github.com/01moynul/quillcraft-golang/internal/entitlement"
)

func newRouter(m *auth.Manager, sessions *entitlement.SessionTracker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(m, sessions), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		usage := entitlement.SessionUsageFrom(c.Request.Context())
		if usage != nil {
			usage.Add(5)
		}
		c.JSON(http.StatusOK, gin.H{"userId": id, "session": usage != nil})
	})
	return r
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)
	r := newRouter(m, entitlement.NewSessionTracker())

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"bad token":      "Bearer nope",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestAuthMiddleware_AcceptsAndTracksSession(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)
	sessions := entitlement.NewSessionTracker()
	r := newRouter(m, sessions)

	token, sid, err := m.GenerateToken(11)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":11,"session":true}`, w.Body.String())
	}

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 10, sessions.For(sid, claims.ExpiresAt).Total())

	assert.Equal(t, 0, sessions.Prune(time.Now()))
	assert.Equal(t, 1, sessions.Prune(claims.ExpiresAt.Add(time.Second)))
	assert.Equal(t, 0, sessions.Len())
}
