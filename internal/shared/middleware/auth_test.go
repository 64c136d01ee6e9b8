package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carrental-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(m *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthMiddleware(m), AdminMiddleware(), func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	m := jwt.NewManager("test-secret", time.Hour)
	userID := uuid.New()

	adminToken, _, err := m.GenerateAccessToken(userID.String(), "admin@example.com", RoleAdmin)
	require.NoError(t, err)
	viewerToken, _, err := m.GenerateAccessToken(userID.String(), "viewer@example.com", "viewer")
	require.NoError(t, err)
	badIDToken, _, err := m.GenerateAccessToken("not-a-uuid", "admin@example.com", RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"admin", "Bearer " + adminToken, http.StatusOK},
		{"lowercase scheme", "bearer " + adminToken, http.StatusOK},
		{"non admin", "Bearer " + viewerToken, http.StatusForbidden},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"bad user id", "Bearer " + badIDToken, http.StatusUnauthorized},
	}

	r := protectedRouter(m)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}
