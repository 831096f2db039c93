package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthProbe(t *testing.T) (*HTTPServer, *string) {
	t.Helper()
	s, _ := newTestServer(t, nil, nil)
	var seen string
	s.engine.GET("/probe", s.requireAuth(), func(c *gin.Context) {
		seen = callerID(c)
		c.Status(http.StatusNoContent)
	})
	return s, &seen
}

func TestRequireAuth(t *testing.T) {
	expired, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("u1", []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(t *testing.T, r *http.Request)
		status int
		caller string
	}{
		{"no token", func(t *testing.T, r *http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer", func(t *testing.T, r *http.Request) { r.Header.Set("Authorization", bearer(t, "u1")) }, http.StatusNoContent, "u1"},
		{"cookie", func(t *testing.T, r *http.Request) {
			tok := bearer(t, "u2")[len(common.BearerPrefix):]
			r.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: tok})
		}, http.StatusNoContent, "u2"},
		{"expired", func(t *testing.T, r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, ""},
		{"wrong secret", func(t *testing.T, r *http.Request) { r.Header.Set("Authorization", "Bearer "+foreign) }, http.StatusUnauthorized, ""},
		{"garbage", func(t *testing.T, r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, seen := newAuthProbe(t)
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			tt.setup(t, req)

			rec := do(s, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.caller, *seen)
			if tt.status == http.StatusUnauthorized {
				env := decode(t, rec)
				assert.False(t, env.Success)
				assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
			}
		})
	}
}

func TestRecovery_RendersEnvelope(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	s.engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := do(s, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec).Message)
}

func TestNoRoute(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec).Message)
}
