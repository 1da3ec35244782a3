package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsboard/internal/auth"
	"newsboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fakeLoader(users map[uint]*models.User) UserLoader {
	return func(_ context.Context, id uint) (*models.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, errors.New("not found")
	}
}

func newTestRouter(t *testing.T, users map[uint]*models.User) (*gin.Engine, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer("secret", 0, 0, nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(), LoadUser(issuer, fakeLoader(users)))
	r.GET("/public", func(c *gin.Context) {
		_, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"logged_in": ok})
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, issuer
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	users := map[uint]*models.User{
		1: {ID: 1, Role: models.RoleUser, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsActive: true},
		3: {ID: 3, Role: models.RoleUser, IsActive: false},
	}
	r, issuer := newTestRouter(t, users)

	userPair, err := issuer.IssuePair(1, models.RoleUser)
	require.NoError(t, err)
	adminPair, err := issuer.IssuePair(2, models.RoleAdmin)
	require.NoError(t, err)
	inactivePair, err := issuer.IssuePair(3, models.RoleUser)
	require.NoError(t, err)

	w := do(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logged_in":false}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/private", userPair.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", userPair.RefreshToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/public", "not-a-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", inactivePair.AccessToken).Code)

	w = do(r, "/admin", userPair.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", adminPair.AccessToken).Code)
}

func TestRequestIDEchoed(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id == "1" {
			c.Set(CheckUserKey, &models.User{ID: 1})
		} else if id == "2" {
			c.Set(CheckUserKey, &models.User{ID: 2})
		}
		c.Next()
	})
	r.POST("/vote", RateLimit(1, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("1"))
	assert.Equal(t, http.StatusOK, post("1"))
	assert.Equal(t, http.StatusTooManyRequests, post("1"))
	// 其他用户有独立的令牌桶
	assert.Equal(t, http.StatusOK, post("2"))
}
