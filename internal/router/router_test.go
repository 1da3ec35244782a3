package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsboard/internal/auth"
	"newsboard/internal/config"
	"newsboard/internal/models"
	"newsboard/internal/services"
	"newsboard/internal/testutils"
	"newsboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	conn   *gorm.DB
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn := testutils.CreateTempDB(t)
	issuer, err := auth.NewIssuer("test-secret", time.Hour, 24*time.Hour, nil)
	require.NoError(t, err)

	engine := New(Deps{
		Conn:     conn,
		Services: services.New(conn, nil),
		Issuer:   issuer,
		Cache:    utils.NewTTLCache(100),
		Limits:   config.RateLimitConfig{VotesPerMinute: 6000, Burst: 1000},
	})
	return &testServer{engine: engine, conn: conn, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// tokenFor 直接签发令牌，跳过注册流程
func (s *testServer) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	pair, err := s.issuer.IssuePair(u.ID, u.Role)
	require.NoError(t, err)
	return pair.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	register := map[string]any{"user": map[string]any{
		"username": "alice", "email": "alice@example.com",
		"password": "secret123", "password_confirmation": "secret123",
	}}
	w := s.do(t, http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	refresh := body["refresh_token"].(string)

	w = s.do(t, http.MethodPost, "/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	access := decode(t, w)["access_token"].(string)

	w = s.do(t, http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode(t, w)["email"])

	w = s.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 轮换后旧 refresh token 失效
	w = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode(t, w)["refresh_token"].(string)
	w = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", "", map[string]any{"refresh_token": rotated})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/auth/logout", "", map[string]any{"refresh_token": rotated})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": rotated})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArticleLifecycle(t *testing.T) {
	s := newTestServer(t)
	author := testutils.CreateTestUser(t, s.conn)
	other := testutils.CreateTestUser(t, s.conn)
	admin := testutils.CreateTestAdmin(t, s.conn)
	category := testutils.CreateTestCategory(t, s.conn)
	authorToken := s.tokenFor(t, author)

	w := s.do(t, http.MethodPost, "/articles", authorToken, map[string]any{
		"article": map[string]any{"title": "A sufficiently long title", "url": "https://example.com/post", "category_id": category.ID},
		"tags":    "go, Databases, go",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := uint(created["id"].(float64))
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "example.com", created["domain"])
	assert.Len(t, created["tags"], 2)

	w = s.do(t, http.MethodPost, "/articles", authorToken, map[string]any{
		"article": map[string]any{"title": "short", "url": "not a url", "category_id": category.ID},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode(t, w)["details"])

	// 未发布的文章对其他人不可见
	path := fmt.Sprintf("/articles/%d", id)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, s.tokenFor(t, other), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, authorToken, nil).Code)

	status := path + "/status"
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, status, authorToken, map[string]any{"status": "approved"}).Code)
	adminToken := s.tokenFor(t, admin)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, status, adminToken, map[string]any{"status": "approved"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, status, adminToken, map[string]any{"status": "published"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(t, http.MethodPut, status, adminToken, map[string]any{"status": "pending"}).Code)

	w = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["view_count"])

	w = s.do(t, http.MethodGet, "/articles?category_id="+utils.IntToString(int(category.ID)), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Len(t, list["articles"], 1)
	assert.Equal(t, float64(1), list["meta"].(map[string]any)["total_count"])

	w = s.do(t, http.MethodPut, path, s.tokenFor(t, other), map[string]any{"article": map[string]any{"title": "Someone else's edit"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPut, path, authorToken, map[string]any{"article": map[string]any{"title": "An edited, still long title"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "An edited, still long title", decode(t, w)["title"])

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, authorToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "", nil).Code)
}

func TestVotesAndComments(t *testing.T) {
	s := newTestServer(t)
	author := testutils.CreateTestUser(t, s.conn)
	voter := testutils.CreateTestUser(t, s.conn)
	article := testutils.CreateTestArticle(t, s.conn, author, testutils.CreateTestCategory(t, s.conn), time.Time{})
	token := s.tokenFor(t, voter)
	votePath := fmt.Sprintf("/articles/%d/vote", article.ID)

	w := s.do(t, http.MethodPost, votePath, token, map[string]any{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["vote_count"])

	w = s.do(t, http.MethodPost, votePath, token, map[string]any{"vote_type": "-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(-1), decode(t, w)["vote_count"])

	w = s.do(t, http.MethodPost, votePath, token, map[string]any{"vote_type": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid vote type", decode(t, w)["error"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, votePath, "", map[string]any{"vote_type": 1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/articles/999999/vote", token, map[string]any{"vote_type": 1}).Code)

	w = s.do(t, http.MethodDelete, votePath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["vote_count"])

	commentsPath := fmt.Sprintf("/articles/%d/comments", article.ID)
	w = s.do(t, http.MethodPost, commentsPath, token, map[string]any{"comment": map[string]any{"content": "First!"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := decode(t, w)
	rootID := uint(root["id"].(float64))
	assert.Equal(t, float64(0), root["depth"])

	w = s.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/comments", rootID), s.tokenFor(t, author), map[string]any{"comment": map[string]any{"content": "A reply"}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["depth"])

	w = s.do(t, http.MethodPost, commentsPath, token, map[string]any{"comment": map[string]any{"content": "  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, commentsPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode(t, w)["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Len(t, comments[0].(map[string]any)["replies"], 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/comments/%d/subtree", rootID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["comments"], 1)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/comments/%d/vote", rootID), s.tokenFor(t, author), map[string]any{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["vote_count"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", rootID), s.tokenFor(t, author), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", rootID), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, fmt.Sprintf("/comments/%d", rootID), "", nil).Code)
}

func TestCommunityEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := testutils.CreateTestUser(t, s.conn)
	bob := testutils.CreateTestUser(t, s.conn)
	admin := testutils.CreateTestAdmin(t, s.conn)
	category := testutils.CreateTestCategory(t, s.conn)
	article := testutils.CreateTestArticle(t, s.conn, bob, category, time.Time{})
	aliceToken := s.tokenFor(t, alice)

	followPath := fmt.Sprintf("/users/%d/follow", bob.ID)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, followPath, aliceToken, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, followPath, aliceToken, nil).Code)
	w := s.do(t, http.MethodGet, fmt.Sprintf("/users/%d/followers", bob.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["followers"], 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), bob.Email)

	w = s.do(t, http.MethodGet, "/feed", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["articles"], 1)

	catPath := "/categories/" + category.Slug
	w = s.do(t, http.MethodGet, catPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["article_count"])
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/categories/%d", category.ID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/categories/no-such-category", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, catPath+"/subscribe", aliceToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, catPath+"/subscribe", aliceToken, nil).Code)

	w = s.do(t, http.MethodPost, "/saved_articles", aliceToken, map[string]any{"article_id": article.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	savedID := uint(decode(t, w)["id"].(float64))
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/saved_articles", aliceToken, map[string]any{"article_id": article.ID}).Code)
	w = s.do(t, http.MethodGet, "/saved_articles", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["saved_articles"], 1)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, fmt.Sprintf("/saved_articles/%d", savedID), s.tokenFor(t, bob), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/saved_articles/%d", savedID), aliceToken, nil).Code)

	report := map[string]any{"report": map[string]any{"reason": "spam"}, "reportable_type": "Article", "reportable_id": article.ID}
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/reports", aliceToken, report).Code)
	bad := map[string]any{"report": map[string]any{"reason": "spam"}, "reportable_type": "Widget", "reportable_id": 1}
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/reports", aliceToken, bad).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/reports", aliceToken, nil).Code)
	adminToken := s.tokenFor(t, admin)
	w = s.do(t, http.MethodGet, "/reports?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reports := decode(t, w)["reports"].([]any)
	require.Len(t, reports, 1)
	reportID := uint(reports[0].(map[string]any)["id"].(float64))
	w = s.do(t, http.MethodPut, fmt.Sprintf("/reports/%d/resolve", reportID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", decode(t, w)["status"])
}

func TestRankingEndpoints(t *testing.T) {
	s := newTestServer(t)
	author := testutils.CreateTestUser(t, s.conn)
	admin := testutils.CreateTestAdmin(t, s.conn)
	category := testutils.CreateTestCategory(t, s.conn)
	recent := testutils.CreateTestArticle(t, s.conn, author, category, time.Now().Add(-time.Hour))
	old := testutils.CreateTestArticle(t, s.conn, author, category, time.Now().Add(-48*time.Hour))
	require.NoError(t, s.conn.Model(recent).UpdateColumn("vote_count", 3).Error)
	require.NoError(t, s.conn.Model(old).UpdateColumn("vote_count", 1).Error)

	w := s.do(t, http.MethodGet, "/trending", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trending []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trending))
	require.Len(t, trending, 1)
	assert.Equal(t, float64(recent.ID), trending[0]["id"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/admin/recompute-hotness", s.tokenFor(t, author), nil).Code)
	w = s.do(t, http.MethodPost, "/admin/recompute-hotness", s.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["recomputed"])

	w = s.do(t, http.MethodGet, "/hot?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hot []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hot))
	require.Len(t, hot, 1)
	assert.Equal(t, float64(recent.ID), hot[0]["id"])
}
