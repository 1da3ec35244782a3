package middleware

import (
	"context"
	"net/http"
	"strings"

	"newsboard/internal/auth"
	"newsboard/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey = "user"
	ClaimsKey    = "claims"
)

// UserLoader 按 id 加载当前用户
type UserLoader func(ctx context.Context, id uint) (*models.User, error)

func abortJSON(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// LoadUser 解析 Bearer 令牌并把用户放进 context。
// 没有令牌时直接放行，令牌无效或用户已停用时返回 401
func LoadUser(issuer *auth.Issuer, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := issuer.ParseAccess(token)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		userID, _ := claims.UserID()
		user, err := load(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(CheckUserKey, user)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// AuthRequired 必须登录
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

// AdminRequired 必须是管理员，需放在 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !user.IsAdmin() {
			abortJSON(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
