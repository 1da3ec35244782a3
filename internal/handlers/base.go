package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"newsboard/internal/apperr"
	"newsboard/internal/logger"
	"newsboard/internal/middleware"
	"newsboard/internal/models"
	"newsboard/internal/services"
	"newsboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondError 按错误类型映射 HTTP 状态码，body 为 {"error": msg, "details": [...]}
func respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidVote) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("unexpected error", err)
	}

	code := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		code = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		code = http.StatusNotFound
	case apperr.KindConflict:
		code = http.StatusConflict
	case apperr.KindForbidden:
		code = http.StatusForbidden
	case apperr.KindUnauthorized:
		code = http.StatusUnauthorized
	}

	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("请求处理失败")
		c.JSON(code, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": appErr.Msg}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(code, body)
}

// bindError 请求体无法解析
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": []string{err.Error()}})
}

// pageFrom 读取 page/per_page，defaultPerPage 为 0 时使用 20
func pageFrom(c *gin.Context, defaultPerPage int) utils.Page {
	perPage := defaultPerPage
	if v := c.Query("per_page"); v != "" {
		perPage = utils.StringToInt(v)
	}
	return utils.NewPage(utils.StringToInt(c.Query("page")), perPage)
}

// idParam 解析路径中的数字 id，失败时直接返回 404
func idParam(c *gin.Context, name, what string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		respondError(c, apperr.NotFound(what))
		return 0, false
	}
	return id, true
}

// queryID 可选的数字查询参数，无效值视为未提供
func queryID(c *gin.Context, name string) uint {
	id, _ := utils.ParseID(c.Query(name))
	return id
}

func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// canModify 作者本人或管理员
func canModify(user *models.User, ownerID uint) bool {
	return user != nil && (user.ID == ownerID || user.IsAdmin())
}

// voteValue 兼容数字和字符串形式的 vote_type
func voteValue(raw any) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// listResponse 列表接口统一带 meta
func listResponse(c *gin.Context, key string, items any, page utils.Page, total int64) {
	c.JSON(http.StatusOK, gin.H{key: items, "meta": page.Meta(total)})
}
