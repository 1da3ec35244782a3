package handlers

import (
	"net/http"

	"newsboard/internal/apperr"
	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *services.UserService
	ranking  *services.RankingEngine
	comments *services.CommentTree
}

func NewUserHandler(svc *services.Services) *UserHandler {
	return &UserHandler{users: svc.Users, ranking: svc.Ranking, comments: svc.Comments}
}

type profileRequest struct {
	User struct {
		Bio        *string `json:"bio"`
		WebsiteURL *string `json:"website_url"`
		AvatarURL  *string `json:"avatar_url"`
	} `json:"user"`
}

// List 活跃用户，按 karma 降序
func (h *UserHandler) List(c *gin.Context) {
	page := pageFrom(c, 0)
	users, total, err := h.users.ListActive(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "users", newUserBriefs(users), page, total)
}

func (h *UserHandler) Show(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	me := currentUser(c)
	c.JSON(http.StatusOK, newUserView(user, me != nil && me.ID == user.ID))
}

// Update 只能修改自己的资料
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if currentUser(c).ID != id {
		respondError(c, apperr.Forbidden(""))
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), id, services.ProfileUpdate{
		Bio:        req.User.Bio,
		WebsiteURL: req.User.WebsiteURL,
		AvatarURL:  req.User.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user, true))
}

// Articles 用户发布的文章，本人查看时包含未发布的
func (h *UserHandler) Articles(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	page := pageFrom(c, 0)
	me := currentUser(c)
	articles, total, err := h.ranking.ListArticles(c.Request.Context(), services.ArticleQuery{
		UserID:             id,
		Page:               page,
		IncludeUnpublished: me != nil && me.ID == id,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "articles", newArticleViews(articles), page, total)
}

func (h *UserHandler) Comments(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	page := pageFrom(c, 0)
	comments, total, err := h.comments.ListByUser(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "comments", newCommentViews(comments), page, total)
}

func (h *UserHandler) Followers(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	page := pageFrom(c, 0)
	users, total, err := h.users.Followers(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "followers", newUserBriefs(users), page, total)
}

func (h *UserHandler) Following(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	page := pageFrom(c, 0)
	users, total, err := h.users.Following(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "following", newUserBriefs(users), page, total)
}

func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	if err := h.users.Follow(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Followed successfully"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	id, ok := idParam(c, "id", "User")
	if !ok {
		return
	}
	if err := h.users.Unfollow(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully"})
}
