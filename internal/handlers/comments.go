package handlers

import (
	"net/http"

	"newsboard/internal/apperr"
	"newsboard/internal/services"
	"newsboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// defaultCommentsPerPage 评论列表默认每页 50 条
const defaultCommentsPerPage = 50

type CommentHandler struct {
	comments *services.CommentTree
}

func NewCommentHandler(comments *services.CommentTree) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Comment struct {
		Content string `json:"content"`
	} `json:"comment"`
	ParentID *uint `json:"parent_id"`
}

// ListForArticle 根评论分页，每条附带一层回复
func (h *CommentHandler) ListForArticle(c *gin.Context) {
	id, ok := idParam(c, "id", "Article")
	if !ok {
		return
	}
	page := pageFrom(c, defaultCommentsPerPage)
	roots, total, err := h.comments.ListRoots(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "comments", newCommentViews(roots), page, total)
}

// CreateForArticle parent_id 可选，父评论必须属于同一篇文章
func (h *CommentHandler) CreateForArticle(c *gin.Context) {
	id, ok := idParam(c, "id", "Article")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.create(c, id, req.ParentID, req.Comment.Content)
}

// Reply POST /comments/:id/comments，文章取自父评论
func (h *CommentHandler) Reply(c *gin.Context) {
	id, ok := idParam(c, "id", "Comment")
	if !ok {
		return
	}
	parent, err := h.comments.Find(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.create(c, parent.ArticleID, &parent.ID, req.Comment.Content)
}

func (h *CommentHandler) create(c *gin.Context, articleID uint, parentID *uint, content string) {
	user := currentUser(c)
	comment, err := h.comments.Create(c.Request.Context(), articleID, user.ID, parentID, content)
	if err != nil {
		respondError(c, err)
		return
	}
	comment.User = *user
	comment.ContentHTML = utils.RenderMarkdown(comment.Content)
	c.JSON(http.StatusCreated, newCommentView(comment))
}

func (h *CommentHandler) Show(c *gin.Context) {
	id, ok := idParam(c, "id", "Comment")
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentView(comment))
}

// Subtree 全部子孙评论，按层级排序
func (h *CommentHandler) Subtree(c *gin.Context) {
	id, ok := idParam(c, "id", "Comment")
	if !ok {
		return
	}
	comments, err := h.comments.Subtree(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": newCommentViews(comments)})
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id", "Comment")
	if !ok {
		return
	}
	existing, err := h.comments.Find(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if currentUser(c).ID != existing.UserID {
		respondError(c, apperr.Forbidden(""))
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), id, req.Comment.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": comment.ID, "content": comment.Content, "updated_at": comment.UpdatedAt})
}

// Delete 软删除，作者本人或管理员
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id", "Comment")
	if !ok {
		return
	}
	existing, err := h.comments.Find(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canModify(currentUser(c), existing.UserID) {
		respondError(c, apperr.Forbidden(""))
		return
	}
	if err := h.comments.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
