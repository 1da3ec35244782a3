package handlers

import (
	"net/http"

	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultTagsPerPage = 50

type TagHandler struct {
	tags    *services.TagService
	ranking *services.RankingEngine
}

func NewTagHandler(svc *services.Services) *TagHandler {
	return &TagHandler{tags: svc.Tags, ranking: svc.Ranking}
}

// List 热门标签
func (h *TagHandler) List(c *gin.Context) {
	page := pageFrom(c, defaultTagsPerPage)
	tags, total, err := h.tags.Popular(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]tagView, 0, len(tags))
	for i := range tags {
		out = append(out, newTagView(&tags[i]))
	}
	listResponse(c, "tags", out, page, total)
}

func (h *TagHandler) Show(c *gin.Context) {
	tag, err := h.tags.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.tags.ArticleCount(c.Request.Context(), tag.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	view := newTagView(tag)
	view.ArticleCount = &count
	c.JSON(http.StatusOK, view)
}

func (h *TagHandler) Articles(c *gin.Context) {
	tag, err := h.tags.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	page := pageFrom(c, 0)
	articles, total, err := h.ranking.ListArticles(c.Request.Context(), services.ArticleQuery{
		TagID: tag.ID,
		Sort:  c.Query("sort"),
		Page:  page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "articles", newArticleViews(articles), page, total)
}
