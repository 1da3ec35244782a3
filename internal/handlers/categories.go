package handlers

import (
	"net/http"

	"newsboard/internal/models"
	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categories *services.CategoryService
	ranking    *services.RankingEngine
}

func NewCategoryHandler(svc *services.Services) *CategoryHandler {
	return &CategoryHandler{categories: svc.Categories, ranking: svc.Ranking}
}

// List 顶级分类和子分类
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.ListRoots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for i := range categories {
		out = append(out, newCategoryView(&categories[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Show :id 可以是 slug 或数字 id
func (h *CategoryHandler) Show(c *gin.Context) {
	category, parent, err := h.categories.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	view := newCategoryView(category)
	view.Parent = newCategoryBrief(parent)
	view.ArticleCount = &category.ArticleCount
	view.SubscriberCount = &category.SubscriberCount
	c.JSON(http.StatusOK, view)
}

func (h *CategoryHandler) Articles(c *gin.Context) {
	category, err := h.categories.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	page := pageFrom(c, 0)
	articles, total, err := h.ranking.ListArticles(c.Request.Context(), services.ArticleQuery{
		CategoryID: category.ID,
		Sort:       c.Query("sort"),
		Page:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "articles", newArticleViews(articles), page, total)
}

func (h *CategoryHandler) Subscribe(c *gin.Context) {
	category, err := h.categories.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.categories.Subscribe(c.Request.Context(), currentUser(c).ID, category.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscribed successfully"})
}

func (h *CategoryHandler) Unsubscribe(c *gin.Context) {
	category, err := h.categories.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.categories.Unsubscribe(c.Request.Context(), currentUser(c).ID, category.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed successfully"})
}

type categoryRequest struct {
	Category struct {
		Name         string `json:"name"`
		Slug         string `json:"slug"`
		Description  string `json:"description"`
		ParentID     *uint  `json:"parent_id"`
		DisplayOrder int    `json:"display_order"`
	} `json:"category"`
}

// Create 管理员新建分类
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	category := &models.Category{
		Name:         req.Category.Name,
		Slug:         req.Category.Slug,
		Description:  req.Category.Description,
		ParentID:     req.Category.ParentID,
		DisplayOrder: req.Category.DisplayOrder,
	}
	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryView(category))
}
