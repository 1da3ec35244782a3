package handlers

import (
	"net/http"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articles *services.ArticleService
	ranking  *services.RankingEngine
	votes    *services.VoteLedger
}

func NewArticleHandler(svc *services.Services) *ArticleHandler {
	return &ArticleHandler{articles: svc.Articles, ranking: svc.Ranking, votes: svc.Votes}
}

type articleRequest struct {
	Article struct {
		Title        *string `json:"title"`
		URL          string  `json:"url"`
		Description  *string `json:"description"`
		ThumbnailURL *string `json:"thumbnail_url"`
		CategoryID   *uint   `json:"category_id"`
	} `json:"article"`
	// Tags 逗号分隔的字符串或字符串数组
	Tags any `json:"tags"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// List 已发布文章，支持 category_id / user_id / tag_id 过滤和 sort=recent|hot|votes
func (h *ArticleHandler) List(c *gin.Context) {
	page := pageFrom(c, 0)
	articles, total, err := h.ranking.ListArticles(c.Request.Context(), services.ArticleQuery{
		CategoryID: queryID(c, "category_id"),
		UserID:     queryID(c, "user_id"),
		TagID:      queryID(c, "tag_id"),
		Sort:       c.Query("sort"),
		Page:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "articles", newArticleViews(articles), page, total)
}

// Show 文章详情，浏览数加一。未发布的文章只有作者和管理员可见
func (h *ArticleHandler) Show(c *gin.Context) {
	id, ok := idParam(c, "id", "Article")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	article, err := h.articles.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	me := currentUser(c)
	if article.Status != models.StatusPublished && !canModify(me, article.UserID) {
		respondError(c, apperr.NotFound("Article"))
		return
	}
	if views, err := h.articles.IncrementViews(ctx, id); err == nil {
		article.ViewCount = views
	}

	view := newArticleView(article)
	if me != nil {
		if v, err := h.votes.UserVote(ctx, models.ArticleRef(id), me.ID); err == nil {
			view.UserVote = &v
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in := services.ArticleInput{
		Title:        deref(req.Article.Title),
		URL:          req.Article.URL,
		Description:  deref(req.Article.Description),
		ThumbnailURL: deref(req.Article.ThumbnailURL),
		Tags:         services.ParseTagNames(req.Tags),
	}
	if req.Article.CategoryID != nil {
		in.CategoryID = *req.Article.CategoryID
	}
	article, err := h.articles.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	full, err := h.articles.Get(c.Request.Context(), article.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newArticleView(full))
}

// Update 只有作者本人可以修改，URL 不可修改
func (h *ArticleHandler) Update(c *gin.Context) {
	article, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	update := services.ArticleUpdate{
		Title:        req.Article.Title,
		Description:  req.Article.Description,
		ThumbnailURL: req.Article.ThumbnailURL,
		CategoryID:   req.Article.CategoryID,
	}
	if req.Tags != nil {
		update.Tags = services.ParseTagNames(req.Tags)
	}
	updated, err := h.articles.Update(c.Request.Context(), article.ID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleView(updated))
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	article, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), article.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus 管理员审核：pending -> approved -> published
func (h *ArticleHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id", "Article")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	article, err := h.articles.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleView(article))
}

// loadOwned 加载文章并校验当前用户是作者
func (h *ArticleHandler) loadOwned(c *gin.Context) (*models.Article, bool) {
	id, ok := idParam(c, "id", "Article")
	if !ok {
		return nil, false
	}
	article, err := h.articles.Find(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if currentUser(c).ID != article.UserID {
		respondError(c, apperr.Forbidden(""))
		return nil, false
	}
	return article, true
}
