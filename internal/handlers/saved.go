package handlers

import (
	"net/http"

	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

// SavedHandler 收藏夹
type SavedHandler struct {
	saved *services.SavedService
}

func NewSavedHandler(saved *services.SavedService) *SavedHandler {
	return &SavedHandler{saved: saved}
}

type saveRequest struct {
	ArticleID uint `json:"article_id"`
}

func (h *SavedHandler) List(c *gin.Context) {
	page := pageFrom(c, 0)
	saved, total, err := h.saved.List(c.Request.Context(), currentUser(c).ID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]savedView, 0, len(saved))
	for i := range saved {
		out = append(out, savedView{
			ID:        saved[i].ID,
			CreatedAt: saved[i].CreatedAt,
			Article:   newArticleView(&saved[i].Article),
		})
	}
	listResponse(c, "saved_articles", out, page, total)
}

func (h *SavedHandler) Create(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	saved, err := h.saved.Save(c.Request.Context(), currentUser(c).ID, req.ArticleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Article saved successfully", "id": saved.ID})
}

func (h *SavedHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id", "Saved article")
	if !ok {
		return
	}
	if err := h.saved.Remove(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article removed from saved"})
}
