package handlers

import (
	"net/http"

	"newsboard/internal/models"
	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

// VoteHandler 文章和评论共用的投票接口
type VoteHandler struct {
	votes *services.VoteLedger
	cache cacheInvalidator
}

type cacheInvalidator interface {
	DeletePrefix(prefix string)
}

func NewVoteHandler(votes *services.VoteLedger, cache cacheInvalidator) *VoteHandler {
	return &VoteHandler{votes: votes, cache: cache}
}

type voteRequest struct {
	VoteType any `json:"vote_type"`
}

func (h *VoteHandler) vote(c *gin.Context, kind models.EntityKind, what string) {
	id, ok := idParam(c, "id", what)
	if !ok {
		return
	}
	var req voteRequest
	_ = c.ShouldBindJSON(&req)
	if req.VoteType == nil {
		req.VoteType = c.Query("vote_type")
	}
	count, err := h.votes.Vote(c.Request.Context(), models.EntityRef{Kind: kind, ID: id}, currentUser(c).ID, voteValue(req.VoteType))
	if err != nil {
		respondError(c, err)
		return
	}
	h.invalidate(kind)
	c.JSON(http.StatusOK, gin.H{"vote_count": count})
}

func (h *VoteHandler) unvote(c *gin.Context, kind models.EntityKind, what string) {
	id, ok := idParam(c, "id", what)
	if !ok {
		return
	}
	count, err := h.votes.Unvote(c.Request.Context(), models.EntityRef{Kind: kind, ID: id}, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.invalidate(kind)
	c.JSON(http.StatusOK, gin.H{"vote_count": count})
}

// invalidate 文章票数变化后清掉趋势缓存
func (h *VoteHandler) invalidate(kind models.EntityKind) {
	if h.cache != nil && kind == models.KindArticle {
		h.cache.DeletePrefix(trendingCachePrefix)
	}
}

func (h *VoteHandler) VoteArticle(c *gin.Context)   { h.vote(c, models.KindArticle, "Article") }
func (h *VoteHandler) UnvoteArticle(c *gin.Context) { h.unvote(c, models.KindArticle, "Article") }
func (h *VoteHandler) VoteComment(c *gin.Context)   { h.vote(c, models.KindComment, "Comment") }
func (h *VoteHandler) UnvoteComment(c *gin.Context) { h.unvote(c, models.KindComment, "Comment") }
