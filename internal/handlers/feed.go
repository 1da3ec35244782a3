package handlers

import (
	"net/http"
	"strconv"
	"time"

	"newsboard/internal/logger"
	"newsboard/internal/services"
	"newsboard/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	rankingCacheTTL     = time.Minute
	hotCachePrefix      = "ranking:hot:"
	trendingCachePrefix = "ranking:trending:"
)

// FeedHandler 订阅流、趋势、热门和热度重算
type FeedHandler struct {
	ranking *services.RankingEngine
	cache   *utils.TTLCache
	now     func() time.Time
}

func NewFeedHandler(ranking *services.RankingEngine, cache *utils.TTLCache) *FeedHandler {
	return &FeedHandler{ranking: ranking, cache: cache, now: time.Now}
}

func limitFrom(c *gin.Context) int {
	return utils.StringToInt(c.Query("limit"))
}

// Feed 订阅分类和关注用户的文章
func (h *FeedHandler) Feed(c *gin.Context) {
	page := pageFrom(c, 0)
	articles, total, err := h.ranking.Feed(c.Request.Context(), currentUser(c).ID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, "articles", newArticleViews(articles), page, total)
}

// Trending 24 小时内按票数排序，缓存一分钟
func (h *FeedHandler) Trending(c *gin.Context) {
	limit := limitFrom(c)
	key := trendingCachePrefix + strconv.Itoa(limit)
	if cached := h.cache.Get(key); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}
	articles, err := h.ranking.Trending(c.Request.Context(), h.now(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	views := newArticleViews(articles)
	h.cache.Set(key, views, rankingCacheTTL)
	c.JSON(http.StatusOK, views)
}

// Hot 按已保存的热度排序，缓存一分钟
func (h *FeedHandler) Hot(c *gin.Context) {
	limit := limitFrom(c)
	key := hotCachePrefix + strconv.Itoa(limit)
	if cached := h.cache.Get(key); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}
	articles, err := h.ranking.Hot(c.Request.Context(), services.HotQuery{Limit: limit, PublishedOnly: true})
	if err != nil {
		respondError(c, err)
		return
	}
	views := newArticleViews(articles)
	h.cache.Set(key, views, rankingCacheTTL)
	c.JSON(http.StatusOK, views)
}

// RecomputeHotness 管理员手动触发全量热度重算
func (h *FeedHandler) RecomputeHotness(c *gin.Context) {
	start := h.now()
	count, err := h.ranking.RecomputeAll(c.Request.Context(), start)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.DeletePrefix(hotCachePrefix)
	logger.Log.WithField("user_id", currentUser(c).ID).WithField("articles", count).Info("管理员触发热度重算")
	c.JSON(http.StatusOK, gin.H{"recomputed": count, "computed_at": start})
}
