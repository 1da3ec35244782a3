package services

import (
	"context"
	"time"

	"newsboard/internal/apperr"
	"newsboard/internal/logger"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
)

const (
	DefaultRankingLimit = 20
	MaxRankingLimit     = 100
	trendingWindow      = 24 * time.Hour
	recomputeBatchSize  = 500
)

// RankingEngine 热度计算和热门/趋势/订阅流查询。
// 热度重算只由外部触发（CLI、cron、管理接口）
type RankingEngine struct {
	db *gorm.DB
}

func NewRankingEngine(conn *gorm.DB) *RankingEngine {
	return &RankingEngine{db: conn}
}

// Hotness votes / (hours + 2)^1.5
func (e *RankingEngine) Hotness(article *models.Article, now time.Time) float64 {
	return utils.Hotness(article.VoteCount, article.CreatedAt, now)
}

// RecomputeArticle 重算单篇文章的热度并保存
func (e *RankingEngine) RecomputeArticle(ctx context.Context, articleID uint, now time.Time) (float64, error) {
	conn := e.db.WithContext(ctx)
	var article models.Article
	if err := conn.Select("id", "vote_count", "created_at").First(&article, articleID).Error; err != nil {
		return 0, apperr.FromDB(err, "Article", "")
	}
	score := e.Hotness(&article, now)
	if err := conn.Model(&article).UpdateColumn("hotness_score", score).Error; err != nil {
		return 0, apperr.Internal("update hotness", err)
	}
	return score, nil
}

// RecomputeAll 分批重算所有文章热度，返回处理的文章数
func (e *RankingEngine) RecomputeAll(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	count := 0
	var batch []models.Article
	res := e.db.WithContext(ctx).
		Select("id", "vote_count", "created_at").
		FindInBatches(&batch, recomputeBatchSize, func(_ *gorm.DB, _ int) error {
			return e.db.WithContext(ctx).Transaction(func(utx *gorm.DB) error {
				for i := range batch {
					score := e.Hotness(&batch[i], now)
					if err := utx.Model(&models.Article{}).Where("id = ?", batch[i].ID).
						UpdateColumn("hotness_score", score).Error; err != nil {
						return err
					}
				}
				count += len(batch)
				return nil
			})
		})
	if res.Error != nil {
		return count, apperr.Internal("recompute hotness", res.Error)
	}
	logger.Log.WithField("articles", count).WithField("elapsed", time.Since(start).String()).
		Info("热度重算完成")
	return count, nil
}

// HotQuery 热门列表参数
type HotQuery struct {
	Limit         int
	PublishedOnly bool
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRankingLimit
	}
	if limit > MaxRankingLimit {
		return MaxRankingLimit
	}
	return limit
}

// Hot hotness_score > 0 的文章，按热度降序
func (e *RankingEngine) Hot(ctx context.Context, q HotQuery) ([]models.Article, error) {
	query := e.db.WithContext(ctx).
		Preload("User").Preload("Category").
		Where("hotness_score > 0")
	if q.PublishedOnly {
		query = query.Where("status = ?", models.StatusPublished)
	}
	var articles []models.Article
	err := query.Order("hotness_score DESC, id DESC").Limit(clampLimit(q.Limit)).Find(&articles).Error
	if err != nil {
		return nil, apperr.Internal("load hot articles", err)
	}
	return articles, nil
}

// Trending 最近 24 小时发布的文章，按票数降序，不考虑热度衰减
func (e *RankingEngine) Trending(ctx context.Context, now time.Time, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := e.db.WithContext(ctx).
		Preload("User").Preload("Category").
		Where("status = ? AND created_at > ?", models.StatusPublished, now.Add(-trendingWindow)).
		Order("vote_count DESC, created_at DESC").
		Limit(clampLimit(limit)).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Internal("load trending articles", err)
	}
	return articles, nil
}

// Feed 订阅分类或关注作者发布的文章，最新的在前
func (e *RankingEngine) Feed(ctx context.Context, userID uint, page utils.Page) ([]models.Article, int64, error) {
	conn := e.db.WithContext(ctx)
	base := conn.Model(&models.Article{}).
		Where("status = ?", models.StatusPublished).
		Where("(category_id IN (?) OR user_id IN (?))",
			conn.Model(&models.CategorySubscription{}).Select("category_id").Where("user_id = ?", userID),
			conn.Model(&models.UserFollow{}).Select("followed_id").Where("follower_id = ?", userID),
		).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count feed", err)
	}
	var articles []models.Article
	err := base.Preload("User").Preload("Category").Preload("Tags").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&articles).Error
	if err != nil {
		return nil, 0, apperr.Internal("load feed", err)
	}
	return articles, total, nil
}

const (
	SortRecent = "recent"
	SortHot    = "hot"
	SortVotes  = "votes"
)

// ArticleQuery 文章列表过滤条件，零值表示不过滤
type ArticleQuery struct {
	CategoryID uint
	UserID     uint
	TagID      uint
	Sort       string
	Page       utils.Page
	// IncludeUnpublished 作者查看自己的文章时为 true
	IncludeUnpublished bool
}

// ListArticles 文章列表，默认只返回已发布的
func (e *RankingEngine) ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Article{})
	if !q.IncludeUnpublished {
		query = query.Where("articles.status = ?", models.StatusPublished)
	}
	if q.CategoryID != 0 {
		query = query.Where("articles.category_id = ?", q.CategoryID)
	}
	if q.UserID != 0 {
		query = query.Where("articles.user_id = ?", q.UserID)
	}
	if q.TagID != 0 {
		query = query.Where("articles.id IN (?)",
			e.db.Model(&models.ArticleTag{}).Select("article_id").Where("tag_id = ?", q.TagID))
	}
	if q.Sort == SortHot {
		query = query.Where("articles.hotness_score > 0")
	}
	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count articles", err)
	}

	order := "articles.created_at DESC, articles.id DESC"
	switch q.Sort {
	case SortHot:
		order = "articles.hotness_score DESC, articles.id DESC"
	case SortVotes:
		order = "articles.vote_count DESC, articles.created_at DESC"
	}

	var articles []models.Article
	err := base.Preload("User").Preload("Category").Preload("Tags").
		Order(order).
		Offset(q.Page.Offset()).Limit(q.Page.Limit()).
		Find(&articles).Error
	if err != nil {
		return nil, 0, apperr.Internal("list articles", err)
	}
	return articles, total, nil
}
