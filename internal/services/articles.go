package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"newsboard/internal/apperr"
	"newsboard/internal/logger"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minTitleLength = 10
	maxTitleLength = 200
)

// ArticleInput 提交文章的参数
type ArticleInput struct {
	Title        string
	URL          string
	Description  string
	ThumbnailURL string
	CategoryID   uint
	Tags         []string
}

// ArticleUpdate 只更新非 nil 字段，URL 不可修改
type ArticleUpdate struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	CategoryID   *uint
	Tags         []string // nil 表示不修改标签
}

type ArticleService struct {
	db      *gorm.DB
	karma   *KarmaLedger
	crawler *CrawlerService
}

// NewArticleService crawler 为 nil 时不自动补全描述和缩略图
func NewArticleService(conn *gorm.DB, karma *KarmaLedger, crawler *CrawlerService) *ArticleService {
	return &ArticleService{db: conn, karma: karma, crawler: crawler}
}

func validateTitle(title string) []string {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return []string{"Title can't be blank"}
	case n < minTitleLength:
		return []string{"Title is too short (minimum is 10 characters)"}
	case n > maxTitleLength:
		return []string{"Title is too long (maximum is 200 characters)"}
	}
	return nil
}

func (s *ArticleService) checkCategory(tx *gorm.DB, categoryID uint) error {
	var category models.Category
	if err := tx.Select("id").First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("Validation failed", "Category must exist")
		}
		return apperr.Internal("load category", err)
	}
	return nil
}

// Create 提交文章，初始状态为 pending，作者获得 1 点 karma
func (s *ArticleService) Create(ctx context.Context, authorID uint, in ArticleInput) (*models.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)

	var details []string
	details = append(details, validateTitle(in.Title)...)
	if in.URL == "" {
		details = append(details, "Url can't be blank")
	} else if !utils.ValidHTTPURL(in.URL) {
		details = append(details, "Url is invalid")
	}
	if in.ThumbnailURL != "" && !utils.ValidHTTPURL(in.ThumbnailURL) {
		details = append(details, "Thumbnail url is invalid")
	}
	if in.CategoryID == 0 {
		details = append(details, "Category must exist")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	s.autofill(ctx, &in)

	article := &models.Article{
		UserID:       authorID,
		CategoryID:   in.CategoryID,
		Title:        in.Title,
		URL:          in.URL,
		Domain:       utils.ExtractDomain(in.URL),
		Description:  in.Description,
		ThumbnailURL: in.ThumbnailURL,
		Status:       models.StatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(article).Error; err != nil {
			return apperr.FromDB(err, "Article", "")
		}
		tags, err := attachTags(tx, article.ID, ParseTagNames(in.Tags))
		if err != nil {
			return err
		}
		article.Tags = tags

		_, err = s.karma.WithTx(tx).Record(ctx, Activity{
			UserID: authorID,
			Type:   models.ActivitySubmit,
			Entity: models.ArticleRef(article.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// autofill 描述或缩略图缺失时抓取链接页面补全，失败只记日志
func (s *ArticleService) autofill(ctx context.Context, in *ArticleInput) {
	if s.crawler == nil || (in.Description != "" && in.ThumbnailURL != "") {
		return
	}
	preview, err := s.crawler.FetchPreview(ctx, in.URL)
	if err != nil {
		logger.Log.WithError(err).WithField("url", in.URL).Warn("抓取文章预览失败")
		return
	}
	if in.Description == "" {
		in.Description = preview.Description
	}
	if in.ThumbnailURL == "" {
		in.ThumbnailURL = preview.ThumbnailURL
	}
}

// Get 查询文章详情
func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Category").Preload("Tags").
		First(&article, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "Article", "")
	}
	article.DescriptionHTML = utils.RenderMarkdown(article.Description)
	return &article, nil
}

// Find 只查询文章本身，用于权限校验
func (s *ArticleService) Find(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, apperr.FromDB(err, "Article", "")
	}
	return &article, nil
}

// IncrementViews 浏览数加一，返回新值
func (s *ArticleService) IncrementViews(ctx context.Context, id uint) (int, error) {
	var views int
	err := s.db.WithContext(ctx).
		Raw(`UPDATE articles SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`, id).
		Scan(&views).Error
	if err != nil {
		return 0, apperr.Internal("increment views", err)
	}
	return views, nil
}

// Update 修改标题、描述、缩略图、分类和标签
func (s *ArticleService) Update(ctx context.Context, id uint, in ArticleUpdate) (*models.Article, error) {
	updates := map[string]any{}
	var details []string
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		details = append(details, validateTitle(title)...)
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ThumbnailURL != nil {
		if *in.ThumbnailURL != "" && !utils.ValidHTTPURL(*in.ThumbnailURL) {
			details = append(details, "Thumbnail url is invalid")
		}
		updates["thumbnail_url"] = *in.ThumbnailURL
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, id); err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := s.checkCategory(tx, *in.CategoryID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := tx.Model(&models.Article{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return apperr.Internal("update article", err)
			}
		}
		if in.Tags != nil {
			if _, err := replaceTags(tx, id, ParseTagNames(in.Tags)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetStatus 审核状态只能按 pending -> approved -> published 推进
func (s *ArticleService) SetStatus(ctx context.Context, id uint, status string) (*models.Article, error) {
	if !models.ValidStatus(status) {
		return nil, apperr.Validation("Validation failed", "Status is not included in the list")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "status").First(&article, id).Error; err != nil {
			return apperr.FromDB(err, "Article", "")
		}
		if !models.CanTransition(article.Status, status) {
			return apperr.Validation("Invalid status transition", article.Status+" cannot move to "+status)
		}
		return tx.Model(&article).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete 删除文章及其投票、评论（含评论的投票）、收藏、标签关联和举报
func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, id); err != nil {
			return err
		}

		commentIDs := func() *gorm.DB {
			return tx.Model(&models.Comment{}).Select("id").Where("article_id = ?", id)
		}

		steps := []func() error{
			func() error {
				return tx.Where("subject_type = ? AND subject_id IN (?)", models.KindComment, commentIDs()).
					Delete(&models.Vote{}).Error
			},
			func() error {
				return tx.Where("subject_type = ? AND subject_id = ?", models.KindArticle, id).
					Delete(&models.Vote{}).Error
			},
			func() error {
				return tx.Where("reportable_type = ? AND reportable_id IN (?)", models.KindComment, commentIDs()).
					Delete(&models.Report{}).Error
			},
			func() error {
				return tx.Where("reportable_type = ? AND reportable_id = ?", models.KindArticle, id).
					Delete(&models.Report{}).Error
			},
			func() error {
				return tx.Where("article_id = ?", id).Delete(&models.Comment{}).Error
			},
			func() error {
				return tx.Where("article_id = ?", id).Delete(&models.SavedArticle{}).Error
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return apperr.Internal("delete article", err)
			}
		}

		var tagIDs []uint
		if err := tx.Model(&models.ArticleTag{}).Where("article_id = ?", id).Pluck("tag_id", &tagIDs).Error; err != nil {
			return apperr.Internal("load article tags", err)
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
			return apperr.Internal("detach tags", err)
		}
		if err := recountTagUsage(tx, tagIDs); err != nil {
			return err
		}

		if err := tx.Delete(&models.Article{}, id).Error; err != nil {
			return apperr.Internal("delete article", err)
		}
		return nil
	})
}
