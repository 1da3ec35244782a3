package services

import (
	"context"
	"errors"
	"strings"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTagLength = 50

type TagService struct {
	db *gorm.DB
}

func NewTagService(conn *gorm.DB) *TagService {
	return &TagService{db: conn}
}

// ParseTagNames 支持逗号分隔的字符串或字符串数组，去重并转小写
func ParseTagNames(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	seen := make(map[string]bool, len(parts))
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" || len([]rune(name)) > maxTagLength || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// findOrCreateTags 按名称查找标签，不存在则创建。并发创建同名标签时以先提交的为准
func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		slug := utils.Slugify(name)
		if slug == "" {
			continue
		}
		tag := models.Tag{Name: name, Slug: slug}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return nil, apperr.Internal("create tag", err)
		}
		if tag.ID == 0 {
			if err := tx.Where("lower(name) = ? OR slug = ?", name, slug).First(&tag).Error; err != nil {
				return nil, apperr.Internal("load tag", err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// attachTags 关联标签并重算 usage_count
func attachTags(tx *gorm.DB, articleID uint, names []string) ([]models.Tag, error) {
	tags, err := findOrCreateTags(tx, names)
	if err != nil || len(tags) == 0 {
		return tags, err
	}
	ids := make([]uint, 0, len(tags))
	for _, tag := range tags {
		link := models.ArticleTag{ArticleID: articleID, TagID: tag.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return nil, apperr.Internal("attach tag", err)
		}
		ids = append(ids, tag.ID)
	}
	return tags, recountTagUsage(tx, ids)
}

// replaceTags 替换文章的全部标签
func replaceTags(tx *gorm.DB, articleID uint, names []string) ([]models.Tag, error) {
	var oldIDs []uint
	if err := tx.Model(&models.ArticleTag{}).Where("article_id = ?", articleID).Pluck("tag_id", &oldIDs).Error; err != nil {
		return nil, apperr.Internal("load article tags", err)
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleTag{}).Error; err != nil {
		return nil, apperr.Internal("detach tags", err)
	}
	tags, err := attachTags(tx, articleID, names)
	if err != nil {
		return nil, err
	}
	return tags, recountTagUsage(tx, oldIDs)
}

// recountTagUsage usage_count 等于关联文章数
func recountTagUsage(tx *gorm.DB, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	err := tx.Exec(`UPDATE tags SET usage_count = (
		SELECT COUNT(*) FROM article_tags WHERE article_tags.tag_id = tags.id
	) WHERE id IN ?`, tagIDs).Error
	if err != nil {
		return apperr.Internal("recount tag usage", err)
	}
	return nil
}

// Popular usage_count > 0 的标签，按使用次数降序
func (s *TagService) Popular(ctx context.Context, page utils.Page) ([]models.Tag, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Tag{}).Where("usage_count > 0").Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count tags", err)
	}
	var tags []models.Tag
	err := base.Order("usage_count DESC, name ASC").Offset(page.Offset()).Limit(page.Limit()).Find(&tags).Error
	if err != nil {
		return nil, 0, apperr.Internal("list tags", err)
	}
	return tags, total, nil
}

// Resolve 先按 slug 查找，找不到且参数是数字时再按 id 查找
func (s *TagService) Resolve(ctx context.Context, key string) (*models.Tag, error) {
	var tag models.Tag
	err := resolveSlugOrID(s.db.WithContext(ctx), &tag, key)
	if err != nil {
		return nil, apperr.FromDB(err, "Tag", "")
	}
	return &tag, nil
}

// ArticleCount 带此标签的已发布文章数
func (s *TagService) ArticleCount(ctx context.Context, tagID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Article{}).
		Joins("JOIN article_tags ON article_tags.article_id = articles.id").
		Where("article_tags.tag_id = ? AND articles.status = ?", tagID, models.StatusPublished).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Internal("count tag articles", err)
	}
	return count, nil
}

// resolveSlugOrID 两步查找: slug 优先，数字 id 兜底
func resolveSlugOrID(conn *gorm.DB, dest any, key string) error {
	err := conn.Where("slug = ?", key).First(dest).Error
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	id, ok := utils.ParseID(key)
	if !ok {
		return gorm.ErrRecordNotFound
	}
	return conn.First(dest, id).Error
}
