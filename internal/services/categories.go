package services

import (
	"context"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(conn *gorm.DB) *CategoryService {
	return &CategoryService{db: conn}
}

// ListRoots 顶级分类及其子分类，按 display_order、name 排序
func (s *CategoryService) ListRoots(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, name ASC")
		}).
		Where("parent_id IS NULL").
		Order("display_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return categories, nil
}

// Resolve 先按 slug 查找，再按数字 id 查找
func (s *CategoryService) Resolve(ctx context.Context, key string) (*models.Category, error) {
	var category models.Category
	if err := resolveSlugOrID(s.db.WithContext(ctx), &category, key); err != nil {
		return nil, apperr.FromDB(err, "Category", "")
	}
	return &category, nil
}

// Detail 分类详情，附带子分类、父分类、文章数和订阅数
func (s *CategoryService) Detail(ctx context.Context, key string) (*models.Category, *models.Category, error) {
	category, err := s.Resolve(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	conn := s.db.WithContext(ctx)
	if err := conn.Where("parent_id = ?", category.ID).Order("display_order ASC, name ASC").
		Find(&category.Subcategories).Error; err != nil {
		return nil, nil, apperr.Internal("load subcategories", err)
	}

	var parent *models.Category
	if category.ParentID != nil {
		var p models.Category
		if err := conn.First(&p, *category.ParentID).Error; err == nil {
			parent = &p
		}
	}

	if err := conn.Model(&models.Article{}).
		Where("category_id = ? AND status = ?", category.ID, models.StatusPublished).
		Count(&category.ArticleCount).Error; err != nil {
		return nil, nil, apperr.Internal("count articles", err)
	}
	if err := conn.Model(&models.CategorySubscription{}).
		Where("category_id = ?", category.ID).
		Count(&category.SubscriberCount).Error; err != nil {
		return nil, nil, apperr.Internal("count subscribers", err)
	}
	return category, parent, nil
}

// Subscribe 订阅分类，重复订阅不报错
func (s *CategoryService) Subscribe(ctx context.Context, userID, categoryID uint) error {
	sub := models.CategorySubscription{UserID: userID, CategoryID: categoryID}
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&sub).Error
	return apperr.FromDB(err, "Category", "Already subscribed")
}

// Unsubscribe 取消订阅，未订阅时返回 NotFound
func (s *CategoryService) Unsubscribe(ctx context.Context, userID, categoryID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&models.CategorySubscription{})
	if res.Error != nil {
		return apperr.Internal("unsubscribe", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.Error{Kind: apperr.KindNotFound, Msg: "Not subscribed to this category"}
	}
	return nil
}

// Create 新建分类，slug 为空时由名称生成
func (s *CategoryService) Create(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return apperr.Validation("Validation failed", "Name can't be blank")
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	if c.Slug == "" {
		return apperr.Validation("Validation failed", "Slug can't be blank")
	}
	if c.ParentID != nil {
		var parent models.Category
		if err := s.db.WithContext(ctx).Select("id", "parent_id").First(&parent, *c.ParentID).Error; err != nil {
			return apperr.FromDB(err, "Parent category", "")
		}
		if parent.ParentID != nil {
			return apperr.Validation("Validation failed", "Parent must be a top-level category")
		}
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
	return apperr.FromDB(err, "Category", "Slug has already been taken")
}
