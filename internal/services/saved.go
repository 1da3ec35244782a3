package services

import (
	"context"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedService 用户收藏
type SavedService struct {
	db *gorm.DB
}

func NewSavedService(conn *gorm.DB) *SavedService {
	return &SavedService{db: conn}
}

// Save 收藏文章，重复收藏返回 Conflict
func (s *SavedService) Save(ctx context.Context, userID, articleID uint) (*models.SavedArticle, error) {
	conn := s.db.WithContext(ctx)
	if err := conn.Select("id").First(&models.Article{}, articleID).Error; err != nil {
		return nil, apperr.FromDB(err, "Article", "")
	}
	saved := &models.SavedArticle{UserID: userID, ArticleID: articleID}
	if err := conn.Omit(clause.Associations).Create(saved).Error; err != nil {
		return nil, apperr.FromDB(err, "Article", "Article has already been saved")
	}
	return saved, nil
}

// Remove 只能删除自己的收藏
func (s *SavedService) Remove(ctx context.Context, userID, savedID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", savedID, userID).Delete(&models.SavedArticle{})
	if res.Error != nil {
		return apperr.Internal("remove saved article", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Saved article")
	}
	return nil
}

// List 收藏列表，最新的在前
func (s *SavedService) List(ctx context.Context, userID uint, page utils.Page) ([]models.SavedArticle, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.SavedArticle{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count saved articles", err)
	}
	var saved []models.SavedArticle
	err := base.Preload("Article.User").Preload("Article.Category").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&saved).Error
	if err != nil {
		return nil, 0, apperr.Internal("list saved articles", err)
	}
	return saved, total, nil
}
