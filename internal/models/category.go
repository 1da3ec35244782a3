package models

import (
	"time"
)

// Category 分类，只支持一层子分类
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ParentID     *uint     `gorm:"index" json:"parent_id"`
	Name         string    `gorm:"not null" json:"name"`
	Slug         string    `gorm:"not null;uniqueIndex" json:"slug"`
	Description  string    `json:"description"`
	DisplayOrder int       `gorm:"default:0;not null" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Subcategories []Category `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"subcategories,omitempty"`
	// 非数据库字段
	ArticleCount    int64 `gorm:"-" json:"article_count"`
	SubscriberCount int64 `gorm:"-" json:"subscriber_count"`
}

// CategorySubscription 用户订阅的分类
type CategorySubscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_category" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CategoryID uint      `gorm:"not null;uniqueIndex:idx_user_category;index" json:"category_id"`
	Category   Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"` // lower(name) 唯一
	Slug       string    `gorm:"not null;uniqueIndex" json:"slug"`
	UsageCount int       `gorm:"default:0;not null" json:"usage_count"` // article_tags 计数
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ArticleTag 文章与标签的关联表
type ArticleTag struct {
	ArticleID uint      `gorm:"primaryKey"`
	TagID     uint      `gorm:"primaryKey;index"`
	CreatedAt time.Time
}
