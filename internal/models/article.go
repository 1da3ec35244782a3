package models

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusPublished = "published"
)

// statusRank 审核状态只能向前推进
var statusRank = map[string]int{
	StatusPending:   0,
	StatusApproved:  1,
	StatusPublished: 2,
}

type Article struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	Category     Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	URL          string    `gorm:"not null" json:"url"`
	Domain       string    `gorm:"size:255;index" json:"domain"`
	Description  string    `gorm:"type:text" json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Status       string    `gorm:"size:20;default:'pending';not null;index" json:"status"`
	VoteCount    int       `gorm:"default:0;not null" json:"vote_count"`
	CommentCount int       `gorm:"default:0;not null" json:"comment_count"`
	ViewCount    int       `gorm:"default:0;not null" json:"view_count"`
	HotnessScore float64   `gorm:"default:0;not null;index" json:"hotness_score"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tags []Tag `gorm:"many2many:article_tags;" json:"tags"`
	// 非数据库字段，渲染后的描述
	DescriptionHTML string `gorm:"-" json:"description_html,omitempty"`
}

// ValidStatus 判断状态名是否合法
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition 只允许 pending -> approved -> published 方向的推进
func CanTransition(from, to string) bool {
	f, ok1 := statusRank[from]
	t, ok2 := statusRank[to]
	return ok1 && ok2 && t > f
}

// SavedArticle 用户收藏的文章
type SavedArticle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_article" json:"user_id"`
	ArticleID uint      `gorm:"not null;uniqueIndex:idx_user_article" json:"article_id"`
	Article   Article   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"article"`
	CreatedAt time.Time `json:"created_at"`
}
