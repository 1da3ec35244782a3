package models

import (
	"time"
)

// MaxCommentLength 评论内容上限（按字符计）
const MaxCommentLength = 10000

type Comment struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	ArticleID uint             `gorm:"not null;index" json:"article_id"`
	Article   *Article         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"article,omitempty"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID  *uint            `gorm:"index" json:"parent_id"` // 根评论为 NULL，创建后不可修改
	Content   string           `gorm:"type:text;not null" json:"content"`
	Path      MaterializedPath `gorm:"type:text;not null;default:''" json:"path"`
	Depth     int              `gorm:"default:0;not null" json:"depth"`
	VoteCount int              `gorm:"default:0;not null" json:"vote_count"`
	IsDeleted bool             `gorm:"default:false;not null;index" json:"is_deleted"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// 直接回复，只加载一层
	Replies []Comment `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies,omitempty"`
	// 非数据库字段，渲染后的内容
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
}

// SubtreePrefix 子孙评论路径的公共前缀，即自身路径加上自身 id
func (c *Comment) SubtreePrefix() MaterializedPath {
	return c.Path.Child(c.ID)
}
