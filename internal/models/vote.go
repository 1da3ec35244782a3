package models

import (
	"time"
)

// Vote 文章或评论的投票记录，同一用户对同一对象只有一条
type Vote struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SubjectType EntityKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_vote_subject_user,priority:1" json:"subject_type"`
	SubjectID   uint       `gorm:"not null;uniqueIndex:idx_vote_subject_user,priority:2" json:"subject_id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_vote_subject_user,priority:3;index" json:"user_id"`
	User        User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value       int        `gorm:"not null;check:chk_vote_value,value IN (-1, 1)" json:"value"` // 1 or -1
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (v *Vote) Subject() EntityRef {
	return EntityRef{Kind: v.SubjectType, ID: v.SubjectID}
}
