package models

import (
	"time"
)

type ActivityType string

const (
	ActivitySubmit   ActivityType = "submit"
	ActivityUpvote   ActivityType = "upvote"
	ActivityDownvote ActivityType = "downvote"
	ActivityComment  ActivityType = "comment"
)

// ActivityPoints 各类行为的积分
var ActivityPoints = map[ActivityType]int{
	ActivitySubmit:   1,
	ActivityComment:  1,
	ActivityUpvote:   0,
	ActivityDownvote: 0,
}

// UserActivity 积分流水，只追加不修改
type UserActivity struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;index" json:"user_id"`
	User           User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActivityType   ActivityType `gorm:"type:varchar(20);not null" json:"activity_type"`
	EntityType     EntityKind   `gorm:"type:varchar(20);not null" json:"entity_type"`
	EntityID       uint         `gorm:"not null" json:"entity_id"`
	Points         int          `gorm:"not null" json:"points"`
	IdempotencyKey *string      `gorm:"size:128;uniqueIndex" json:"-"` // 可选，重放时不重复记账
	CreatedAt      time.Time    `json:"created_at"`
}

func (a *UserActivity) Entity() EntityRef {
	return EntityRef{Kind: a.EntityType, ID: a.EntityID}
}
