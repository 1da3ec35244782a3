package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:30;not null" json:"username"` // 唯一性由 lower(username) 索引保证
	Email       string    `gorm:"not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `gorm:"size:500" json:"bio"`
	WebsiteURL  string    `json:"website_url"`
	KarmaScore  int       `gorm:"default:0;not null" json:"karma_score"` // user_activities.points 之和
	Role        string    `gorm:"size:20;default:'user';not null" json:"role"`
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	IsVerified  bool      `gorm:"default:false;not null" json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// 非数据库字段，详情接口填充
	FollowersCount int64 `gorm:"-" json:"followers_count,omitempty"`
	FollowingCount int64 `gorm:"-" json:"following_count,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserFollow 关注关系，(follower_id, followed_id) 唯一
type UserFollow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follower_followed" json:"follower_id"`
	Follower   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follower_followed;index" json:"followed_id"`
	Followed   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
