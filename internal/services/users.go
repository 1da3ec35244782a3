package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
)

var ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")

type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// ProfileUpdate 可修改的个人资料字段，nil 表示不修改
type ProfileUpdate struct {
	Bio        *string
	WebsiteURL *string
	AvatarURL  *string
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(conn *gorm.DB) *UserService {
	return &UserService{db: conn}
}

func validateRegistration(in RegisterInput) []string {
	var details []string
	n := utf8.RuneCountInString(in.Username)
	switch {
	case n == 0:
		details = append(details, "Username can't be blank")
	case n < minUsernameLength:
		details = append(details, "Username is too short (minimum is 3 characters)")
	case n > maxUsernameLength:
		details = append(details, "Username is too long (maximum is 30 characters)")
	}
	if in.Email == "" {
		details = append(details, "Email can't be blank")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details = append(details, "Email is invalid")
	}
	if len(in.Password) < minPasswordLength {
		details = append(details, "Password is too short (minimum is 6 characters)")
	}
	if in.PasswordConfirmation != "" && in.PasswordConfirmation != in.Password {
		details = append(details, "Password confirmation doesn't match Password")
	}
	return details
}

// Register 注册新用户，用户名和邮箱大小写不敏感唯一
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if details := validateRegistration(in); len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	conn := s.db.WithContext(ctx)
	var details []string
	var count int64
	conn.Model(&models.User{}).Where("lower(username) = lower(?)", in.Username).Count(&count)
	if count > 0 {
		details = append(details, "Username has already been taken")
	}
	conn.Model(&models.User{}).Where("lower(email) = lower(?)", in.Email).Count(&count)
	if count > 0 {
		details = append(details, "Email has already been taken")
	}
	if len(details) > 0 {
		return nil, &apperr.Error{Kind: apperr.KindConflict, Msg: "Validation failed", Details: details}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	// 并发注册时由唯一索引兜底
	if err := conn.Create(user).Error; err != nil {
		return nil, apperr.FromDB(err, "User", "Username or email has already been taken")
	}
	return user, nil
}

// Authenticate 邮箱（大小写不敏感）加密码登录
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("lower(email) = lower(?)", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 查询用户并填充关注数
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	conn := s.db.WithContext(ctx)
	var user models.User
	if err := conn.First(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "User", "")
	}
	if err := conn.Model(&models.UserFollow{}).Where("followed_id = ?", id).Count(&user.FollowersCount).Error; err != nil {
		return nil, apperr.Internal("count followers", err)
	}
	if err := conn.Model(&models.UserFollow{}).Where("follower_id = ?", id).Count(&user.FollowingCount).Error; err != nil {
		return nil, apperr.Internal("count following", err)
	}
	return &user, nil
}

// UpdateProfile 修改简介、个人网站、头像
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	var details []string
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > 500 {
			details = append(details, "Bio is too long (maximum is 500 characters)")
		}
		updates["bio"] = *in.Bio
	}
	if in.WebsiteURL != nil {
		if *in.WebsiteURL != "" && !utils.ValidHTTPURL(*in.WebsiteURL) {
			details = append(details, "Website url is invalid")
		}
		updates["website_url"] = *in.WebsiteURL
	}
	if in.AvatarURL != nil {
		if *in.AvatarURL != "" && !utils.ValidHTTPURL(*in.AvatarURL) {
			details = append(details, "Avatar url is invalid")
		}
		updates["avatar_url"] = *in.AvatarURL
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, apperr.Internal("update user", res.Error)
		}
	}
	return s.Get(ctx, id)
}

// ListActive 活跃用户，按 karma 降序
func (s *UserService) ListActive(ctx context.Context, page utils.Page) ([]models.User, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count users", err)
	}
	var users []models.User
	err := base.Order("karma_score DESC, id ASC").Offset(page.Offset()).Limit(page.Limit()).Find(&users).Error
	if err != nil {
		return nil, 0, apperr.Internal("list users", err)
	}
	return users, total, nil
}

// Follow 关注用户。不能关注自己，重复关注返回 Conflict
func (s *UserService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return apperr.Validation("Validation failed", "You cannot follow yourself")
	}
	conn := s.db.WithContext(ctx)
	if err := conn.Select("id").First(&models.User{}, followedID).Error; err != nil {
		return apperr.FromDB(err, "User", "")
	}
	follow := models.UserFollow{FollowerID: followerID, FollowedID: followedID}
	err := conn.Omit(clause.Associations).Create(&follow).Error
	return apperr.FromDB(err, "User", "Already following this user")
}

// Unfollow 取消关注，未关注时返回 NotFound
func (s *UserService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.UserFollow{})
	if res.Error != nil {
		return apperr.Internal("unfollow", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.Error{Kind: apperr.KindNotFound, Msg: "Not following this user"}
	}
	return nil
}

// Followers 关注 userID 的用户
func (s *UserService) Followers(ctx context.Context, userID uint, page utils.Page) ([]models.User, int64, error) {
	return s.listFollows(ctx, "user_follows.follower_id", "user_follows.followed_id = ?", userID, page)
}

// Following userID 关注的用户
func (s *UserService) Following(ctx context.Context, userID uint, page utils.Page) ([]models.User, int64, error) {
	return s.listFollows(ctx, "user_follows.followed_id", "user_follows.follower_id = ?", userID, page)
}

func (s *UserService) listFollows(ctx context.Context, joinCol, cond string, userID uint, page utils.Page) ([]models.User, int64, error) {
	conn := s.db.WithContext(ctx)
	if err := conn.Select("id").First(&models.User{}, userID).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "User", "")
	}
	base := conn.Model(&models.User{}).
		Joins("JOIN user_follows ON users.id = "+joinCol).
		Where(cond, userID).
		Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count follows", err)
	}
	var users []models.User
	err := base.Order("user_follows.created_at DESC").Offset(page.Offset()).Limit(page.Limit()).Find(&users).Error
	if err != nil {
		return nil, 0, apperr.Internal("list follows", err)
	}
	return users, total, nil
}
