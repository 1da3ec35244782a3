package testutils

import (
	"fmt"
	"testing"
	"time"

	"newsboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func shortID() string {
	return uuid.NewString()[:8]
}

// CreateTestUser 创建普通用户，密码字段不是有效的 bcrypt hash
func CreateTestUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	name := "user_" + shortID()
	u := &models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "x",
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateTestAdmin(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	u := CreateTestUser(t, conn)
	if err := conn.Model(u).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	u.Role = models.RoleAdmin
	return u
}

func CreateTestCategory(t *testing.T, conn *gorm.DB) *models.Category {
	t.Helper()
	id := shortID()
	c := &models.Category{Name: "Category " + id, Slug: "category-" + id}
	if err := conn.Create(c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

// CreateTestArticle 创建已发布文章，createdAt 为零值时使用当前时间
func CreateTestArticle(t *testing.T, conn *gorm.DB, author *models.User, category *models.Category, createdAt time.Time) *models.Article {
	t.Helper()
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	a := &models.Article{
		UserID:     author.ID,
		CategoryID: category.ID,
		Title:      fmt.Sprintf("A test article %s", shortID()),
		URL:        "https://example.com/" + shortID(),
		Domain:     "example.com",
		Status:     models.StatusPublished,
		CreatedAt:  createdAt,
	}
	if err := conn.Create(a).Error; err != nil {
		t.Fatalf("create article: %v", err)
	}
	return a
}

// CreateTestComment 直接插入评论，路径按父评论计算，不更新文章计数
func CreateTestComment(t *testing.T, conn *gorm.DB, article *models.Article, author *models.User, parent *models.Comment) *models.Comment {
	t.Helper()
	c := &models.Comment{
		ArticleID: article.ID,
		UserID:    author.ID,
		Content:   "comment " + shortID(),
		Path:      models.MaterializedPath{},
	}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Path = parent.SubtreePrefix()
		c.Depth = parent.Depth + 1
	}
	if err := conn.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
