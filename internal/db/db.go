package db

import (
	"fmt"
	"time"

	"newsboard/internal/config"
	"newsboard/internal/logger"
	"newsboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 连接数据库并赋值给全局 DB
func Init(conf config.DatabaseConfig) error {
	conn, err := Open(conf)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open 建立连接并配置连接池
func Open(conf config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(conf.URL), &gorm.Config{
		Logger:         getLogger(conf.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(conf.MaxLifetime) * time.Second)

	logger.Log.Info("Database connection established")
	return conn, nil
}

// 不能用 struct tag 表达的索引：大小写不敏感的唯一性、路径前缀查询
var extraIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (lower(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_name_lower ON tags (lower(name))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_parent_name ON categories (COALESCE(parent_id, 0), name)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article_path ON comments (article_id, path text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_subject ON votes (subject_type, subject_id)`,
}

// Migrate 建表并补充索引
func Migrate(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&models.Article{}, "Tags", &models.ArticleTag{}); err != nil {
		return fmt.Errorf("设置关联表失败: %w", err)
	}

	err := conn.AutoMigrate(
		&models.User{},
		&models.UserFollow{},
		&models.Category{},
		&models.CategorySubscription{},
		&models.Tag{},
		&models.Article{},
		&models.ArticleTag{},
		&models.Comment{},
		&models.Vote{},
		&models.SavedArticle{},
		&models.Report{},
		&models.UserActivity{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	for _, stmt := range extraIndexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}
	logger.Log.Info("Database migration completed")
	return nil
}

// SeedCategories 空库时创建预设分类
func SeedCategories(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Log.Debug("Categories already seeded, skipping")
		return nil
	}

	categories := []models.Category{
		{Name: "Technology", Slug: "technology", Description: "Software, hardware and the web", DisplayOrder: 1},
		{Name: "Science", Slug: "science", Description: "Research and discoveries", DisplayOrder: 2},
		{Name: "Business", Slug: "business", Description: "Companies, markets and startups", DisplayOrder: 3},
		{Name: "Culture", Slug: "culture", Description: "Books, film and everything else", DisplayOrder: 4},
	}
	for i := range categories {
		if err := conn.Create(&categories[i]).Error; err != nil {
			logger.Log.WithError(err).Warnf("Failed to create category %s", categories[i].Name)
		}
	}
	logger.Log.Info("Initial categories created successfully")
	return nil
}

func getLogger(level string) gormlogger.Interface {
	switch level {
	case "silent":
		return gormlogger.Default.LogMode(gormlogger.Silent)
	case "error":
		return gormlogger.Default.LogMode(gormlogger.Error)
	case "info":
		return gormlogger.Default.LogMode(gormlogger.Info)
	default:
		return gormlogger.Default.LogMode(gormlogger.Warn)
	}
}
