// Package testutils 集成测试使用的临时数据库和测试数据
package testutils

import (
	"os"
	"strings"
	"testing"

	"newsboard/internal/db"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix = "testonlydb_"
	// 默认管理连接，必须是 key=value 格式，临时库通过追加 dbname 覆盖
	defaultAdminDSN = "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable connect_timeout=3"
)

func adminDSN() string {
	if dsn := os.Getenv("TEST_DB_ADMIN_DSN"); dsn != "" {
		return dsn
	}
	return defaultAdminDSN
}

func open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

// CreateTempDB 为当前测试创建独立数据库并完成迁移，测试结束后删除。
// 连不上 PostgreSQL 时跳过测试。
//
// 测试超时或被中断时库不会被清理，需要手动删除 testonlydb_ 前缀的库。
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()

	admin, err := open(adminDSN())
	if err == nil {
		err = admin.Exec("SELECT 1").Error
	}
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	dbName := TestDBPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := admin.Exec("CREATE DATABASE " + dbName).Error; err != nil {
		t.Fatalf("fail to create temp DB %s: %v", dbName, err)
	}

	conn, err := open(adminDSN() + " dbname=" + dbName)
	if err != nil {
		t.Fatalf("fail to connect to temp DB %s: %v", dbName, err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("fail to migrate temp DB %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		// 先关闭连接才能 DROP
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
		if strings.HasPrefix(dbName, TestDBPrefix) {
			admin.Exec("DROP DATABASE IF EXISTS " + dbName)
		}
		if sqlDB, err := admin.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}
