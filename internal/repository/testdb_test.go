package repository_test

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// newTestDB 每个测试独立的内存 SQLite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Membership{},
		&model.Message{},
		&model.Resource{},
		&model.Poll{},
		&model.PollOption{},
		&model.PollVote{},
	); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }
