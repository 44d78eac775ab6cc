package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 版本记录表，与业务表（courses / user_courses / polls ...）分开命名
const migrationsTable = "class_connect_schema_migrations"

// RunMigrations 将课程群聊库结构升级到最新版本
// 上次迁移中断（dirty）时拒绝继续，需人工 force 修复
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌的课程库迁移脚本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("连接课程库迁移目标失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("创建课程库迁移器失败: %w", err)
	}

	if before, dirty, verr := m.Version(); verr == nil && dirty {
		return fmt.Errorf("课程库迁移版本 %d 处于 dirty 状态，请先执行 migrate force", before)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("课程库结构已是最新")
	case err != nil:
		return fmt.Errorf("升级课程库结构失败: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("读取课程库迁移版本失败: %w", err)
	}
	logger.Info("课程库迁移完成", zap.Uint("version", version), zap.String("table", migrationsTable))
	return nil
}
