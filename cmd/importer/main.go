// Command importer 将抓取脚本输出的课程数据（JSON 或 XLSX）导入课程目录。
//
//	importer -file courses.json -term 1259
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/database"
	applogger "github.com/jafrulamin/Class-Connect/pkg/logger"
)

func main() {
	file := flag.String("file", "", "课程数据文件（.json 或 .xlsx）")
	term := flag.String("term", "1259", "学期代码")
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "缺少 -file 参数")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger, err := applogger.NewLogger(&cfg.Log, "class-connect-importer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	records, err := readRecords(*file)
	if err != nil {
		logger.Fatal("读取课程数据失败", zap.String("file", *file), zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	importer := service.NewImportService(repository.NewRepository(db), logger)
	result, err := importer.Import(context.Background(), *term, records)
	if err != nil {
		logger.Fatal("导入失败", zap.Error(err))
	}

	fmt.Printf("共 %d 条记录，导入 %d 条，跳过 %d 条\n", result.Total, result.Imported, result.Skipped)
}

func readRecords(path string) ([]dto.CourseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return service.ParseCourseJSON(f)
	case ".xlsx":
		return service.ParseCourseXLSX(f)
	default:
		return nil, fmt.Errorf("不支持的文件类型: %s", path)
	}
}
