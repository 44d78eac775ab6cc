package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/api/handler"
	"github.com/jafrulamin/Class-Connect/internal/api/middleware"
	"github.com/jafrulamin/Class-Connect/internal/api/router"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/internal/store"
	"github.com/jafrulamin/Class-Connect/pkg/database"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
	applogger "github.com/jafrulamin/Class-Connect/pkg/logger"
	"github.com/jafrulamin/Class-Connect/pkg/mail"
	"github.com/jafrulamin/Class-Connect/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("CLASSCONNECT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "class-connect")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，限流与 Token 黑名单将不可用，本地存储使用进程内 KV", zap.Error(err))
		rdb = nil
	}

	// 接口变量保持 nil，避免装入 nil 指针
	var (
		kv        store.KV = store.NewMemoryKV()
		limiter   service.RateLimiter
		blacklist service.TokenBlacklist
		checker   middleware.TokenChecker
		ipLimiter middleware.Limiter
	)
	if rdb != nil {
		kv, limiter, blacklist, checker, ipLimiter = rdb, rdb, rdb, rdb, rdb
	}

	// 5. 初始化 JWT 管理器与邮件
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mailer := mail.NewMailer(&cfg.Mail, logger)

	// 6. 依赖注入: Repository → Store → Service → Handler
	repo := repository.NewRepository(db)
	remote := store.NewRemoteProvider(repo, logger)

	var space store.Provider = remote
	if cfg.Storage.Backend == config.StorageLocal {
		space = store.NewLocalProvider(kv, logger)
	}

	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repo,
		Space:     space,
		Remote:    remote,
		JWT:       jwtMgr,
		Mailer:    mailer,
		Limiter:   limiter,
		Blacklist: blacklist,
		Logger:    logger,
	})
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	if err := handler.RegisterValidators(cfg.Institution.RootDomain); err != nil {
		logger.Fatal("注册校验器失败", zap.Error(err))
	}
	engine := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     jwtMgr,
		Limiter: ipLimiter,
		Checker: checker,
		Logger:  logger,
	})

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
