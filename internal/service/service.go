package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/internal/store"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
	"github.com/jafrulamin/Class-Connect/pkg/mail"
)

// RateLimiter 滑动窗口限流（pkg/redis.Client 实现）
type RateLimiter interface {
	// CheckRateLimit 记录一次并返回是否仍在限额内
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// PeekRateLimit 仅查询，不记录
	PeekRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

// TokenBlacklist 已注销 Token 的黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps 构建 Service 聚合所需的依赖
// Limiter / Blacklist 为 nil 时对应功能降级（Redis 不可用）
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	Space     store.Provider // /api/v1 课程空间后端（按配置选择）
	Remote    store.Provider // 旧版接口固定使用远程存储
	JWT       *jwt.Manager
	Mailer    mail.Mailer
	Limiter   RateLimiter
	Blacklist TokenBlacklist
	Logger    *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Course     CourseService
	Import     ImportService
	Membership MembershipService
	Chat       ChatService
	Resource   ResourceService
	Poll       PollService
	Legacy     LegacyService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	course := NewCourseService(d.Repo, d.Logger)
	membership := NewMembershipService(d.Space, course, d.Logger)
	return &Service{
		Auth:       NewAuthService(d.Config, d.Repo, d.JWT, d.Mailer, d.Limiter, d.Blacklist, d.Logger),
		Course:     course,
		Import:     NewImportService(d.Repo, d.Logger),
		Membership: membership,
		Chat:       NewChatService(d.Space, d.Logger),
		Resource:   NewResourceService(d.Space, d.Logger),
		Poll:       NewPollService(d.Space, d.Logger),
		Legacy:     NewLegacyService(d.Remote, course, d.Logger),
	}
}
