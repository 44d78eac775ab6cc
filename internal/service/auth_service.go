package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
	"github.com/jafrulamin/Class-Connect/pkg/mail"
)

var (
	ErrInvalidDomain    = errors.New("邮箱不属于机构域名")
	ErrWeakCredential   = errors.New("密码强度不足")
	ErrDuplicateAccount = errors.New("该邮箱已注册")
	ErrBadCredential    = errors.New("密码错误")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrRateLimited      = errors.New("请求过于频繁")
	ErrInvalidToken     = errors.New("Token 无效或已过期")
)

const (
	signInFailPrefix = "auth:signin_fail:"
	resendPrefix     = "auth:verify_resend:"
)

// AuthService 身份适配层
// 负责注册、登录、邮箱验证与会话（JWT 对）生命周期；其他组件只读取 (email, verified)
type AuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.TokenResponse, error)
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error)
	ResendVerification(ctx context.Context, userID string) error
	CheckVerification(ctx context.Context, userID string) (*dto.VerificationResponse, error)
	CurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	SignOut(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	mailer    mail.Mailer
	limiter   RateLimiter
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	mailer mail.Mailer,
	limiter RateLimiter,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		mailer:    mailer,
		limiter:   limiter,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.TokenResponse, error) {
	email := model.NormalizeEmail(req.Email)

	// 1. 机构邮箱 + 密码强度
	if !model.ValidateInstitutionalEmail(email, s.cfg.Institution.RootDomain) {
		return nil, ErrInvalidDomain
	}
	if len(req.Password) < s.cfg.Auth.MinPasswordLength {
		return nil, ErrWeakCredential
	}

	// 2. 邮箱唯一
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 3. 创建档案
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}
	user := &model.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  string(hash),
		EmailVerified: !s.cfg.Auth.RequireEmailVerification,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	// 4. 需要验证时发送验证邮件；发送失败不影响注册，用户可重发
	if !user.EmailVerified {
		if err := s.sendVerification(ctx, user); err != nil {
			s.logger.Warn("发送验证邮件失败", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("用户注册", zap.String("user_id", user.ID), zap.String("email", email))
	return s.issueTokens(user)
}

func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error) {
	email := model.NormalizeEmail(req.Email)
	failKey := signInFailPrefix + email

	// 1. 失败次数限制（Redis 不可用时跳过）
	if s.limiter != nil {
		ok, err := s.limiter.PeekRateLimit(ctx, failKey, s.cfg.RateLimit.SignInFailures, s.cfg.RateLimit.SignInWindow)
		if err != nil {
			s.logger.Warn("读取登录限流失败，放行", zap.Error(err))
		} else if !ok {
			return nil, ErrRateLimited
		}
	}

	// 2. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 3. 校验密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if s.limiter != nil {
			if _, err := s.limiter.CheckRateLimit(ctx, failKey, s.cfg.RateLimit.SignInFailures, s.cfg.RateLimit.SignInWindow); err != nil {
				s.logger.Warn("记录登录失败次数失败", zap.Error(err))
			}
		}
		return nil, ErrBadCredential
	}

	if s.limiter != nil {
		_ = s.limiter.ResetRateLimit(ctx, failKey)
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseTokenOfType(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 重新读取档案，使新 Token 携带最新的验证状态
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error) {
	claims, err := s.jwtMgr.ParseTokenOfType(token, jwt.TypeVerify)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// 邮箱已变更的旧链接不再有效
	if user.Email != claims.Email {
		return nil, ErrInvalidToken
	}

	if !user.EmailVerified {
		if err := s.repo.User.MarkVerified(ctx, user.ID); err != nil {
			s.logger.Error("写入验证标志失败", zap.String("user_id", user.ID), zap.Error(err))
			return nil, err
		}
		user.EmailVerified = true
		s.logger.Info("邮箱验证完成", zap.String("user_id", user.ID))
	}
	return toUserResponse(user), nil
}

func (s *authService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	if s.limiter != nil {
		ok, err := s.limiter.CheckRateLimit(ctx, resendPrefix+user.ID, 1, s.cfg.RateLimit.ResendWindow)
		if err != nil {
			s.logger.Warn("读取重发限流失败，放行", zap.Error(err))
		} else if !ok {
			return ErrRateLimited
		}
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("发送验证邮件失败", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) CheckVerification(ctx context.Context, userID string) (*dto.VerificationResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &dto.VerificationResponse{EmailVerified: user.EmailVerified}, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

// SignOut 将 Access Token 的 JTI 加入黑名单直至其过期
func (s *authService) SignOut(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("加入 Token 黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 内部方法 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Email, user.EmailVerified)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Email, user.EmailVerified)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

func (s *authService) sendVerification(ctx context.Context, user *model.User) error {
	token, err := s.jwtMgr.GenerateVerifyToken(user.ID, user.Email)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.cfg.Server.BaseURL, url.QueryEscape(token))

	return s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Verify your email",
		Text:    "Confirm your institutional email address by opening this link:\n\n" + link,
		HTML:    fmt.Sprintf(`<p>Confirm your institutional email address:</p><p><a href="%s">Verify email</a></p>`, link),
	})
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}
