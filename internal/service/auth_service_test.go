package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
	"github.com/jafrulamin/Class-Connect/pkg/mail"
)

type authFixture struct {
	svc       AuthService
	cfg       *config.Config
	users     *mockUserRepo
	mailer    *mail.ConsoleMailer
	limiter   *mockLimiter
	blacklist *mockBlacklist
	jwtMgr    *jwt.Manager
}

func setupAuthService(requireVerification bool) *authFixture {
	cfg := newTestConfig()
	cfg.Auth.RequireEmailVerification = requireVerification
	users := newMockUserRepo()
	repo := &repository.Repository{User: users}
	jwtMgr := newTestJWT(cfg)
	mailer := mail.NewConsoleMailer("Class Connect", newTestLogger())
	limiter := newMockLimiter()
	blacklist := &mockBlacklist{}

	return &authFixture{
		svc:       NewAuthService(cfg, repo, jwtMgr, mailer, limiter, blacklist, newTestLogger()),
		cfg:       cfg,
		users:     users,
		mailer:    mailer,
		limiter:   limiter,
		blacklist: blacklist,
		jwtMgr:    jwtMgr,
	}
}

func TestSignUp_Success(t *testing.T) {
	f := setupAuthService(false)

	resp, err := f.svc.SignUp(context.Background(), &dto.SignUpRequest{
		Email:    "  A.B@Hunter.CUNY.edu ",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("期望注册成功，实际错误: %v", err)
	}
	if resp.User.Email != "a.b@hunter.cuny.edu" {
		t.Errorf("期望邮箱规范化为小写，实际: %s", resp.User.Email)
	}
	if !resp.User.EmailVerified {
		t.Error("未开启邮箱验证时应默认已验证")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("期望返回 Token 对")
	}
	if len(f.mailer.Sent()) != 0 {
		t.Error("未开启邮箱验证时不应发送邮件")
	}
}

func TestSignUp_RequiresVerification(t *testing.T) {
	f := setupAuthService(true)

	resp, err := f.svc.SignUp(context.Background(), &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"})
	if err != nil {
		t.Fatalf("期望注册成功，实际错误: %v", err)
	}
	if resp.User.EmailVerified {
		t.Error("开启邮箱验证时新用户应为未验证")
	}
	sent := f.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("期望发送 1 封验证邮件，实际 %d", len(sent))
	}
	if !strings.Contains(sent[0].Text, "/api/v1/auth/verify?token=") {
		t.Errorf("验证邮件应包含验证链接，实际: %s", sent[0].Text)
	}
}

func TestSignUp_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"非机构域名", "a.b@gmail.com", "secret1", ErrInvalidDomain},
		{"伪造后缀", "a.b@cuny.edu.evil.com", "secret1", ErrInvalidDomain},
		{"密码过短", "a.b@cuny.edu", "12345", ErrWeakCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthService(false)
			_, err := f.svc.SignUp(context.Background(), &dto.SignUpRequest{Email: tt.email, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}
}

func TestSignUp_Duplicate(t *testing.T) {
	f := setupAuthService(false)
	ctx := context.Background()

	if _, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"}); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	_, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "X@cuny.edu", Password: "secret2"})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Errorf("期望 ErrDuplicateAccount，实际 %v", err)
	}
}

func TestSignIn(t *testing.T) {
	f := setupAuthService(false)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"}); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	if _, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "nobody@cuny.edu", Password: "secret1"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
	if _, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "x@cuny.edu", Password: "wrong"}); !errors.Is(err, ErrBadCredential) {
		t.Errorf("期望 ErrBadCredential，实际 %v", err)
	}

	resp, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "x@cuny.edu", Password: "secret1"})
	if err != nil {
		t.Fatalf("期望登录成功，实际错误: %v", err)
	}
	claims, err := f.jwtMgr.ParseTokenOfType(resp.AccessToken, jwt.TypeAccess)
	if err != nil {
		t.Fatalf("AccessToken 无法解析: %v", err)
	}
	if claims.Email != "x@cuny.edu" {
		t.Errorf("期望 Token 携带邮箱 x@cuny.edu，实际 %s", claims.Email)
	}
	if _, ok := f.limiter.hits[signInFailPrefix+"x@cuny.edu"]; ok {
		t.Error("登录成功后应清空失败计数")
	}
}

func TestSignIn_RateLimitedAfterFailures(t *testing.T) {
	f := setupAuthService(false)
	ctx := context.Background()
	if _, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"}); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	for i := 0; i < f.cfg.RateLimit.SignInFailures; i++ {
		if _, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "x@cuny.edu", Password: "wrong"}); !errors.Is(err, ErrBadCredential) {
			t.Fatalf("第 %d 次期望 ErrBadCredential，实际 %v", i+1, err)
		}
	}
	_, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "x@cuny.edu", Password: "secret1"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("超过失败次数后期望 ErrRateLimited，实际 %v", err)
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	f := setupAuthService(true)
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	userID := resp.User.ID

	st, err := f.svc.CheckVerification(ctx, userID)
	if err != nil || st.EmailVerified {
		t.Fatalf("验证前期望未验证，实际 %+v, err=%v", st, err)
	}

	token, _ := f.jwtMgr.GenerateVerifyToken(userID, "x@cuny.edu")
	if _, err := f.svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail 失败: %v", err)
	}
	// 重复验证幂等
	if _, err := f.svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("重复 VerifyEmail 应成功，实际: %v", err)
	}

	st, err = f.svc.CheckVerification(ctx, userID)
	if err != nil || !st.EmailVerified {
		t.Errorf("验证后期望已验证，实际 %+v, err=%v", st, err)
	}

	refreshed, err := f.svc.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 失败: %v", err)
	}
	if !refreshed.User.EmailVerified {
		t.Error("刷新后的 Token 应携带最新验证状态")
	}
}

func TestVerifyEmail_RejectsAccessToken(t *testing.T) {
	f := setupAuthService(true)
	token, _ := f.jwtMgr.GenerateAccessToken("u-1", "x@cuny.edu", false)
	if _, err := f.svc.VerifyEmail(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际 %v", err)
	}
}

func TestResendVerification_RateLimited(t *testing.T) {
	f := setupAuthService(true)
	ctx := context.Background()
	resp, _ := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"})

	if err := f.svc.ResendVerification(ctx, resp.User.ID); err != nil {
		t.Fatalf("首次重发应成功，实际: %v", err)
	}
	if err := f.svc.ResendVerification(ctx, resp.User.ID); !errors.Is(err, ErrRateLimited) {
		t.Errorf("窗口内再次重发期望 ErrRateLimited，实际 %v", err)
	}
	if n := len(f.mailer.Sent()); n != 2 {
		t.Errorf("期望共发送 2 封邮件（注册 + 重发），实际 %d", n)
	}
}

func TestResendVerification_AlreadyVerifiedIsNoop(t *testing.T) {
	f := setupAuthService(false)
	ctx := context.Background()
	resp, _ := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "x@cuny.edu", Password: "secret1"})

	for i := 0; i < 2; i++ {
		if err := f.svc.ResendVerification(ctx, resp.User.ID); err != nil {
			t.Fatalf("已验证用户重发应为空操作，实际: %v", err)
		}
	}
	if len(f.mailer.Sent()) != 0 {
		t.Error("已验证用户不应收到邮件")
	}
}

func TestSignOut_BlacklistsToken(t *testing.T) {
	f := setupAuthService(false)
	if err := f.svc.SignOut(context.Background(), "jti-1", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("SignOut 失败: %v", err)
	}
	ttl, ok := f.blacklist.tokens["jti-1"]
	if !ok {
		t.Fatal("期望 JTI 进入黑名单")
	}
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("黑名单 TTL 应为 Token 剩余有效期，实际 %v", ttl)
	}
}

func TestCurrentUser_NotFound(t *testing.T) {
	f := setupAuthService(false)
	if _, err := f.svc.CurrentUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}
