package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/pkg/jwt"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// TokenChecker 查询 Token 黑名单（pkg/redis.Client 实现）
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// checker 为 nil 时跳过黑名单检查（Redis 不可用）
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseTokenOfType(parts[1], jwt.TypeAccess)
		if err != nil {
			response.Unauthorized(c, 10002, "token is invalid or expired")
			c.Abort()
			return
		}

		if checker != nil {
			revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis 出错时降级放行
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("email_verified", claims.Verified)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireVerified 要求邮箱已验证
// 读取的是 Token 中的验证状态，验证后需刷新 Token 才能通过
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("email_verified") {
			response.Forbidden(c, 11007, "email verification required")
			c.Abort()
			return
		}
		c.Next()
	}
}
