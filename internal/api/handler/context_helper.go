package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CtxUserID        = "user_id"
	CtxEmail         = "email"
	CtxEmailVerified = "email_verified"
	CtxTokenJTI      = "token_jti"
	CtxTokenExp      = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxUserID)
}

// MustGetEmail 从 Gin 上下文中安全提取已规范化的 email。
func MustGetEmail(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxEmail)
}

// GetEmailVerified 当前 Token 声明的验证状态
func GetEmailVerified(c *gin.Context) bool {
	return c.GetBool(CtxEmailVerified)
}

// GetTokenMeta 当前 Access Token 的 JTI 与过期时间
func GetTokenMeta(c *gin.Context) (string, time.Time) {
	return c.GetString(CtxTokenJTI), c.GetTime(CtxTokenExp)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}
