package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SignUp 机构邮箱注册
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isInstitutionalEmailError(err) {
			response.BadRequest(c, 11001, "email must belong to the institution domain")
			return
		}
		response.BadRequest(c, 10001, "validation failed")
		return
	}

	result, err := h.authSvc.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// SignIn 登录
// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "validation failed")
		return
	}

	result, err := h.authSvc.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Refresh 刷新 Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "refresh_token is required")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// VerifyEmail 邮件中的验证链接
// GET /api/v1/auth/verify?token=xxx
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "token is required")
		return
	}

	user, err := h.authSvc.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ResendVerification 重新发送验证邮件
// POST /api/v1/auth/verification/resend
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ResendVerification(c.Request.Context(), userID); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// CheckVerification 查询验证状态
// GET /api/v1/auth/verification
func (h *AuthHandler) CheckVerification(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.CheckVerification(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// GetCurrentUser 当前用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// SignOut 登出，当前 Access Token 加入黑名单
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	jti, exp := GetTokenMeta(c)
	if err := h.authSvc.SignOut(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDomain):
		response.BadRequest(c, 11001, "email must belong to the institution domain")
	case errors.Is(err, service.ErrWeakCredential):
		response.BadRequest(c, 11002, "password is too weak")
	case errors.Is(err, service.ErrDuplicateAccount):
		response.Conflict(c, 11003, "an account with this email already exists")
	case errors.Is(err, service.ErrBadCredential):
		response.Unauthorized(c, 11004, "incorrect password")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "no account found for this email")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11006, "token is invalid or expired")
	case errors.Is(err, service.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, 10004, "too many attempts, try again later")
	default:
		response.InternalError(c)
	}
}
