package dto

// ── 认证模块 DTO ──

// SignUpRequest 注册请求；邮箱需为机构邮箱，密码强度由服务层校验
type SignUpRequest struct {
	Email    string `json:"email"    binding:"required,institutional_email"`
	Password string `json:"password" binding:"required"`
}

// SignInRequest 登录请求
type SignInRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyEmailRequest 邮件链接中的验证参数
type VerifyEmailRequest struct {
	Token string `form:"token" binding:"required"`
}
