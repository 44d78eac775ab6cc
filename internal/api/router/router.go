package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/api/handler"
	"github.com/jafrulamin/Class-Connect/internal/api/middleware"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
)

// 请求体上限
const maxBodyBytes = 1 << 20

// Deps 路由依赖；Limiter / Checker 为 nil 时限流与黑名单降级放行
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Limiter middleware.Limiter
	Checker middleware.TokenChecker
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg, h := d.Config, d.Handler
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── 旧版接口（无认证，固定远程存储）──
	legacy := r.Group("/api")
	{
		legacy.GET("/courses", h.Legacy.ListCourses)
		legacy.GET("/messages", h.Legacy.ListMessages)
		legacy.POST("/messages", h.Legacy.PostMessage)
		legacy.GET("/user-courses", h.Legacy.ListUserCourses)
		legacy.POST("/user-courses", h.Legacy.JoinCourse)
		legacy.DELETE("/user-courses", h.Legacy.LeaveCourse)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，按 IP 限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(d.Limiter, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow))
		{
			auth.POST("/signup", h.Auth.SignUp)
			auth.POST("/signin", h.Auth.SignIn)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.GET("/verify", h.Auth.VerifyEmail)
		}

		// 课程目录（公开）
		v1.GET("/colleges", h.Course.ListColleges)
		v1.GET("/colleges/:id", h.Course.GetCollege)
		v1.GET("/courses", h.Course.ListCourses)
		v1.GET("/courses/:id", h.Course.GetCourse)
		v1.GET("/courses/:id/calendar", h.Course.ExportCalendar)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Checker))
		{
			authorized.POST("/auth/signout", h.Auth.SignOut)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.GET("/auth/verification", h.Auth.CheckVerification)
			authorized.POST("/auth/verification/resend", h.Auth.ResendVerification)

			// 课程空间
			space := authorized.Group("")
			if cfg.Auth.RequireEmailVerification {
				space.Use(middleware.RequireVerified())
			}
			{
				space.GET("/me/courses", h.Membership.ListMyCourses)
				space.POST("/courses/:id/join", h.Membership.Join)
				space.DELETE("/courses/:id/membership", h.Membership.Leave)

				space.GET("/courses/:id/messages", h.Chat.ListMessages)
				space.POST("/courses/:id/messages", h.Chat.SendMessage)
				space.GET("/courses/:id/messages/last", h.Chat.LastMessage)

				space.GET("/courses/:id/resources", h.Resource.ListResources)
				space.POST("/courses/:id/resources", h.Resource.AddResource)
				space.DELETE("/courses/:id/resources/:resourceId", h.Resource.DeleteResource)

				space.GET("/courses/:id/polls", h.Poll.ListPolls)
				space.POST("/courses/:id/polls", h.Poll.CreatePoll)
				space.GET("/courses/:id/polls/export", h.Poll.ExportResults)
				space.POST("/courses/:id/polls/:pollId/vote", h.Poll.Vote)
				space.DELETE("/courses/:id/polls/:pollId", h.Poll.DeletePoll)
			}
		}
	}

	return r
}
