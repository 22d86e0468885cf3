package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"crownside/backend/config"
	"crownside/backend/internal/api/handler"
	"crownside/backend/internal/api/middleware"
	"crownside/backend/internal/model"
	"crownside/backend/pkg/jwt"
	"crownside/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录/注册限流）
		loginLimiter := middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateLimitWindow)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", loginLimiter, h.Auth.Register)
			auth.POST("/login", loginLimiter, h.Auth.Login)
			auth.POST("/refresh", loginLimiter, h.Auth.RefreshToken)
		}

		// 可用性查询（公开：客户端预约页无需登录即可浏览档期）
		availability := v1.Group("/availability")
		{
			availability.GET("/:stylistId", h.Availability.GetAvailability)
			availability.GET("/:stylistId/zones", h.Availability.GetZones)
			availability.GET("/:stylistId/slots", h.Availability.GetSlots)
		}

		// 视图日期计算（公开辅助接口）
		v1.GET("/calendar/view-days", h.Calendar.VisibleDays)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 可用性维护（造型师本人）
			stylistOnly := middleware.RoleAuth(model.RoleStylist, model.RoleAdmin)
			authorized.PUT("/availability/schedule", stylistOnly, h.Availability.SaveSchedule)
			authorized.POST("/availability/exception", stylistOnly, h.Availability.AddException)

			// 日历模块
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/events", stylistOnly, h.Calendar.ListEvents)
				calendar.GET("/snapshot", stylistOnly, h.Calendar.RangeSnapshot)
				calendar.POST("/slot-click", h.Calendar.ResolveSlotClick)
				calendar.POST("/blockout", stylistOnly, h.Calendar.CreateBlockout)
				calendar.GET("/feed.ics", stylistOnly, h.Export.ICSFeed)
			}

			// 预约模块
			authorized.POST("/bookings", h.Calendar.CreateBooking)
			authorized.DELETE("/bookings/:id", h.Calendar.CancelBooking)

			// 评论模块
			comments := authorized.Group("/comments")
			{
				comments.GET("", h.Comment.List)
				comments.POST("", h.Comment.Create)
				comments.DELETE("/:id", h.Comment.Remove)
				comments.PUT("/:id/like", h.Comment.Like)
				comments.DELETE("/:id/like", h.Comment.Unlike)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/bookings", stylistOnly, h.Export.ExportBookings)
			}
		}
	}

	return r
}
