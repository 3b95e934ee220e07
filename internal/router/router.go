package router

import (
	"net/http"
	"rewear/internal/config"
	"rewear/internal/handlers"
	"rewear/internal/logger"
	"rewear/internal/metrics"
	"rewear/internal/middleware"
	"rewear/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps 路由所需的依赖
type Deps struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	DB       *gorm.DB
	Services *services.Services
	Metrics  *metrics.Metrics
}

// New 创建 gin 引擎，注册中间件与全部路由
func New(d Deps) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Requests(d.Log))
	r.Use(d.Metrics.Middleware())

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(d.Config.SessionName, store))
	r.Use(middleware.LoadUser(d.Services.Users, d.Log))

	RegisterRoutes(r, d)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	svc := d.Services
	authHandler := handlers.NewAuthHandler(svc.Users, d.Log)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Catalog, d.Log)
	itemHandler := handlers.NewItemHandler(svc.Catalog, svc.Exchange, svc.Reports, d.Log)
	swapHandler := handlers.NewSwapHandler(svc.Exchange, d.Log)
	adminHandler := handlers.NewAdminHandler(svc.Moderation, svc.Reports, d.Log)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, d.Log)

	loginLimit := middleware.NewRateLimiter(d.Config.LoginRatePerMinute, d.Log).Handler()

	r.Static("/uploads", svc.Storage.Root())          // 上传文件
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler())) // Prometheus
	r.GET("/api/health", handlers.Health(d.DB))       // 健康检查

	api := r.Group("/api")

	// 认证 (Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/register", loginLimit, authHandler.Register)            // 注册
		auth.POST("/login", loginLimit, authHandler.Login)                  // 登录
		auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout) // 退出登录
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)          // 当前用户
	}

	// 公共路由 (Public Routes)
	api.GET("/categories", itemHandler.Categories) // 分类列表
	api.GET("/items", itemHandler.List)            // 物品列表
	api.GET("/items/:id", itemHandler.Detail)      // 物品详情

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/user/profile", userHandler.Profile)       // 个人资料
		authorized.PUT("/user/profile", userHandler.UpdateProfile) // 更新资料
		authorized.GET("/user/points", userHandler.Points)         // 积分记录
		authorized.GET("/items/user", userHandler.Items)           // 我的物品

		authorized.POST("/items", middleware.BodyLimit(d.Config.MaxUploadBytes), itemHandler.Create) // 发布物品
		authorized.POST("/items/:id/redeem", itemHandler.Redeem)                                     // 积分兑换
		authorized.POST("/items/:id/claim", itemHandler.Claim)                                       // 领取捐赠
		authorized.POST("/items/:id/like", itemHandler.Like)                                         // 点赞/取消点赞
		authorized.POST("/items/:id/report", itemHandler.Report)                                     // 举报

		authorized.POST("/swap-requests", swapHandler.Create)            // 发起交换
		authorized.GET("/swap-requests", swapHandler.List)               // 交换请求列表
		authorized.POST("/swap-requests/:id/accept", swapHandler.Accept) // 接受
		authorized.POST("/swap-requests/:id/reject", swapHandler.Reject) // 拒绝

		authorized.GET("/notifications", notificationHandler.List)                  // 通知列表
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)    // 标记单条通知为已读
		authorized.POST("/notifications/read-all", notificationHandler.MarkAllRead) // 全部通知标记为已读
	}

	// 管理后台 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/items/pending", adminHandler.PendingItems)         // 待审核
		admin.POST("/items/:id/approve", adminHandler.Approve)         // 审核通过
		admin.POST("/items/:id/reject", adminHandler.Reject)           // 驳回
		admin.GET("/stats", adminHandler.Stats)                        // 统计
		admin.GET("/reports", adminHandler.Reports)                    // 举报列表
		admin.POST("/reports/:id/resolve", adminHandler.ResolveReport) // 处理举报
		admin.POST("/reports/:id/dismiss", adminHandler.DismissReport) // 忽略举报
	}
}
