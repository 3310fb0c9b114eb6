package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/postjournal/config"
	_ "github.com/d60-Lab/postjournal/docs"
	"github.com/d60-Lab/postjournal/internal/api/handler"
	"github.com/d60-Lab/postjournal/internal/middleware"
	"github.com/d60-Lab/postjournal/pkg/logger"
	"github.com/d60-Lab/postjournal/pkg/validator"
)

// NewRouter 注册中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, tokens middleware.TokenValidator) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if err := validator.Register(); err != nil {
		logger.Warn("register custom validators failed", zap.Error(err))
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	r.GET("/health", h.Health)
	if cfg.Swagger.Enabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.Auth(tokens)
	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	if cfg.RateLimit.Enabled {
		authGroup.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", requireAuth, h.Logout)

	users := v1.Group("/users", requireAuth)
	users.GET("/me", h.Me)
	users.DELETE("/me", h.DeleteMe)
	users.PATCH("/me/username", h.UpdateUsername)
	users.PATCH("/me/email", h.UpdateEmail)
	users.PATCH("/me/password", h.UpdatePassword)
	users.GET("/me/:field", h.MeField)
	users.GET("/:user_id/journal", h.Journal)

	posts := v1.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.POST("", requireAuth, h.CreatePost)
	posts.GET("/:post_id", h.GetPost)
	posts.DELETE("/:post_id", requireAuth, h.DeletePost)
	posts.GET("/:post_id/comments", h.ListComments)
	posts.POST("/:post_id/comments", requireAuth, h.CreateComment)

	v1.GET("/analytics/comments-daily", h.CommentsDaily)

	return r
}
