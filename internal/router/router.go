package router

import (
	"newsboard/internal/auth"
	"newsboard/internal/config"
	"newsboard/internal/handlers"
	"newsboard/internal/middleware"
	"newsboard/internal/services"
	"newsboard/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由需要的依赖，由 cmd/server 或测试组装
type Deps struct {
	Conn     *gorm.DB
	Services *services.Services
	Issuer   *auth.Issuer
	Cache    *utils.TTLCache
	Server   config.ServerConfig
	Limits   config.RateLimitConfig
}

// New 创建 gin.Engine 并注册全部 /api/v1 路由
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(d.Server.CORSOrigins)))

	RegisterRoutes(r, d)
	return r
}

func corsConfig(origins []string) cors.Config {
	conf := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	conf.AddAllowHeaders("Authorization", middleware.RequestIDHeader)
	conf.AddExposeHeaders(middleware.RequestIDHeader, "Retry-After")
	return conf
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	svc := d.Services
	cache := d.Cache
	if cache == nil {
		cache = utils.GetCache()
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Users, d.Issuer)
	userHandler := handlers.NewUserHandler(svc)
	articleHandler := handlers.NewArticleHandler(svc)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	voteHandler := handlers.NewVoteHandler(svc.Votes, cache)
	categoryHandler := handlers.NewCategoryHandler(svc)
	tagHandler := handlers.NewTagHandler(svc)
	savedHandler := handlers.NewSavedHandler(svc.Saved)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	feedHandler := handlers.NewFeedHandler(svc.Ranking, cache)
	healthHandler := handlers.NewHealthHandler(d.Conn)

	api := r.Group("/api/v1")
	api.Use(middleware.LoadUser(d.Issuer, svc.Users.Get))

	// 公共路由 (Public Routes)
	api.GET("/health", healthHandler.Health)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/users", userHandler.List)
	api.GET("/users/:id", userHandler.Show)
	api.GET("/users/:id/articles", userHandler.Articles)
	api.GET("/users/:id/comments", userHandler.Comments)
	api.GET("/users/:id/followers", userHandler.Followers)
	api.GET("/users/:id/following", userHandler.Following)

	api.GET("/articles", articleHandler.List)
	api.GET("/articles/:id", articleHandler.Show)
	api.GET("/articles/:id/comments", commentHandler.ListForArticle)
	api.GET("/comments/:id", commentHandler.Show)
	api.GET("/comments/:id/subtree", commentHandler.Subtree)

	api.GET("/categories", categoryHandler.List)
	api.GET("/categories/:id", categoryHandler.Show)
	api.GET("/categories/:id/articles", categoryHandler.Articles)
	api.GET("/tags", tagHandler.List)
	api.GET("/tags/:id", tagHandler.Show)
	api.GET("/tags/:id/articles", tagHandler.Articles)

	api.GET("/trending", feedHandler.Trending)
	api.GET("/hot", feedHandler.Hot)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)
		authorized.PUT("/users/:id", userHandler.Update)
		authorized.POST("/users/:id/follow", userHandler.Follow)
		authorized.DELETE("/users/:id/follow", userHandler.Unfollow)

		authorized.POST("/articles", articleHandler.Create)
		authorized.PUT("/articles/:id", articleHandler.Update)
		authorized.DELETE("/articles/:id", articleHandler.Delete)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/categories/:id/subscribe", categoryHandler.Subscribe)
		authorized.DELETE("/categories/:id/subscribe", categoryHandler.Unsubscribe)

		authorized.GET("/saved_articles", savedHandler.List)
		authorized.POST("/saved_articles", savedHandler.Create)
		authorized.DELETE("/saved_articles/:id", savedHandler.Delete)

		authorized.POST("/reports", reportHandler.Create)
		authorized.GET("/feed", feedHandler.Feed)
	}

	// 投票和评论按用户限流
	limited := authorized.Group("")
	limited.Use(middleware.RateLimit(d.Limits.VotesPerMinute, d.Limits.Burst))
	{
		limited.POST("/articles/:id/vote", voteHandler.VoteArticle)
		limited.DELETE("/articles/:id/vote", voteHandler.UnvoteArticle)
		limited.POST("/comments/:id/vote", voteHandler.VoteComment)
		limited.DELETE("/comments/:id/vote", voteHandler.UnvoteComment)
		limited.POST("/articles/:id/comments", commentHandler.CreateForArticle)
		limited.POST("/comments/:id/comments", commentHandler.Reply)
	}

	// 管理员路由 (Admin Routes)
	admin := authorized.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.PUT("/articles/:id/status", articleHandler.UpdateStatus)
		admin.POST("/categories", categoryHandler.Create)
		admin.GET("/reports", reportHandler.List)
		admin.PUT("/reports/:id/resolve", reportHandler.Resolve)
		admin.PUT("/reports/:id/dismiss", reportHandler.Dismiss)
		admin.POST("/admin/recompute-hotness", feedHandler.RecomputeHotness)
	}
}
