package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/cache"
	"github.com/geocoder89/inkpost/internal/chat"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
	"github.com/geocoder89/inkpost/internal/http/handlers"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/geocoder89/inkpost/internal/ratelimit"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName     = "inkpost-api"
	popularCacheTTL = 30 * time.Second
	tagsCacheTTL    = time.Minute
)

// Deps is everything the router wires together. Prom, Metrics, Relay and the
// limiters are optional.
type Deps struct {
	Config config.Config
	Log    *slog.Logger

	Accounts handlers.AccountRepository
	Posts    handlers.PostRepository
	Tags     handlers.TagRepository
	Comments handlers.CommentRepository

	JWT *auth.Manager

	Prom    *observability.Prom
	Metrics prometheus.Gatherer

	Relay *chat.Relay

	GlobalLimiter ratelimit.Limiter
	AuthLimiter   ratelimit.Limiter

	Checks map[string]handlers.PingFunc

	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	if d.GlobalLimiter == nil {
		d.GlobalLimiter = ratelimit.NewMemory(cfg.RateLimitPerMinute, time.Minute)
	}
	if d.AuthLimiter == nil {
		d.AuthLimiter = ratelimit.NewMemory(cfg.AuthRateLimitPerMinute, time.Minute)
	}

	r := gin.New()

	// middleware

	r.Use(middlewares.Recovery(log, cfg.IsDev()))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log, "/healthz", "/readyz", "/metrics"))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/chat/ws", "/metrics"})))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health + metrics stay outside the rate limit

	h := handlers.NewHealthHandler(d.Checks, d.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	// wire up middleware + handlers

	authMw := middlewares.NewAuthMiddleware(d.JWT, d.Accounts)
	own := middlewares.NewOwnership(d.Posts, d.Comments)

	tagsCache := cache.New[[]tag.Tag](tagsCacheTTL)
	popularCache := cache.New[[]post.Post](popularCacheTTL)

	authHandler := handlers.NewAuthHandler(d.Accounts, d.JWT)
	accountsHandler := handlers.NewAccountsHandler(d.Accounts, d.Posts)
	postsHandler := handlers.NewPostsHandler(d.Posts, d.Tags, popularCache, tagsCache)
	commentsHandler := handlers.NewCommentsHandler(d.Comments, postsHandler)
	tagsHandler := handlers.NewTagsHandler(d.Tags, tagsCache)

	api := r.Group("")
	api.Use(middlewares.RateLimit("global", d.GlobalLimiter, middlewares.KeyByTokenOrIP(d.JWT), d.Prom))

	// auth
	authLimit := middlewares.RateLimit("auth", d.AuthLimiter, middlewares.KeyByIP, d.Prom)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimit, authHandler.Register)
	authGroup.POST("/login", authLimit, authHandler.Login)
	authGroup.POST("/refresh", authLimit, authHandler.Refresh)

	me := authGroup.Group("/me")
	me.Use(authMw.RequireAuth())
	me.GET("", authHandler.Me)
	me.PATCH("", authHandler.UpdateProfile)
	me.PUT("/password", authHandler.ChangePassword)

	// accounts
	api.GET("/accounts/:id", accountsHandler.GetPublic)

	admin := api.Group("/admin")
	admin.Use(authMw.RequireAuth())
	admin.PATCH("/accounts/:id/active", middlewares.RequirePermission(account.PermissionManageAccounts), accountsHandler.SetActive)
	admin.GET("/stats", middlewares.RequirePermission(account.PermissionViewStats), accountsHandler.Stats)

	// posts
	posts := api.Group("/posts")
	posts.GET("", authMw.OptionalAuth(), postsHandler.List)
	posts.GET("/popular", postsHandler.Popular)
	posts.GET("/trending", postsHandler.Trending)
	posts.GET("/mine", authMw.RequireAuth(), postsHandler.Mine)
	posts.GET("/:id", authMw.OptionalAuth(), postsHandler.Get)
	posts.POST("", authMw.RequireAuth(), postsHandler.Create)

	owned := posts.Group("")
	owned.Use(authMw.RequireAuth(), own.RequirePostOwner("id"))
	owned.PUT("/:id", postsHandler.Update)
	owned.PATCH("/:id", postsHandler.Update)
	owned.DELETE("/:id", postsHandler.Delete)

	posts.POST("/:id/like", authMw.RequireAuth(), postsHandler.Like)
	posts.GET("/:id/comments", authMw.OptionalAuth(), commentsHandler.List)
	posts.POST("/:id/comments", authMw.RequireAuth(), commentsHandler.Create)

	// comments
	api.DELETE("/comments/:id", authMw.RequireAuth(), own.RequireCommentOwner("id"), commentsHandler.Delete)

	// tags
	api.GET("/tags", tagsHandler.List)
	api.POST("/tags", authMw.RequireAuth(), middlewares.RequirePermission(account.PermissionManageTaxonomy), tagsHandler.Create)

	// chat
	if d.Relay != nil {
		chatHandler := chat.NewHandler(authMw, d.Relay, d.Prom, cfg.CORSAllowedOrigins)
		api.GET("/chat/ws", chatHandler.Connect)
	}

	return r
}
