package handler

import (
	"casino-ledger/internal/adapter/http/middleware"
	redisStore "casino-ledger/internal/adapter/storage/redis"
	"casino-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	GameSvc        ports.GameService
	FeedSvc        ports.FeedService
	ProfileSvc     ports.ProfileService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.FeedSvc)
	v1.GET("/wallet/latest-wins", rl("feed"), walletHandler.LatestWins)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	userHandler := NewUserHandler(deps.ProfileSvc)
	users := v1.Group("/users", jwtAuth)
	{
		users.GET("/me", rl("wallet"), userHandler.Me)
	}

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("/balance", rl("wallet"), walletHandler.Balance)
		wallet.POST("/bet", rl("wallet"), walletHandler.Bet)
		wallet.POST("/credit", rl("wallet"), walletHandler.Credit)
		wallet.POST("/admin-deposit", rl("wallet"), middleware.RequireAdmin(), walletHandler.AdminDeposit)
	}

	gameHandler := NewGameHandler(deps.GameSvc)
	game := v1.Group("/game/blackjack", jwtAuth)
	{
		game.GET("", rl("game"), gameHandler.CurrentRound)
		game.POST("/deal", rl("game"), gameHandler.Deal)
		game.POST("/hit", rl("game"), gameHandler.Hit)
		game.POST("/stand", rl("game"), gameHandler.Stand)
	}

	return r
}
