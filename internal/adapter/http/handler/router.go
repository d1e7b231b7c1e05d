package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	QuerySvc       ports.TransactionQueryService
	Currencies     ports.CurrencyRegistry
	RateSvc        ports.RateService
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Mode           string             // gin mode, defaults to release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
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

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl(middleware.GroupAuthRegister), authHandler.Register)
		auth.POST("/login", rl(middleware.GroupAuthLogin), authHandler.Login)
	}

	currencyHandler := NewCurrencyHandler(deps.Currencies, deps.RateSvc)
	v1.GET("/currencies", rl(middleware.GroupWalletRead), currencyHandler.List)

	// --- Bearer-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	walletHandler := NewWalletHandler(deps.LedgerSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("", rl(middleware.GroupWalletRead), walletHandler.GetBalances)
		wallets.GET("/:currency", rl(middleware.GroupWalletRead), walletHandler.GetBalance)
		wallets.POST("/deposit", rl(middleware.GroupWalletWrite), walletHandler.Deposit)
		wallets.POST("/withdraw", rl(middleware.GroupWalletWrite), walletHandler.Withdraw)
		wallets.POST("/swap", rl(middleware.GroupWalletWrite), walletHandler.Swap)
		wallets.POST("/trade", rl(middleware.GroupWalletWrite), walletHandler.Trade)
	}

	transactionHandler := NewTransactionHandler(deps.QuerySvc)
	v1.GET("/transactions", jwtAuth, rl(middleware.GroupWalletRead), transactionHandler.List)

	v1.GET("/fx/rates/:base/:target", jwtAuth, rl(middleware.GroupWalletRead), currencyHandler.GetRate)

	return r
}
