package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/amotaal/galla-gold-next-sub003/config"
	"github.com/amotaal/galla-gold-next-sub003/handlers"
	"github.com/amotaal/galla-gold-next-sub003/kyc"
	"github.com/amotaal/galla-gold-next-sub003/middleware"
	"github.com/amotaal/galla-gold-next-sub003/pricing"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

// developmentSpotPrice is used when no spot feed is configured. Production
// deployments must set SPOT_FEED_URL; gold is priced off a live market.
var developmentSpotPrice = decimal.RequireFromString("2350.00")

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log("msg", "failed to load config", "err", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log("msg", "failed to connect to database", "err", err)
		os.Exit(1)
	}

	// Exchange rates: feed if configured, static table otherwise, behind
	// a staleness-window cache.
	var provider rates.Provider
	if cfg.RateFeedURL != "" {
		provider = rates.NewFeedProvider(cfg.RateFeedURL)
	} else {
		provider = rates.NewStaticProvider()
	}
	provider = rates.NewCachingProvider(cfg.RateCacheTTL, provider)
	provider = rates.NewLoggingProvider(log.With(logger, "component", "rates"), provider)
	converter := rates.NewConverter(provider)

	var spot pricing.SpotSource
	if cfg.SpotFeedURL != "" {
		spot = pricing.NewFeedSpotSource(cfg.SpotFeedURL)
	} else {
		spot = pricing.NewStaticSpotSource(developmentSpotPrice)
	}
	engine := pricing.NewEngine(spot, converter, cfg.Fees)

	kycService := kyc.NewService(db, log.With(logger, "component", "kyc"))

	// Setup router
	router := gin.Default()
	router.Use(middleware.Metrics())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "galla-gold-api",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(db, cfg)
	tradingHandler := handlers.NewTradingHandler(db, engine, converter, kycService)
	kycHandler := handlers.NewKYCHandler(kycService)

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)

		// Public market data
		api.GET("/gold/price", tradingHandler.GetPrice)
		api.GET("/currencies", tradingHandler.ListCurrencies)
		api.POST("/gold/quote/buy", tradingHandler.QuoteBuy)
		api.POST("/gold/quote/sell", tradingHandler.QuoteSell)
		api.POST("/gold/quote/delivery", tradingHandler.QuoteDelivery)

		authed := api.Group("", middleware.JwtAuthMiddleware(cfg))
		{
			authed.POST("/gold/buy", tradingHandler.Buy)
			authed.POST("/gold/sell", tradingHandler.Sell)
			authed.GET("/portfolio", tradingHandler.Portfolio)
			authed.GET("/transactions", tradingHandler.Transactions)

			authed.GET("/kyc", kycHandler.GetMine)
			authed.POST("/kyc", kycHandler.Create)
			authed.POST("/kyc/submit", kycHandler.Submit)
			authed.POST("/kyc/documents", kycHandler.AddDocument)
			authed.DELETE("/kyc/documents/:type", kycHandler.RemoveDocument)

			admin := authed.Group("/admin/kyc")
			{
				admin.GET("/pending", middleware.RequireReviewAccess(), kycHandler.Pending)
				admin.GET("/expiring", middleware.RequireReviewAccess(), kycHandler.Expiring)
				admin.POST("/:userID/approve", kycHandler.Approve)
				admin.POST("/:userID/reject", kycHandler.Reject)
				admin.POST("/:userID/documents/:type/review", kycHandler.ReviewDocument)
			}
		}
	}

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Log("msg", "starting galla-gold API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		logger.Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}
