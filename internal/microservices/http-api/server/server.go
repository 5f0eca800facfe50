// Package server assembles the gin router and HTTP server of the API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bookhub/internal/config"
	"bookhub/internal/microservices/http-api/handler"
	"bookhub/internal/microservices/http-api/middleware"
	"bookhub/internal/microservices/http-api/service"
	feed "bookhub/internal/microservices/websocket"
	"bookhub/pkg/metrics"
	"bookhub/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig carries everything the routes are built from.
type RouterConfig struct {
	Config      *config.Config
	Auth        service.AuthService
	Progress    service.ProgressService
	Quiz        service.QuizService
	Rewards     service.RewardsService
	Leaderboard service.LeaderboardService
	Metrics     *metrics.Recorder
	Limiter     *middleware.UserRateLimiter
	// Feed serves the live rewards stream. Optional.
	Feed *feed.Hub
	// Ping reports whether the storage backend is reachable. Optional.
	Ping func(ctx context.Context) error
}

func NewRouter(rc RouterConfig) *gin.Engine {
	cfg := rc.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(tracing.ServiceName))
	}
	router.Use(middleware.Metrics(rc.Metrics))

	router.GET("/health", health(cfg, rc.Ping))
	if cfg.PrometheusEnabled && rc.Metrics != nil {
		router.GET("/metrics", gin.WrapH(rc.Metrics.Handler()))
	}

	authRequired := middleware.AuthMiddleware(rc.Auth)
	var writeLimit []gin.HandlerFunc
	if rc.Limiter != nil {
		writeLimit = append(writeLimit, rc.Limiter.Middleware())
	}

	authHandler := handler.NewAuthHandler(rc.Auth)
	progressHandler := handler.NewProgressHandler(rc.Progress)
	quizHandler := handler.NewQuizHandler(rc.Quiz, rc.Progress)
	rewardsHandler := handler.NewRewardsHandler(rc.Rewards, rc.Leaderboard)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/revoke", authHandler.RevokeToken)

		progressHandler.RegisterRoutes(api.Group("/progress", authRequired), writeLimit...)

		quizzes := api.Group("/quizzes")
		quizzes.GET("/book/:book_id", quizHandler.GetQuiz)
		quizzes.POST("", authRequired, middleware.RequireAdmin(), quizHandler.UpsertQuiz)
		submit := append([]gin.HandlerFunc{authRequired}, writeLimit...)
		quizzes.POST("/submit", append(submit, quizHandler.SubmitQuiz)...)

		api.GET("/rewards/me", authRequired, rewardsHandler.GetMyRewards)
		api.GET("/leaderboard", rewardsHandler.Leaderboard)

		admin := api.Group("/admin", authRequired, middleware.RequireAdmin())
		admin.POST("/rewards", rewardsHandler.AwardPoints)

		if rc.Feed != nil {
			api.GET("/feed", authRequired, feed.WSHandler(rc.Feed, cfg.AllowedOrigins()))
		}
	}

	return router
}

func health(cfg *config.Config, ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "storage": cfg.StorageDriver}
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status["status"] = "degraded"
				status["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}
		c.JSON(http.StatusOK, status)
	}
}

// NewHTTPServer wraps the router with the timeouts used in production.
func NewHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
