package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "postboard/docs" // swagger docs
	_ "postboard/internal/domain/auth"
	_ "postboard/internal/domain/common"
	_ "postboard/internal/domain/like"
	_ "postboard/internal/domain/post"
	_ "postboard/internal/domain/support"
	"postboard/internal/pkg/config"
	"postboard/internal/pkg/middleware"
	"postboard/internal/pkg/realtime"
	"postboard/internal/pkg/registry"
	"postboard/internal/pkg/uploader"
	"postboard/pkg/cache"
	"postboard/pkg/database"
	"postboard/pkg/logger"
	"postboard/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title Postboard API
// @version 1.0
// @description Public post feed with likes, realtime updates and support messages
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// 1. 加载配置
	config.LoadConfig()

	// 2. 初始化日志
	if err := logger.InitLogger(config.GlobalConfig.App.Env, config.GlobalConfig.App.Debug); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. 初始化基础设施
	db := database.InitDatabase()
	rdb := database.InitRedis()
	collector := metrics.GetGlobalCollector()

	poolMonitor := database.NewPoolMonitor(db, collector, 15*time.Second)
	poolMonitor.Start()
	defer poolMonitor.Stop()

	store, err := uploader.NewUploader(context.Background())
	if err != nil {
		logger.Log.Fatal("Failed to init object storage", zap.Error(err))
	}

	// 4. 路由与全局中间件
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.SecurityHeadersMiddleware(),
		cors.New(corsConfig(config.GlobalConfig.Server.CORSOrigins)),
	)

	limit := config.GlobalConfig.RateLimit
	moduleCtx := &registry.ModuleContext{
		DB:       db,
		Redis:    rdb,
		Router:   r,
		Cache:    cache.NewMonitoredCache(cache.NewRedisCache(rdb, "postboard:"), collector),
		Notifier: realtime.NewNotifier(rdb),
		Uploader: store,
		Metrics:  collector,
		Limiter:  middleware.NewIPRateLimiter(rate.Limit(limit.RPS), limit.Burst),
	}

	// 5. 按优先级初始化所有模块
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("Failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + config.GlobalConfig.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 6. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server shutdown error", zap.Error(err))
	}

	if moduleCtx.Cleanup != nil {
		moduleCtx.Cleanup.Stop()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	logger.Log.Info("Server exited")
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.SessionHeader)
	cfg.ExposeHeaders = []string{middleware.SessionHeader, "X-Request-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
