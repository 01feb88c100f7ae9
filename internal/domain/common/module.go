package common

import (
	"context"
	"net/http"
	"time"

	"postboard/internal/pkg/registry"
	"postboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// CommonModule 通用功能模块：健康检查、指标与接口文档
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.Router, ctx.DB, ctx.Redis)
	return nil
}

func setupRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client) {
	r.GET("/health", healthCheck(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// HealthStatus 依赖检查结果
type HealthStatus struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Redis    string    `json:"redis"`
	Time     time.Time `json:"time"`
}

// healthCheck 数据库必需；未配置 Redis 时标记为 disabled，不影响整体状态
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := HealthStatus{Status: "healthy", Database: "healthy", Redis: "disabled", Time: time.Now()}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status.Database = "unhealthy"
			status.Status = "unhealthy"
		}
		if rdb != nil {
			status.Redis = "healthy"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status.Redis = "unhealthy"
				status.Status = "unhealthy"
			}
		}

		if status.Status != "healthy" {
			response.ErrorWithData(c, http.StatusServiceUnavailable, response.ErrServerInternal, "Service unavailable", status)
			return
		}
		response.Success(c, status)
	}
}
