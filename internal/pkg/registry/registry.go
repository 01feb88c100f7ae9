package registry

import (
	"fmt"
	"sort"

	"postboard/internal/pkg/middleware"
	"postboard/internal/pkg/realtime"
	"postboard/internal/pkg/uploader"
	"postboard/internal/pkg/worker"
	"postboard/pkg/cache"
	"postboard/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine

	Cache    cache.CacheService
	Notifier *realtime.Notifier
	Uploader uploader.Uploader
	Cleanup  *worker.WorkerPool
	Metrics  *metrics.MetricsCollector
	// Limiter 写接口（点赞、留言）共用的每 IP 限流器
	Limiter *middleware.IPRateLimiter

	// 由 auth 模块初始化后填充，供其他模块挂载鉴权中间件
	Tokens middleware.TokenChecker
	Roles  middleware.RoleChecker
}

// RequireAuth JWT 必须
func (c *ModuleContext) RequireAuth() gin.HandlerFunc {
	return middleware.AuthMiddleware(c.Tokens)
}

// RequireAdmin JWT + 管理员角色
func (c *ModuleContext) RequireAdmin() []gin.HandlerFunc {
	return []gin.HandlerFunc{middleware.AuthMiddleware(c.Tokens), middleware.AdminMiddleware(c.Roles)}
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	// auth 模块必须先于依赖鉴权的模块初始化
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// Sorted 按优先级排序，优先级相同时按名称
func Sorted() []Module {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range Sorted() {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}
	return nil
}
