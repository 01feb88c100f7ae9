package auth

import (
	"postboard/internal/domain/auth/handler"
	"postboard/internal/domain/auth/repository"
	"postboard/internal/domain/auth/service"
	"postboard/internal/pkg/config"
	"postboard/internal/pkg/registry"
)

// AuthModule 认证模块
type AuthModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&AuthModule{})
}

func (m *AuthModule) Name() string {
	return "auth"
}

func (m *AuthModule) Priority() int {
	// 其他模块依赖这里填充的 Tokens/Roles
	return 1
}

func (m *AuthModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	authService := service.NewAuthService(userRepo, ctx.Cache, config.GlobalConfig.App.AdminCode)
	authHandler := handler.NewAuthHandler(authService)

	ctx.Tokens = authService
	ctx.Roles = authService

	// 2. 路由注册
	setupRoutes(ctx, authHandler)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.AuthHandler) {
	r := ctx.Router

	// 公开路由
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/login", h.Login)
	}

	// 受保护的路由
	sessionGroup := r.Group("/auth", ctx.RequireAuth())
	{
		sessionGroup.POST("/logout", h.Logout)
		sessionGroup.GET("/session", h.Session)
	}

	r.POST("/admin/grant", ctx.RequireAuth(), h.GrantAdmin)
}
