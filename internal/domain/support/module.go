package support

import (
	"postboard/internal/domain/support/handler"
	"postboard/internal/domain/support/repository"
	"postboard/internal/domain/support/service"
	"postboard/internal/pkg/middleware"
	"postboard/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// SupportModule 访客留言与管理员处理
type SupportModule struct{}

func init() {
	registry.Register(&SupportModule{})
}

func (m *SupportModule) Name() string {
	return "support"
}

func (m *SupportModule) Priority() int {
	return 30
}

func (m *SupportModule) Init(ctx *registry.ModuleContext) error {
	var recorder service.Recorder
	if ctx.Metrics != nil {
		recorder = ctx.Metrics
	}

	supportRepo := repository.NewSupportRepository(ctx.DB)
	supportService := service.NewSupportService(supportRepo, recorder)
	supportHandler := handler.NewSupportHandler(supportService)

	setupRoutes(ctx, supportHandler)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.SupportHandler) {
	submit := []gin.HandlerFunc{}
	if ctx.Limiter != nil {
		submit = append(submit, middleware.RateLimitMiddleware(ctx.Limiter))
	}
	ctx.Router.POST("/support", append(submit, h.Submit)...)

	admin := ctx.Router.Group("/admin/support", ctx.RequireAdmin()...)
	{
		admin.GET("", h.List)
		admin.PATCH("/:id", h.UpdateStatus)
	}
}
