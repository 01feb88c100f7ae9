package like

import (
	"postboard/internal/domain/like/handler"
	"postboard/internal/domain/like/repository"
	"postboard/internal/domain/like/service"
	"postboard/internal/pkg/middleware"
	"postboard/internal/pkg/realtime"
	"postboard/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// LikeModule 点赞模块：登录用户与匿名访客均可点赞
type LikeModule struct{}

func init() {
	registry.Register(&LikeModule{})
}

func (m *LikeModule) Name() string {
	return "like"
}

func (m *LikeModule) Priority() int {
	return 20
}

func (m *LikeModule) Init(ctx *registry.ModuleContext) error {
	if ctx.Notifier == nil {
		ctx.Notifier = realtime.NewNotifier(ctx.Redis)
	}

	var recorder service.Recorder
	if ctx.Metrics != nil {
		recorder = ctx.Metrics
	}

	likeRepo := repository.NewLikeRepository(ctx.DB)
	likeService := service.NewLikeService(likeRepo, ctx.Notifier, recorder)
	likeHandler := handler.NewLikeHandler(likeService)

	setupRoutes(ctx, likeHandler)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.LikeHandler) {
	likes := ctx.Router.Group("/posts/:id/like",
		middleware.OptionalAuthMiddleware(ctx.Tokens),
		middleware.IdentityMiddleware(),
	)

	toggle := []gin.HandlerFunc{}
	if ctx.Limiter != nil {
		toggle = append(toggle, middleware.RateLimitMiddleware(ctx.Limiter))
	}
	toggle = append(toggle, h.ToggleLike)

	likes.GET("", h.GetLike)
	likes.POST("", toggle...)
}
