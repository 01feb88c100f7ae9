package post

import (
	"postboard/internal/domain/post/handler"
	"postboard/internal/domain/post/repository"
	"postboard/internal/domain/post/service"
	"postboard/internal/pkg/config"
	"postboard/internal/pkg/realtime"
	"postboard/internal/pkg/registry"
	"postboard/internal/pkg/worker"
)

// PostModule 帖子模块：帖子流、实时推送与管理员发布
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 10
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	if ctx.Notifier == nil {
		ctx.Notifier = realtime.NewNotifier(ctx.Redis)
	}

	// 孤儿附件清理池随帖子模块启动，关闭由 main 负责
	if ctx.Cleanup == nil && ctx.Uploader != nil {
		cfg := config.GlobalConfig.Cleanup
		ctx.Cleanup = worker.NewWorkerPool(ctx.Uploader, cfg.Workers, cfg.BufferSize, cfg.MaxRetry)
		if ctx.Metrics != nil {
			ctx.Cleanup.OnDeadLetter(func(worker.CleanupTask, error) {
				ctx.Metrics.RecordOrphanCleanup(false)
			})
			ctx.Cleanup.OnRemoved(func(worker.CleanupTask) {
				ctx.Metrics.RecordOrphanCleanup(true)
			})
		}
		ctx.Cleanup.Start()
	}

	var cleaner service.Cleaner
	if ctx.Cleanup != nil {
		cleaner = ctx.Cleanup
	}

	postRepo := repository.NewPostRepository(ctx.DB)
	postService := service.NewPostService(postRepo, ctx.Uploader, cleaner, ctx.Notifier)
	feed := service.NewFeedLoader(postRepo, ctx.Notifier)
	if ctx.Metrics != nil {
		feed.OnReload(ctx.Metrics.RecordFeedReload)
	}
	stream := handler.NewStreamHandler(feed, config.GlobalConfig.Server.CORSOrigins, ctx.Metrics)
	postHandler := handler.NewPostHandler(postService, feed, stream)

	setupRoutes(ctx, postHandler)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.PostHandler) {
	r := ctx.Router

	// 公开路由
	r.GET("/posts", h.ListPosts)
	r.GET("/posts/stream", h.Stream)
	r.GET("/posts/:id", h.GetPost)

	// 管理员路由
	admin := r.Group("/posts", ctx.RequireAdmin()...)
	{
		admin.POST("", h.CreatePost)
		admin.PUT("/:id", h.UpdatePost)
		admin.DELETE("/:id", h.DeletePost)
	}
}
