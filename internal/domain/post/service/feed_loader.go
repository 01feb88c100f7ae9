package service

import (
	"context"
	"errors"
	"fmt"

	"postboard/internal/domain/post/model"
	"postboard/internal/domain/post/repository"
	"postboard/internal/pkg/realtime"
	"postboard/pkg/logger"
	"postboard/pkg/utils"

	"go.uber.org/zap"
)

// ErrSubscriptionClosed 变更订阅被动关闭（例如 Redis 断开）
var ErrSubscriptionClosed = errors.New("feed subscription closed")

// Page 一页帖子
type Page struct {
	Posts      []model.Post
	NextCursor string
}

// FeedLoader 帖子流读取与变更订阅
type FeedLoader struct {
	repo       repository.PostRepository
	subscriber realtime.Subscriber
	onReload   func()
}

// NewFeedLoader subscriber 为 nil 时 Watch 不可用
func NewFeedLoader(repo repository.PostRepository, subscriber realtime.Subscriber) *FeedLoader {
	return &FeedLoader{repo: repo, subscriber: subscriber}
}

// OnReload 每次因变更而重新加载时回调，用于指标
func (f *FeedLoader) OnReload(fn func()) {
	f.onReload = fn
}

// Load 全部帖子，最新在前
func (f *FeedLoader) Load(ctx context.Context) ([]model.Post, error) {
	posts, err := f.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return posts, nil
}

// Page 游标分页，limit 默认 20，最大 100
func (f *FeedLoader) Page(ctx context.Context, cursor string, limit int) (*Page, error) {
	q := utils.CursorQuery{Cursor: cursor, Limit: limit}
	limit = q.GetLimit()

	var (
		posts []model.Post
		err   error
	)
	if cursor == "" {
		posts, err = f.repo.ListFirst(ctx, limit+1)
	} else {
		createdAt, id, derr := utils.DecodeCursor(cursor)
		if derr != nil {
			return nil, derr
		}
		posts, err = f.repo.ListAfter(ctx, createdAt, id, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("load feed page: %w", err)
	}

	page := &Page{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		last := page.Posts[limit-1]
		page.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// Watch 订阅帖子变更：先订阅，再立即加载一次，之后每次变更全量重新加载。
// 阻塞直到 ctx 结束，返回前释放订阅。
func (f *FeedLoader) Watch(ctx context.Context, onChange func([]model.Post)) error {
	if f.subscriber == nil {
		return errors.New("feed watch requires a change subscriber")
	}

	sub, err := f.subscriber.Subscribe(ctx, realtime.TablePosts)
	if err != nil {
		return err
	}
	defer sub.Close()

	posts, err := f.Load(ctx)
	if err != nil {
		return err
	}
	onChange(posts)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			posts, err := f.Load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// 本次刷新失败不终止订阅，等待下一次变更
				logger.Log.Warn("feed reload failed", zap.String("event", string(ev.Type)), zap.Error(err))
				continue
			}
			if f.onReload != nil {
				f.onReload()
			}
			onChange(posts)
		}
	}
}
