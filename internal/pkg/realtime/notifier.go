// Package realtime carries table-level change notifications over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"postboard/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType 行级变更类型
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// TablePosts 帖子表
const TablePosts = "posts"

// ChangeEvent 变更通知
type ChangeEvent struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

// Channel 表对应的频道名，例如 posts-changes
func Channel(table string) string {
	return fmt.Sprintf("%s-changes", table)
}

// Publisher 发布变更
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Subscriber 订阅变更
type Subscriber interface {
	Subscribe(ctx context.Context, table string) (*Subscription, error)
}

// Notifier 基于 Redis 的变更通知
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier 创建通知器，rdb 为 nil 时发布为空操作
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish 发布一条变更通知
func (n *Notifier) Publish(ctx context.Context, ev ChangeEvent) error {
	if n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return n.rdb.Publish(ctx, Channel(ev.Table), payload).Err()
}

// Subscription 一次订阅，必须调用 Close 释放
type Subscription struct {
	C <-chan ChangeEvent

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close 取消订阅并等待后台协程退出
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// Subscribe 订阅表的变更，返回前确保订阅已生效
func (n *Notifier) Subscribe(ctx context.Context, table string) (*Subscription, error) {
	if n.rdb == nil {
		return nil, fmt.Errorf("realtime: redis client not configured")
	}

	sub := n.rdb.Subscribe(ctx, Channel(table))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(table), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan ChangeEvent, 16)
	s := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer close(out)
		defer func() { _ = sub.Close() }()
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("panic in realtime subscriber", zap.Any("recover", r))
			}
		}()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Log.Warn("drop malformed change event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				// 每个事件都会触发全量刷新，缓冲区满时丢弃即可合并
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return s, nil
}
