package handler

import (
	"context"
	"net/http"
	"time"

	"postboard/internal/domain/post/model"
	"postboard/internal/domain/post/service"
	"postboard/pkg/logger"
	"postboard/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// FeedMessage 推送给客户端的消息
type FeedMessage struct {
	Type  string           `json:"type"`
	Posts []model.PostView `json:"posts"`
}

// StreamHandler 帖子流 WebSocket，每个连接持有一个变更订阅
type StreamHandler struct {
	feed     *service.FeedLoader
	upgrader websocket.Upgrader
	metrics  *metrics.MetricsCollector
}

// NewStreamHandler allowedOrigins 为空或包含 "*" 时不校验来源，与 CORS 配置保持一致
func NewStreamHandler(feed *service.FeedLoader, allowedOrigins []string, collector *metrics.MetricsCollector) *StreamHandler {
	return &StreamHandler{
		feed:    feed,
		metrics: collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func (s *StreamHandler) Serve(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写入了错误响应
		logger.Log.Debug("feed stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.FeedSubscriberAdded()
		defer s.metrics.FeedSubscriberRemoved()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 读协程：处理 pong 与关闭帧，连接断开时结束订阅
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	// 心跳与推送共用一个写协程，保证单写者
	pushes := make(chan []model.Post, 1)
	go func() {
		defer cancel()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			case posts := <-pushes:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(FeedMessage{Type: "feed", Posts: model.NewViews(posts)}); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	err = s.feed.Watch(ctx, func(posts []model.Post) {
		// 只保留最新一份列表
		select {
		case <-pushes:
		default:
		}
		select {
		case pushes <- posts:
		case <-ctx.Done():
		}
	})
	if err != nil {
		logger.Log.Warn("feed stream ended", zap.Error(err))
	}
}
