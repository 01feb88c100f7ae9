package utils

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrInvalidCursor 游标无法解析
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorQuery 游标分页请求参数
type CursorQuery struct {
	Cursor string `json:"cursor" form:"cursor"`
	Limit  int    `json:"limit" form:"limit"`
}

// CursorPage 游标分页响应结果
type CursorPage struct {
	List       interface{} `json:"list"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// Active 是否携带了分页参数
func (q *CursorQuery) Active() bool {
	return q.Cursor != "" || q.Limit > 0
}

// GetLimit 规范化每页数量
func (q *CursorQuery) GetLimit() int {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q.Limit
}

// EncodeCursor 将 (created_at, id) 编码为不透明游标
func EncodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor 解析游标
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return time.Time{}, "", ErrInvalidCursor
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	return t, id, nil
}
