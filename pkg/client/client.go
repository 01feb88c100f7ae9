// Package client is the visitor-side SDK for the postboard API: session
// tracking, feed reads and streaming, like toggling and support messages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"postboard/pkg/identity"
)

// SessionHeader 匿名会话令牌请求头
const SessionHeader = "X-Session-ID"

// APIError 服务端返回的业务错误
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client API 客户端
type Client struct {
	baseURL  string
	http     *http.Client
	session  *Session
	resolver *identity.Resolver
}

// Option 客户端选项
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// WithIdentityStore 匿名令牌的持久化位置，默认只保存在内存中
func WithIdentityStore(store identity.Store) Option {
	return func(c *Client) { c.resolver = identity.NewResolver(store) }
}

func New(baseURL string, opts ...Option) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 32
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: t, Timeout: 10 * time.Second},
		session: NewSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = identity.NewResolver(identity.NewMemoryStore())
	}
	return c
}

// Session 当前会话
func (c *Client) Session() *Session {
	return c.session
}

// Identity 当前点赞身份
func (c *Client) Identity() identity.Identity {
	var userID string
	if u := c.session.User(); u != nil {
		userID = u.ID
	}
	return c.resolver.Resolve(userID)
}

// do 发送 JSON 请求并解析统一响应，out 可以为 nil
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set(SessionHeader, c.resolver.SessionToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if resp.StatusCode >= http.StatusBadRequest || env.Code != 0 {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
