package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"postboard/pkg/optimistic"
)

// Post 帖子视图
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"authorId"`
	ExternalURL *string   `json:"externalUrl"`
	ImageURL    *string   `json:"imageUrl"`
	DocumentURL *string   `json:"documentUrl"`
	LikesCount  int       `json:"likesCount"`
	Hashtags    []string  `json:"hashtags"`
	Excerpt     string    `json:"excerpt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Page 游标分页结果
type Page struct {
	List       []Post `json:"list"`
	NextCursor string `json:"nextCursor"`
}

// LikeState 本地点赞状态，只在服务端确认后修改
type LikeState struct {
	mu    sync.Mutex
	Liked bool
	Count int
}

// Snapshot 读取当前状态
func (s *LikeState) Snapshot() (liked bool, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Liked, s.Count
}

// LikeResult 服务端返回的切换结果
type LikeResult struct {
	Liked      bool `json:"liked"`
	Delta      int  `json:"delta"`
	LikesCount int  `json:"likesCount"`
}

// SupportMessage 留言
type SupportMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type sessionPayload struct {
	User    *User  `json:"user"`
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp 注册并登录
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

// SignIn 密码登录
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*User, error) {
	var sess sessionPayload
	if err := c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	if sess.User == nil || sess.Token == "" {
		return nil, fmt.Errorf("auth response missing session")
	}
	sess.User.IsAdmin = sess.IsAdmin
	c.session.set(sess.User, sess.Token)
	return c.session.User(), nil
}

// SignOut 注销当前 token；无论服务端是否成功，本地会话都会清空
func (c *Client) SignOut(ctx context.Context) error {
	if c.session.Token() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.session.clear()
	return err
}

// Feed 完整帖子列表，最新在前
func (c *Client) Feed(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FeedPage 按游标分页读取
func (c *Client) FeedPage(ctx context.Context, cursor string, limit int) (*Page, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var page Page
	if err := c.do(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// IsLiked 当前身份是否已点赞
func (c *Client) IsLiked(ctx context.Context, postID string) (bool, error) {
	var out struct {
		Liked bool `json:"liked"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/like", nil, &out); err != nil {
		return false, err
	}
	return out.Liked, nil
}

// ToggleLike 按本地状态切换点赞，写入成功后才更新 state。
// 服务端发现本地状态过期时（Delta 为 0），state 会被校正为服务端的真实状态。
func (c *Client) ToggleLike(ctx context.Context, postID string, state *LikeState) (*LikeResult, error) {
	liked, _ := state.Snapshot()
	write := func(ctx context.Context) (*LikeResult, error) {
		var res LikeResult
		body := map[string]bool{"liked": liked}
		if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", body, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}
	apply := func(res *LikeResult) {
		state.mu.Lock()
		state.Liked = res.Liked
		state.Count = res.LikesCount
		state.mu.Unlock()
	}
	return optimistic.Commit(ctx, write, apply)
}

// SubmitSupport 提交留言
func (c *Client) SubmitSupport(ctx context.Context, name, email, message string) (*SupportMessage, error) {
	in := map[string]string{"name": name, "email": email, "message": message}
	var msg SupportMessage
	if err := c.do(ctx, http.MethodPost, "/support", in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
