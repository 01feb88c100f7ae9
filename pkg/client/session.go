package client

import "sync"

// User 当前登录用户
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"-"`
}

// Session 显式的应用会话上下文，持有当前用户与 token。
// 登录、注册、退出都会通知 OnChange 注册的回调。
type Session struct {
	mu        sync.RWMutex
	user      *User
	token     string
	listeners map[int]func(*User)
	nextID    int
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func(*User))}
}

// User 当前用户，未登录返回 nil
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// OnChange 注册会话变化回调，返回取消函数（可重复调用）
func (s *Session) OnChange(fn func(*User)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) set(user *User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// 锁外回调，回调中可以再读取会话
	for _, fn := range fns {
		fn(s.User())
	}
}

func (s *Session) clear() {
	s.set(nil, "")
}
