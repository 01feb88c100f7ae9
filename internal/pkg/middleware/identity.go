package middleware

import (
	"net/http"
	"strings"

	"postboard/pkg/identity"

	"github.com/gin-gonic/gin"
)

// SessionHeader 非浏览器客户端携带匿名令牌的请求头
const SessionHeader = "X-Session-ID"

const sessionCookieMaxAge = 365 * 24 * 60 * 60

// cookieStore 以 cookie 作为匿名令牌的持久化存储，请求头优先。
// 格式不合法的令牌视为不存在，由 Resolver 重新签发。
type cookieStore struct {
	c *gin.Context
}

func (s cookieStore) Get(key string) (string, error) {
	if v := strings.TrimSpace(s.c.GetHeader(SessionHeader)); identity.ValidToken(v) {
		return v, nil
	}
	v, err := s.c.Cookie(key)
	if err != nil || !identity.ValidToken(v) {
		return "", identity.ErrNotFound
	}
	return v, nil
}

func (s cookieStore) Set(key, value string) error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, sessionCookieMaxAge, "/", "", false, true)
	// 同时回写请求头，便于客户端保存
	s.c.Header(SessionHeader, value)
	return nil
}

// IdentityMiddleware 解析点赞去重身份：登录用户用用户 ID，否则使用匿名会话令牌。
// 需放在 OptionalAuthMiddleware 之后。
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identity.NewResolver(cookieStore{c: c}).Resolve(CurrentUserID(c))
		c.Set(CtxIdentity, id)
		c.Next()
	}
}

// CurrentIdentity 当前请求的身份
func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok && id.Valid()
}
