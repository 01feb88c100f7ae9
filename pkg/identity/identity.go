// Package identity derives a stable like-scoping identity for the current
// visitor: the authenticated user id when there is one, otherwise an
// anonymous session token kept in a persistent Store.
package identity

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StorageKey 匿名会话令牌的固定存储键
const StorageKey = "anonymous_session_id"

// MaxTokenLength 匿名令牌最大长度，与 post_likes.session_id 列宽一致
const MaxTokenLength = 64

var tokenCharset = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// ValidToken 匿名令牌只允许有限字符集，且不超过 MaxTokenLength
func ValidToken(token string) bool {
	return len(token) <= MaxTokenLength && tokenCharset.MatchString(token)
}

// Kind 身份类型
type Kind string

const (
	KindUser      Kind = "user"
	KindAnonymous Kind = "anonymous"
)

// Identity 点赞去重使用的身份，用户 ID 与匿名令牌二选一
type Identity struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// User 已登录身份
func User(id string) Identity {
	return Identity{Kind: KindUser, ID: id}
}

// Anonymous 匿名身份
func Anonymous(token string) Identity {
	return Identity{Kind: KindAnonymous, ID: token}
}

func (i Identity) IsUser() bool {
	return i.Kind == KindUser
}

// Valid 身份必须有类型且 ID 非空，匿名令牌还需符合格式
func (i Identity) Valid() bool {
	switch i.Kind {
	case KindUser:
		return strings.TrimSpace(i.ID) != ""
	case KindAnonymous:
		return ValidToken(i.ID)
	default:
		return false
	}
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.ID)
}

// ErrNotFound Store 中没有该键
var ErrNotFound = errors.New("identity: key not found")

// Store 持久化的客户端键值存储
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Resolver 身份解析器
type Resolver struct {
	store Store
	now   func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewResolver 创建解析器，store 可以为 nil（每次返回新的匿名令牌）
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store: store,
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve 解析当前访客身份。
// 存储不可用时不会失败，而是每次返回一个新令牌（唯一性降级）。
func (r *Resolver) Resolve(userID string) Identity {
	if userID != "" {
		return User(userID)
	}
	return Anonymous(r.SessionToken())
}

// SessionToken 读取或生成匿名令牌
func (r *Resolver) SessionToken() string {
	if r.store == nil {
		return r.generate()
	}

	token, err := r.store.Get(StorageKey)
	if err == nil && ValidToken(token) {
		return token
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return r.generate()
	}

	// 写入失败时下次读取仍为空，自然退化为每次新令牌
	token = r.generate()
	_ = r.store.Set(StorageKey, token)
	return token
}

// generate 生成 anon_<毫秒时间戳>_<9位36进制随机串>，仅用于去重，不具备密码学强度
func (r *Resolver) generate() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range suffix {
		suffix[i] = alphabet[r.rnd.Intn(len(alphabet))]
	}
	return "anon_" + strconv.FormatInt(r.now().UnixMilli(), 10) + "_" + string(suffix)
}
