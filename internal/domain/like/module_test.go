package like

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"postboard/internal/domain/like/model"
	postmodel "postboard/internal/domain/post/model"
	"postboard/internal/pkg/config"
	"postboard/internal/pkg/middleware"
	"postboard/internal/pkg/registry"
	"postboard/internal/pkg/testkit"
	"postboard/pkg/identity"
	"postboard/pkg/response"
	"postboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	config.GlobalConfig.JWT = config.JWTConfig{Secret: "like-module-test-secret-0123456789abcdef", Expire: 1}
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newLikeServer(t *testing.T, limiter *middleware.IPRateLimiter) (*gin.Engine, *gorm.DB) {
	t.Helper()
	rdb, _ := testkit.NewRedis(t)
	db := testkit.NewDB(t, &postmodel.Post{}, &model.PostLike{})
	r := testkit.NewRouter()
	ctx := &registry.ModuleContext{DB: db, Redis: rdb, Router: r, Limiter: limiter}
	require.NoError(t, (&LikeModule{}).Init(ctx))
	return r, db
}

func seedPost(t *testing.T, db *gorm.DB) string {
	t.Helper()
	post := &postmodel.Post{Title: "Hello", Content: "World", AuthorID: "author"}
	require.NoError(t, db.Create(post).Error)
	return post.ID
}

func toggle(r *gin.Engine, postID string, liked bool, prepare func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	body := `{"liked":false}`
	if liked {
		body = `{"liked":true}`
	}
	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/like", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func decodeResult(t *testing.T, env envelope) model.Result {
	t.Helper()
	var res model.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func TestAnonymousVisitorKeepsSessionAcrossRequests(t *testing.T) {
	r, db := newLikeServer(t, nil)
	postID := seedPost(t, db)

	w, env := toggle(r, postID, false, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.Result{Liked: true, Delta: 1, LikesCount: 1}, decodeResult(t, env))

	session := w.Header().Get(middleware.SessionHeader)
	require.True(t, strings.HasPrefix(session, "anon_"))
	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == identity.StorageKey {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, session, cookie.Value)

	// 同一会话再次查询与取消
	req := httptest.NewRequest(http.MethodGet, "/posts/"+postID+"/like", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"liked":true}}`, w.Body.String())

	w, env = toggle(r, postID, true, func(req *http.Request) { req.Header.Set(middleware.SessionHeader, session) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Result{Liked: false, Delta: -1, LikesCount: 0}, decodeResult(t, env))
}

func TestSignedInUserLikesByUserID(t *testing.T) {
	r, db := newLikeServer(t, nil)
	postID := seedPost(t, db)

	tok, _, err := utils.GenerateToken("3f8c2f5e-7f43-4e4c-9a55-0d6f1c1c9a10", "u@example.com")
	require.NoError(t, err)
	withToken := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }

	w, env := toggle(r, postID, false, withToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeResult(t, env).LikesCount)
	assert.Empty(t, w.Header().Get(middleware.SessionHeader))

	var row model.PostLike
	require.NoError(t, db.First(&row).Error)
	require.NotNil(t, row.UserID)
	assert.Nil(t, row.SessionID)

	// 失效 token 按匿名访客处理，不会复用用户的点赞
	w, env = toggle(r, postID, false, func(req *http.Request) { req.Header.Set("Authorization", "Bearer broken") })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Result{Liked: true, Delta: 1, LikesCount: 2}, decodeResult(t, env))
}

func TestToggleLikeErrors(t *testing.T) {
	r, db := newLikeServer(t, nil)
	seedPost(t, db)

	w, env := toggle(r, "00000000-0000-0000-0000-000000000000", false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrPostNotFound, env.Code)

	w, env = toggle(r, "abc", false, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrPostNotFound, env.Code)

	req := httptest.NewRequest(http.MethodGet, "/posts/abc/like", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"liked":false}}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/posts/x/like", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOversizedSessionHeaderGetsFreshToken(t *testing.T) {
	r, db := newLikeServer(t, nil)
	postID := seedPost(t, db)

	long := strings.Repeat("s", identity.MaxTokenLength+1)
	w, env := toggle(r, postID, false, func(req *http.Request) { req.Header.Set(middleware.SessionHeader, long) })
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeResult(t, env).LikesCount)

	issued := w.Header().Get(middleware.SessionHeader)
	assert.True(t, strings.HasPrefix(issued, "anon_"))

	var row model.PostLike
	require.NoError(t, db.First(&row).Error)
	require.NotNil(t, row.SessionID)
	assert.Equal(t, issued, *row.SessionID)
}

func TestToggleLikeIsRateLimited(t *testing.T) {
	r, db := newLikeServer(t, middleware.NewIPRateLimiter(0.001, 1))
	postID := seedPost(t, db)

	w, _ := toggle(r, postID, false, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env := toggle(r, postID, false, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.ErrTooManyRequests, env.Code)
}
