package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"postboard/pkg/identity"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "message": msg, "data": data})
}

// fakeAPI 记录收到的会话头，按需返回点赞结果
type fakeAPI struct {
	mu        sync.Mutex
	sessions  []string
	auths     []string
	failLikes bool
	liked     bool
	count     int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 0, "success", map[string]interface{}{
			"user":    map[string]string{"id": "u1", "email": "ada@example.com"},
			"token":   "tok-1",
			"isAdmin": true,
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 0, "success", nil)
	})
	mux.HandleFunc("/posts/p1/like", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sessions = append(f.sessions, r.Header.Get(SessionHeader))
		f.auths = append(f.auths, r.Header.Get("Authorization"))
		if f.failLikes {
			writeEnvelope(w, http.StatusInternalServerError, 50001, "Failed to update like", nil)
			return
		}
		var body struct {
			Liked bool `json:"liked"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		delta := 0
		if body.Liked == f.liked {
			f.liked = !f.liked
			if f.liked {
				delta = 1
			} else {
				delta = -1
			}
			f.count += delta
		}
		writeEnvelope(w, http.StatusOK, 0, "success", map[string]interface{}{"liked": f.liked, "delta": delta, "likesCount": f.count})
	})
	mux.HandleFunc("/support", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, 50002, "name is required", nil)
	})
	return mux
}

func TestSessionOnChange(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := New(srv.URL)
	var seen []*User
	unsubscribe := c.Session().OnChange(func(u *User) { seen = append(seen, u) })

	user, err := c.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "tok-1", c.Session().Token())

	require.NoError(t, c.SignOut(context.Background()))
	assert.Nil(t, c.Session().User())

	unsubscribe()
	unsubscribe()
	_, err = c.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "u1", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestToggleLikeAppliesOnlyAfterSuccess(t *testing.T) {
	api := &fakeAPI{count: 4}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := New(srv.URL)
	state := &LikeState{Liked: false, Count: 4}

	res, err := c.ToggleLike(context.Background(), "p1", state)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delta)
	liked, count := state.Snapshot()
	assert.True(t, liked)
	assert.Equal(t, 5, count)

	api.failLikes = true
	_, err = c.ToggleLike(context.Background(), "p1", state)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	liked, count = state.Snapshot()
	assert.True(t, liked)
	assert.Equal(t, 5, count)
}

func TestToggleLikeCorrectsStaleState(t *testing.T) {
	api := &fakeAPI{liked: true, count: 7}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c := New(srv.URL)
	state := &LikeState{Liked: false, Count: 6}

	res, err := c.ToggleLike(context.Background(), "p1", state)
	require.NoError(t, err)
	assert.Zero(t, res.Delta)
	liked, count := state.Snapshot()
	assert.True(t, liked)
	assert.Equal(t, 7, count)
}

func TestAnonymousSessionPersists(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "identity.json")
	first := New(srv.URL, WithIdentityStore(identity.NewFileStore(path)))
	_, err := first.ToggleLike(context.Background(), "p1", &LikeState{})
	require.NoError(t, err)

	second := New(srv.URL, WithIdentityStore(identity.NewFileStore(path)))
	_, err = second.ToggleLike(context.Background(), "p1", &LikeState{Liked: true})
	require.NoError(t, err)

	require.Len(t, api.sessions, 2)
	assert.NotEmpty(t, api.sessions[0])
	assert.Equal(t, api.sessions[0], api.sessions[1])
	assert.Equal(t, identity.Anonymous(api.sessions[0]), second.Identity())

	// 登录后改用 token，不再发送匿名令牌
	_, err = second.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = second.ToggleLike(context.Background(), "p1", &LikeState{})
	require.NoError(t, err)
	assert.Empty(t, api.sessions[2])
	assert.Equal(t, "Bearer tok-1", api.auths[2])
	assert.Equal(t, identity.User("u1"), second.Identity())
}

func TestSubmitSupportSurfacesValidation(t *testing.T) {
	srv := httptest.NewServer((&fakeAPI{}).handler())
	defer srv.Close()

	_, err := New(srv.URL).SubmitSupport(context.Background(), "", "a@b.co", "hi")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "name is required", apiErr.Message)
}

func TestWatchFeedDeliversUntilCancelled(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/stream" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]interface{}{"type": "feed", "posts": []map[string]string{{"id": "a"}}})
		_ = conn.WriteJSON(map[string]interface{}{"type": "ping"})
		_ = conn.WriteJSON(map[string]interface{}{"type": "feed", "posts": []map[string]string{{"id": "b"}, {"id": "a"}}})
		// 保持连接直到客户端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	feeds := make(chan []Post, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- New(srv.URL).WatchFeed(ctx, func(posts []Post) { feeds <- posts })
	}()

	first := <-feeds
	require.Len(t, first, 1)
	second := <-feeds
	require.Len(t, second, 2)
	assert.Equal(t, "b", second[0].ID)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchFeed did not return after cancel")
	}
}
