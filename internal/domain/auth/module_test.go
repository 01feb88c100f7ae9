package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"postboard/internal/domain/auth/model"
	"postboard/internal/pkg/config"
	"postboard/internal/pkg/registry"
	"postboard/internal/pkg/testkit"
	"postboard/pkg/cache"
	"postboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.GlobalConfig.JWT = config.JWTConfig{Secret: "auth-module-test-secret-0123456789abcdef", Expire: 1}
	config.GlobalConfig.App.AdminCode = "open-sesame"
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newAuthServer(t *testing.T) *gin.Engine {
	t.Helper()
	r := testkit.NewRouter()
	ctx := &registry.ModuleContext{
		DB:     testkit.NewDB(t, &model.User{}, &model.UserRole{}),
		Router: r,
		Cache:  cache.NewMemoryCache(),
	}
	require.NoError(t, (&AuthModule{}).Init(ctx))
	require.NotNil(t, ctx.Tokens)
	require.NotNil(t, ctx.Roles)
	return r
}

func do(r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestAuthFlow(t *testing.T) {
	r := newAuthServer(t)
	creds := map[string]string{"email": "admin@example.com", "password": "hunter22"}

	w, env := do(r, http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sess model.Session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.IsAdmin)

	w, env = do(r, http.MethodPost, "/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrUserExists, env.Code)

	w, env = do(r, http.MethodPost, "/admin/grant", sess.Token, map[string]string{"code": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Incorrect code", env.Message)

	w, _ = do(r, http.MethodPost, "/admin/grant", sess.Token, map[string]string{"code": "open-sesame"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(r, http.MethodGet, "/auth/session", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current model.Session
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.True(t, current.IsAdmin)
	assert.Equal(t, "admin@example.com", current.User.Email)

	w, _ = do(r, http.MethodPost, "/auth/logout", sess.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodGet, "/auth/session", sess.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = do(r, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	var again model.Session
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.True(t, again.IsAdmin)
}

func TestSignUpValidation(t *testing.T) {
	r := newAuthServer(t)

	w, env := do(r, http.MethodPost, "/auth/signup", "", map[string]string{"email": "not-an-email", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid email", env.Message)

	w, env = do(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrAuthFailed, env.Code)
}
