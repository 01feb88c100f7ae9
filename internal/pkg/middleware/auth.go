package middleware

import (
	"context"
	"net/http"
	"strings"

	"postboard/pkg/logger"
	"postboard/pkg/response"
	"postboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文键
const (
	CtxUserID   = "userID"
	CtxEmail    = "email"
	CtxClaims   = "claims"
	CtxIdentity = "identity"
)

// TokenChecker 校验 token 是否已注销
type TokenChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RoleChecker 校验管理员身份
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// bearerToken 解析 "Bearer <token>"
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate 解析并校验 token，成功后写入上下文
func authenticate(c *gin.Context, checker TokenChecker, tokenString string) (int, string) {
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return http.StatusUnauthorized, "Invalid or expired token"
	}

	if checker != nil {
		revoked, err := checker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Log.Error("token revocation check failed", zap.Error(err))
			return http.StatusInternalServerError, "Unable to verify session"
		}
		if revoked {
			return http.StatusUnauthorized, "Session has been signed out"
		}
	}

	// 将 userID 和 claims 存入上下文
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxClaims, claims)
	return http.StatusOK, ""
}

// AuthMiddleware JWT认证中间件
func AuthMiddleware(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		if status, msg := authenticate(c, checker, tokenString); status != http.StatusOK {
			code := response.ErrTokenInvalid
			if status == http.StatusInternalServerError {
				code = response.ErrServerInternal
			}
			response.Error(c, status, code, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware 有合法 token 时写入用户信息，否则按匿名访客继续
func OptionalAuthMiddleware(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			// 失败时上下文中不会写入用户信息
			_, _ = authenticate(c, checker, tokenString)
		}
		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件，需放在 AuthMiddleware 之后
func AdminMiddleware(roles RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		isAdmin, err := roles.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			logger.Log.Error("admin role lookup failed", zap.String("user_id", userID), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Unable to verify permission")
			c.Abort()
			return
		}
		if !isAdmin {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Admin permission required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID 当前登录用户 ID，未登录返回空串
func CurrentUserID(c *gin.Context) string {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// CurrentClaims 当前 token 的 claims
func CurrentClaims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}
