package handler

import (
	"errors"
	"net/http"

	"postboard/internal/domain/auth/service"
	"postboard/internal/pkg/common"
	"postboard/internal/pkg/middleware"
	"postboard/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler 创建处理器
func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// CredentialsInput 注册/登录输入
type CredentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GrantInput 管理员授权输入
type GrantInput struct {
	Code string `json:"code"`
}

// SignUp 注册
// @Summary 邮箱注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body CredentialsInput true "邮箱与密码"
// @Success 200 {object} response.Response{data=model.Session}
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input CredentialsInput
	if !common.BindJSON(c, &input) {
		return
	}

	sess, err := h.service.SignUp(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case common.ValidationFailed(c, err):
		case errors.Is(err, service.ErrUserExists):
			response.Error(c, http.StatusConflict, response.ErrUserExists, "User already exists")
		default:
			common.Internal(c, err, "Failed to sign up")
		}
		return
	}
	response.Success(c, sess)
}

// Login 登录
// @Summary 邮箱密码登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body CredentialsInput true "邮箱与密码"
// @Success 200 {object} response.Response{data=model.Session}
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input CredentialsInput
	if !common.BindJSON(c, &input) {
		return
	}

	sess, err := h.service.SignInWithPassword(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, "Invalid email or password")
			return
		}
		common.Internal(c, err, "Failed to sign in")
		return
	}
	response.Success(c, sess)
}

// Logout 注销当前 token
// @Summary 注销
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		common.Internal(c, err, "Failed to sign out")
		return
	}
	response.Success(c, nil)
}

// Session 当前会话
// @Summary 当前用户与管理员状态
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.Session}
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.service.GetSession(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
			return
		}
		common.Internal(c, err, "Failed to load session")
		return
	}
	response.Success(c, sess)
}

// GrantAdmin 使用授权码成为管理员
// @Summary 授权码换取管理员角色
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body GrantInput true "授权码"
// @Success 200 {object} response.Response{data=bool}
// @Router /admin/grant [post]
func (h *AuthHandler) GrantAdmin(c *gin.Context) {
	var input GrantInput
	if !common.BindJSON(c, &input) {
		return
	}

	ok, err := h.service.GrantAdminWithCode(c.Request.Context(), middleware.CurrentUserID(c), input.Code)
	if err != nil {
		common.Internal(c, err, "Failed to grant admin access")
		return
	}
	if !ok {
		response.Error(c, http.StatusForbidden, response.ErrAdminCodeInvalid, "Incorrect code")
		return
	}
	response.Success(c, true)
}
