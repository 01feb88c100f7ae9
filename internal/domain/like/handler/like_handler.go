package handler

import (
	"errors"
	"net/http"

	"postboard/internal/domain/like/service"
	"postboard/internal/pkg/common"
	"postboard/internal/pkg/middleware"
	"postboard/pkg/response"

	"github.com/gin-gonic/gin"
)

// ToggleRequest 客户端认为的当前点赞状态
type ToggleRequest struct {
	Liked bool `json:"liked"`
}

// LikeState 点赞查询结果
type LikeState struct {
	Liked bool `json:"liked"`
}

type LikeHandler struct {
	service service.LikeService
}

func NewLikeHandler(s service.LikeService) *LikeHandler {
	return &LikeHandler{service: s}
}

// GetLike 当前身份是否已点赞
// @Summary 查询点赞状态
// @Tags Like
// @Produce json
// @Param id path string true "帖子ID"
// @Param X-Session-ID header string false "匿名会话令牌"
// @Success 200 {object} response.Response{data=LikeState}
// @Router /posts/{id}/like [get]
func (h *LikeHandler) GetLike(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Success(c, LikeState{Liked: false})
		return
	}
	response.Success(c, LikeState{Liked: h.service.IsLiked(c.Request.Context(), c.Param("id"), id)})
}

// ToggleLike 切换点赞
// @Summary 切换点赞，登录用户按用户去重，匿名访客按会话令牌去重
// @Tags Like
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param X-Session-ID header string false "匿名会话令牌"
// @Param input body ToggleRequest true "当前点赞状态"
// @Success 200 {object} response.Response{data=model.Result}
// @Router /posts/{id}/like [post]
func (h *LikeHandler) ToggleLike(c *gin.Context) {
	var req ToggleRequest
	if !common.BindJSON(c, &req) {
		return
	}

	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unable to identify visitor")
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), id, req.Liked)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(c, http.StatusNotFound, response.ErrPostNotFound, "Post not found")
		case errors.Is(err, service.ErrInvalidIdentity):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unable to identify visitor")
		default:
			common.Internal(c, err, "Failed to update like")
		}
		return
	}
	response.Success(c, result)
}
