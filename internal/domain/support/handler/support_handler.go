package handler

import (
	"errors"
	"net/http"

	"postboard/internal/domain/support/service"
	"postboard/internal/pkg/common"
	"postboard/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupportHandler struct {
	service service.SupportService
}

func NewSupportHandler(s service.SupportService) *SupportHandler {
	return &SupportHandler{service: s}
}

// Submit 提交留言
// @Summary 访客留言
// @Tags Support
// @Accept json
// @Produce json
// @Param input body service.SupportInput true "留言内容"
// @Success 200 {object} response.Response{data=model.SupportMessage}
// @Failure 400 {object} response.Response{data=validation.Result}
// @Router /support [post]
func (h *SupportHandler) Submit(c *gin.Context) {
	var in service.SupportInput
	if !common.BindJSON(c, &in) {
		return
	}

	msg, err := h.service.Submit(c.Request.Context(), in)
	if err != nil {
		if common.ValidationFailed(c, err) {
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrSupportSendFailed, err.Error())
		return
	}
	response.Success(c, msg)
}

// List 留言列表（管理员）
// @Summary 留言列表，最新在前
// @Tags Support
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending | read | resolved"
// @Success 200 {object} response.Response{data=[]model.SupportMessage}
// @Router /admin/support [get]
func (h *SupportHandler) List(c *gin.Context) {
	msgs, err := h.service.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		if common.ValidationFailed(c, err) {
			return
		}
		common.Internal(c, err, "Failed to load messages")
		return
	}
	response.Success(c, msgs)
}

// UpdateStatus 更新留言状态（管理员）
// @Summary 更新留言状态
// @Tags Support
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "留言ID"
// @Param input body service.StatusInput true "新状态"
// @Success 200 {object} response.Response{data=model.SupportMessage}
// @Router /admin/support/{id} [patch]
func (h *SupportHandler) UpdateStatus(c *gin.Context) {
	var in service.StatusInput
	if !common.BindJSON(c, &in) {
		return
	}

	msg, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		switch {
		case common.ValidationFailed(c, err):
		case errors.Is(err, service.ErrMessageNotFound):
			response.Error(c, http.StatusNotFound, response.ErrMessageNotFound, "Message not found")
		default:
			common.Internal(c, err, "Failed to update message")
		}
		return
	}
	response.Success(c, msg)
}
