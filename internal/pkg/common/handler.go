// Package common holds response helpers shared by the domain handlers.
package common

import (
	"net/http"

	"postboard/pkg/response"
	"postboard/pkg/validation"

	"github.com/gin-gonic/gin"
)

// BindJSON 解析 JSON 请求体，失败时直接写入 400 响应
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid request body")
		return false
	}
	return true
}

// ValidationFailed 若 err 为字段校验错误，返回 400 并附带全部违规项
func ValidationFailed(c *gin.Context, err error) bool {
	ve, ok := validation.AsError(err)
	if !ok {
		return false
	}
	response.ErrorWithData(c, http.StatusBadRequest, response.ErrInvalidParam, ve.Error(), validation.Result{Violations: ve.Violations})
	return true
}

// Internal 返回 500，不暴露内部错误
func Internal(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, msg)
}
