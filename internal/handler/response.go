// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// statusFor 把业务错误分类映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFetch), errors.Is(err, service.ErrIndexing):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 记录错误并返回统一的错误响应。5xx 不向调用方暴露内部细节。
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		log.Errorw(op+" failed", "requestId", c.GetString("requestId"), "status", status, "error", err)
	} else {
		log.Warnw(op+" rejected", "requestId", c.GetString("requestId"), "status", status, "error", err)
	}
	fail(c, status, message)
}
