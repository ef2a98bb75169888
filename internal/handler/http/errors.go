package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/service"
)

// HandleServiceError 把业务错误映射为对应的 HTTP 状态码。
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAuthenticationFailed) {
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	} else if errors.Is(err, service.ErrRegistrationFailed) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else if errors.Is(err, service.ErrInvalidJoinCode) || errors.Is(err, service.ErrRoomNotFound) || errors.Is(err, service.ErrUserNotFound) {
		ErrorResponse(c, http.StatusNotFound, err.Error())
	} else if errors.Is(err, service.ErrRoomDisabled) {
		ErrorResponse(c, http.StatusGone, err.Error())
	} else if errors.Is(err, service.ErrNotRoomMember) || errors.Is(err, service.ErrNotRoomCreator) {
		ErrorResponse(c, http.StatusForbidden, err.Error())
	} else if errors.Is(err, service.ErrInvalidMessage) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else {
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// authedUserID 从 Gin 上下文取出 Auth 中间件写入的用户 ID。
// 取不到时直接写响应并返回 false。
func authedUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}
