package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the tagged failure body shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`  // 에러 코드 (프론트엔드 매핑용)
	Error   string `json:"error"` // 사용자에게 보여줄 메시지
}

// TechnicalFailureMessage is the only text a client sees for storage faults.
const TechnicalFailureMessage = "A technical error occurred. Please try again later."

// RespondWithError 에러 응답 헬퍼
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Code:    errorCode,
		Error:   message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, TechnicalFailureMessage)
}
