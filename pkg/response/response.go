package response

import (
	"errors"
	"net/http"

	"casino-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// OK sends a 200 response with the body as-is. Wallet and game endpoints
// return their documented shapes directly, without an envelope.
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Created sends a 201 response with the body as-is.
func Created(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "SYS_000",
		Message:   "Internal server error",
	})
}

// AbortError sends an error response and aborts the handler chain.
// Middleware must abort explicitly so later handlers do not run.
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
