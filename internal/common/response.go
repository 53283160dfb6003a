package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the failure body for every endpoint:
// a short message plus a machine-readable numeric code.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
	Details   string `json:"details,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, ErrorResponse{Error: msg, ErrorCode: code})
}

func FailWithDetails(c *gin.Context, httpStatus int, code int, msg, details string) {
	c.JSON(httpStatus, ErrorResponse{Error: msg, ErrorCode: code, Details: details})
}
