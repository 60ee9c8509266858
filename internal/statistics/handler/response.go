package handler

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope returned by statistics endpoints.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorResponse(c *gin.Context, code, message string, status int) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(status, resp)
}
