package controllers

import (
	"errors"

	"messenger/tools"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// RespondUpstreamError mirrors the relay contract: upstream failures come
// back as 500 {error, details} with the gateway payload when we have it.
func RespondUpstreamError(c *gin.Context, msg string, err error) {
	var gerr *tools.GatewayError
	if errors.As(err, &gerr) {
		c.JSON(500, gin.H{"error": msg, "details": gerr.Body})
		return
	}
	c.JSON(500, gin.H{"error": msg, "details": err.Error()})
}
