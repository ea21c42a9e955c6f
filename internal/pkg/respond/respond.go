// Package respond renders the gin JSON envelope every handler.v1 call site
// uses, in the style of hivemind/handler/v1/agents.go's
// "core.WriteResponse(c, err, data)" call shape.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/pkg/walleterr"
)

// Error writes a classified error envelope and aborts the gin context.
func Error(c *gin.Context, err error) {
	class := walleterr.Classify(err)
	status := walleterr.HTTPStatus(class)
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"class":   string(class),
			"message": err.Error(),
		},
	})
}

// OK writes a 200 envelope with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 envelope with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Accepted writes a 202 envelope — used for AwaitingApproval and escalated
// cross-agent transactions by result class.
func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}
