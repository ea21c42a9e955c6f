// Package v1 holds every HTTP handler AgentWallet's gateway exposes, one
// file per resource, in the style of hivemind/handler/v1/agents.go: a
// thin struct wrapping the domain dependency, bind -> call -> respond.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindJSON binds the request body, writing a ValidationFailure envelope
// and returning false on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"class": "ValidationFailure", "message": err.Error()},
		})
		return false
	}
	return true
}
