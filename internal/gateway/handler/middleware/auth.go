// Package middleware holds gateway-wide gin middleware. Auth is modeled
// on the constant-time Bearer check and path-whitelist shape of
// hivemind/handler/middleware/auth.go's BearerAuth, generalized from a
// single static token to AgentWallet's two principal classes. There is no
// loopback bypass: every non-whitelisted request needs a credential.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

// PrincipalClass distinguishes the two bearer-credential holders.
type PrincipalClass string

const (
	PrincipalOwner PrincipalClass = "owner"
	PrincipalAgent PrincipalClass = "agent"
)

// Principal is the authenticated caller attached to the gin context.
type Principal struct {
	Class   PrincipalClass
	OwnerID string
	AgentID string
}

const principalKey = "agentwallet.principal"

// whitelist lists paths that never require a credential. POST /v1/owners
// is the signup path: there is no credential to bootstrap it with.
var whitelist = map[string]bool{
	"/healthz":   true,
	"/version":   true,
	"/v1/owners": true,
}

// BearerAuth resolves the caller's API key against the Store and attaches
// a Principal to the context. Missing/invalid credential aborts 401.
func BearerAuth(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if whitelist[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
			abort(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		key := authHeader[len(prefix):]

		if owner, err := s.GetOwnerByAPIKey(c.Request.Context(), key); err == nil && constantTimeEqual(owner.APIKey, key) {
			c.Set(principalKey, Principal{Class: PrincipalOwner, OwnerID: owner.ID})
			c.Next()
			return
		}

		if agent, err := s.GetAgentByAPIKey(c.Request.Context(), key); err == nil && constantTimeEqual(agent.APIKey, key) {
			if agent.Status == store.AgentTerminated || agent.Status == store.AgentKilled {
				abort(c, http.StatusForbidden, "agent principal is inactive")
				return
			}
			c.Set(principalKey, Principal{Class: PrincipalAgent, OwnerID: agent.OwnerID, AgentID: agent.ID})
			c.Next()
			return
		}

		abort(c, http.StatusUnauthorized, "invalid bearer token")
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message}})
}

// CurrentPrincipal reads the Principal a prior BearerAuth call attached.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// RequireOwner aborts 403 unless the caller is an owner principal.
func RequireOwner(c *gin.Context) bool {
	p, ok := CurrentPrincipal(c)
	if !ok || p.Class != PrincipalOwner {
		abort(c, http.StatusForbidden, "owner principal required")
		return false
	}
	return true
}

// RequireAgentOrOwner aborts 403 unless the caller is either the named
// agent itself or that agent's owner.
func RequireAgentOrOwner(c *gin.Context, s store.Store, agentID string) bool {
	p, ok := CurrentPrincipal(c)
	if !ok {
		abort(c, http.StatusForbidden, "authentication required")
		return false
	}
	if p.Class == PrincipalAgent && p.AgentID == agentID {
		return true
	}
	if p.Class == PrincipalOwner {
		agent, err := s.GetAgent(c.Request.Context(), agentID)
		if err != nil {
			abort(c, http.StatusNotFound, errno.ErrAgentNotFound.Error())
			return false
		}
		if agent.OwnerID == p.OwnerID {
			return true
		}
	}
	abort(c, http.StatusForbidden, "insufficient scope for this agent")
	return false
}
