package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// OwnerHandler provisions the root principal every agent and wallet is
// scoped under. There is no "list owners" endpoint: an owner only ever
// looks up its own agents and wallets.
type OwnerHandler struct {
	store store.Store
}

// NewOwnerHandler constructs an OwnerHandler over s.
func NewOwnerHandler(s store.Store) *OwnerHandler {
	return &OwnerHandler{store: s}
}

type createOwnerRequest struct {
	Contact string `json:"contact" binding:"required"`
}

// Create handles POST /v1/owners. The returned apiKey is shown once.
func (h *OwnerHandler) Create(c *gin.Context) {
	var req createOwnerRequest
	if !bindJSON(c, &req) {
		return
	}
	owner := &store.Owner{
		ID:        idgen.NewPrefixed("own"),
		APIKey:    idgen.New(),
		Contact:   req.Contact,
		CreatedAt: time.Now(),
	}
	if err := h.store.CreateOwner(c.Request.Context(), owner); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, owner)
}

// RotateAPIKey handles POST /v1/owners/:id/rotate-key.
func (h *OwnerHandler) RotateAPIKey(c *gin.Context) {
	id := c.Param("id")
	newKey := idgen.New()
	if err := h.store.RotateOwnerAPIKey(c.Request.Context(), id, newKey); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"id": id, "api_key": newKey})
}

// Get handles GET /v1/owners/:id.
func (h *OwnerHandler) Get(c *gin.Context) {
	id := c.Param("id")
	owner, err := h.store.GetOwner(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, owner)
}
