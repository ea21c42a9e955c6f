package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/lineage"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// LineageHandler handles spawning child agents and reading the spawn tree.
type LineageHandler struct {
	store   store.Store
	lineage *lineage.Governor
}

// NewLineageHandler constructs a LineageHandler over s.
func NewLineageHandler(s store.Store) *LineageHandler {
	return &LineageHandler{store: s, lineage: lineage.New(s)}
}

type spawnRequest struct {
	ChildID             string           `json:"child_id" binding:"required"`
	MaxSpendRatio       float64          `json:"max_spend_ratio"`
	MaxTransactionRatio float64          `json:"max_transaction_ratio"`
	RuleOverrides       map[string]int64 `json:"rule_overrides,omitempty"`
	VendorAllowlist     []string         `json:"vendor_allowlist,omitempty"`
}

// Spawn handles POST /v1/agents/:id/spawn.
func (h *LineageHandler) Spawn(c *gin.Context) {
	var req spawnRequest
	if !bindJSON(c, &req) {
		return
	}
	child, event, err := h.lineage.Spawn(c.Request.Context(), c.Param("id"), req.ChildID, lineage.Request{
		MaxSpendRatio:       req.MaxSpendRatio,
		MaxTransactionRatio: req.MaxTransactionRatio,
		RuleOverrides:       req.RuleOverrides,
		VendorAllowlist:     req.VendorAllowlist,
	}, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, gin.H{"lineage": child, "event": event})
}

// Get handles GET /v1/agents/:id/lineage.
func (h *LineageHandler) Get(c *gin.Context) {
	l, err := h.store.GetLineage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, l)
}
