package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/gateway/handler/middleware"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// KillSwitchHandler handles per-wallet circuit-breaker CRUD, reset, and
// the emergency-stop override.
type KillSwitchHandler struct {
	store store.Store
	kill  *killswitch.Engine
}

// NewKillSwitchHandler constructs a KillSwitchHandler over s and engine.
func NewKillSwitchHandler(s store.Store, engine *killswitch.Engine) *KillSwitchHandler {
	return &KillSwitchHandler{store: s, kill: engine}
}

type createKillSwitchRequest struct {
	Kind        store.KillSwitchKind `json:"kind" binding:"required"`
	Threshold   float64              `json:"threshold" binding:"required"`
	WindowHours int                  `json:"window_hours"`
}

// Create handles POST /v1/wallets/:id/killswitches.
func (h *KillSwitchHandler) Create(c *gin.Context) {
	var req createKillSwitchRequest
	if !bindJSON(c, &req) {
		return
	}
	k := &store.KillSwitch{
		ID:          idgen.NewPrefixed("ks"),
		WalletID:    c.Param("id"),
		Kind:        req.Kind,
		Threshold:   req.Threshold,
		WindowHours: req.WindowHours,
		Active:      true,
	}
	if err := h.store.CreateKillSwitch(c.Request.Context(), k); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, k)
}

// ListByWallet handles GET /v1/wallets/:id/killswitches.
func (h *KillSwitchHandler) ListByWallet(c *gin.Context) {
	switches, err := h.store.ListKillSwitchesByWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": switches})
}

// Delete handles DELETE /v1/killswitches/:ksId.
func (h *KillSwitchHandler) Delete(c *gin.Context) {
	id := c.Param("ksId")
	if err := h.store.DeleteKillSwitch(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"id": id, "deleted": true})
}

// Reset handles POST /v1/killswitches/:ksId/reset.
func (h *KillSwitchHandler) Reset(c *gin.Context) {
	if err := h.kill.Reset(c.Request.Context(), c.Param("ksId"), time.Now()); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"id": c.Param("ksId"), "reset": true})
}

type emergencyStopRequest struct {
	WalletID string `json:"wallet_id" binding:"required"`
	AgentID  string `json:"agent_id" binding:"required"`
}

// EmergencyStop handles POST /v1/emergency-stop.
func (h *KillSwitchHandler) EmergencyStop(c *gin.Context) {
	var req emergencyStopRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.kill.EmergencyStop(c.Request.Context(), req.WalletID, req.AgentID, time.Now()); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"wallet_id": req.WalletID, "agent_id": req.AgentID, "stopped": true})
}

type globalStopRequest struct {
	Reason string `json:"reason"`
}

// GlobalStop handles POST /v1/owners/:id/kill-switch — an owner-wide
// emergency stop over every agent and wallet the owner controls, distinct
// from EmergencyStop's single wallet/agent scope. Owner-principal only.
func (h *KillSwitchHandler) GlobalStop(c *gin.Context) {
	if !middleware.RequireOwner(c) {
		return
	}
	var req globalStopRequest
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.kill.GlobalStop(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	failed := map[string]string{}
	for agentID, agentErr := range results {
		if agentErr != nil {
			failed[agentID] = agentErr.Error()
		}
	}
	respond.OK(c, gin.H{"owner_id": c.Param("id"), "agents_stopped": len(results), "failed": failed})
}
