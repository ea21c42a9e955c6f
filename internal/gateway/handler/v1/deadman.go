package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/deadman"
	"github.com/agentwallet/agentwallet/internal/lineage"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// DeadManHandler handles dead-man switch registration, heartbeat, manual
// trigger, and the operator freeze/unfreeze/terminate recovery path.
type DeadManHandler struct {
	store   store.Store
	monitor *deadman.Monitor
	lineage *lineage.Governor
}

// NewDeadManHandler constructs a DeadManHandler over s and monitor.
func NewDeadManHandler(s store.Store, monitor *deadman.Monitor) *DeadManHandler {
	return &DeadManHandler{store: s, monitor: monitor, lineage: lineage.New(s)}
}

type cascadeRequest struct {
	Cascade bool `json:"cascade"`
}

// Freeze handles POST /v1/agents/:id/freeze — an operator-initiated
// freeze that bypasses the missed-heartbeat/anomaly ladder entirely.
func (h *DeadManHandler) Freeze(c *gin.Context) {
	var req cascadeRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := h.lineage.FreezeLineage(c.Request.Context(), c.Param("id"), req.Cascade, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"frozen": ids})
}

// Terminate handles POST /v1/agents/:id/terminate. Irreversible.
func (h *DeadManHandler) Terminate(c *gin.Context) {
	var req cascadeRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := h.lineage.TerminateLineage(c.Request.Context(), c.Param("id"), req.Cascade, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"terminated": ids})
}

type registerDeadManRequest struct {
	HeartbeatIntervalSeconds int                 `json:"heartbeat_interval_seconds" binding:"required"`
	MissedHeartbeatThreshold float64             `json:"missed_heartbeat_threshold"`
	AnomalyWindowMinutes     int                 `json:"anomaly_window_minutes"`
	AnomalySpendMultiplier   float64             `json:"anomaly_spend_multiplier"`
	AnomalyTxCountMultiplier float64             `json:"anomaly_tx_count_multiplier"`
	MaxTxPerMinute           int                 `json:"max_tx_per_minute"`
	MaxUniqueVendorsPerHour  int                 `json:"max_unique_vendors_per_hour"`
	OnAnomaly                store.DeadManAction `json:"on_anomaly"`
	OnMissedHeartbeat        store.DeadManAction `json:"on_missed_heartbeat"`
	OnManualTrigger          store.DeadManAction `json:"on_manual_trigger"`
	CascadeToChildren        bool                `json:"cascade_to_children"`
	RecoveryRequiresHuman    bool                `json:"recovery_requires_human"`
}

// Register handles POST /v1/agents/:id/deadman.
func (h *DeadManHandler) Register(c *gin.Context) {
	var req registerDeadManRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg := &store.DeadManSwitchConfig{
		AgentID:                  c.Param("id"),
		HeartbeatIntervalSeconds: req.HeartbeatIntervalSeconds,
		MissedHeartbeatThreshold: req.MissedHeartbeatThreshold,
		AnomalyWindowMinutes:     req.AnomalyWindowMinutes,
		AnomalySpendMultiplier:   req.AnomalySpendMultiplier,
		AnomalyTxCountMultiplier: req.AnomalyTxCountMultiplier,
		MaxTxPerMinute:           req.MaxTxPerMinute,
		MaxUniqueVendorsPerHour:  req.MaxUniqueVendorsPerHour,
		OnAnomaly:                req.OnAnomaly,
		OnMissedHeartbeat:        req.OnMissedHeartbeat,
		OnManualTrigger:          req.OnManualTrigger,
		CascadeToChildren:        req.CascadeToChildren,
		RecoveryRequiresHuman:    req.RecoveryRequiresHuman,
	}
	if err := h.store.PutDeadManConfig(c.Request.Context(), cfg); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, cfg)
}

// Heartbeat handles POST /v1/agents/:id/heartbeat.
func (h *DeadManHandler) Heartbeat(c *gin.Context) {
	deadline, blocked, err := h.monitor.Heartbeat(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"next_deadline": deadline, "blocked": blocked})
}

// Trigger handles POST /v1/agents/:id/deadman/trigger.
func (h *DeadManHandler) Trigger(c *gin.Context) {
	event, err := h.monitor.Trigger(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, event)
}

// Unfreeze handles POST /v1/agents/:id/deadman/unfreeze.
func (h *DeadManHandler) Unfreeze(c *gin.Context) {
	event, err := h.monitor.Unfreeze(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, event)
}

// ListEvents handles GET /v1/agents/:id/deadman/events.
func (h *DeadManHandler) ListEvents(c *gin.Context) {
	events, err := h.store.ListDeadManEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": events})
}
