package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/crossagent"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// CrossAgentHandler handles cross-agent policy CRUD, authorize, and the
// human-approval path for escalated transactions.
type CrossAgentHandler struct {
	store store.Store
	gov   *crossagent.Governor
}

// NewCrossAgentHandler constructs a CrossAgentHandler over s.
func NewCrossAgentHandler(s store.Store) *CrossAgentHandler {
	return &CrossAgentHandler{store: s, gov: crossagent.New(s)}
}

type createPolicyRequest struct {
	OwnerID                   string                  `json:"owner_id" binding:"required"`
	SourceAgentID             string                  `json:"source_agent_id" binding:"required"`
	TargetAgentID             string                  `json:"target_agent_id,omitempty"`
	TargetAgentGroup          string                  `json:"target_agent_group,omitempty"`
	Limits                    store.CrossAgentLimits  `json:"limits"`
	RequireMutualPolicy       bool                    `json:"require_mutual_policy"`
	SettlementMode            store.SettlementMode    `json:"settlement_mode"`
	MinCounterpartyTrustScore float64                 `json:"min_counterparty_trust_score"`
}

// CreatePolicy handles POST /v1/cross-agent/policies.
func (h *CrossAgentHandler) CreatePolicy(c *gin.Context) {
	var req createPolicyRequest
	if !bindJSON(c, &req) {
		return
	}
	policy := &store.CrossAgentPolicy{
		ID:                        idgen.NewPrefixed("pol"),
		OwnerID:                   req.OwnerID,
		SourceAgentID:             req.SourceAgentID,
		TargetAgentID:             req.TargetAgentID,
		TargetAgentGroup:          req.TargetAgentGroup,
		Limits:                    req.Limits,
		RequireMutualPolicy:       req.RequireMutualPolicy,
		SettlementMode:            req.SettlementMode,
		MinCounterpartyTrustScore: req.MinCounterpartyTrustScore,
		Enabled:                   true,
	}
	if err := h.store.CreatePolicy(c.Request.Context(), policy); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, policy)
}

// Get handles GET /v1/cross-agent/policies/:policyId.
func (h *CrossAgentHandler) Get(c *gin.Context) {
	policy, err := h.store.GetPolicy(c.Request.Context(), c.Param("policyId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, policy)
}

// ListByOwner handles GET /v1/owners/:id/cross-agent/policies.
func (h *CrossAgentHandler) ListByOwner(c *gin.Context) {
	policies, err := h.store.ListPoliciesByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": policies})
}

type authorizeRequest struct {
	SourceAgentID string         `json:"source_agent_id" binding:"required"`
	TargetAgentID string         `json:"target_agent_id" binding:"required"`
	AmountCents   int64          `json:"amount_cents" binding:"required"`
	PaymentType   string         `json:"payment_type"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Authorize handles POST /v1/cross-agent/authorize.
func (h *CrossAgentHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, outcome, err := h.gov.Authorize(c.Request.Context(), req.SourceAgentID, req.TargetAgentID, req.AmountCents, req.PaymentType, req.Metadata, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	if tx.RequiresHuman {
		respond.Accepted(c, gin.H{"transaction": tx, "outcome": outcome})
		return
	}
	respond.Created(c, gin.H{"transaction": tx, "outcome": outcome})
}

// Approve handles POST /v1/cross-agent/transactions/:txId/approve.
func (h *CrossAgentHandler) Approve(c *gin.Context) {
	tx, err := h.gov.Approve(c.Request.Context(), c.Param("txId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tx)
}

// ListBySource handles GET /v1/agents/:id/cross-agent/transactions.
func (h *CrossAgentHandler) ListBySource(c *gin.Context) {
	txs, err := h.store.ListCrossTxBySource(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": txs})
}
