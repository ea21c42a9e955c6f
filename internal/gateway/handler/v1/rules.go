package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/lineage"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// RuleHandler handles spend-rule CRUD on a wallet.
type RuleHandler struct {
	store store.Store
}

// NewRuleHandler constructs a RuleHandler over s.
func NewRuleHandler(s store.Store) *RuleHandler {
	return &RuleHandler{store: s}
}

type createRuleRequest struct {
	Kind     store.RuleKind `json:"kind" binding:"required"`
	Params   map[string]any `json:"params"`
	Priority int            `json:"priority"`
}

var validRuleKinds = map[store.RuleKind]bool{
	store.RulePerTransactionLimit: true,
	store.RuleDailyLimit:          true,
	store.RuleWeeklyLimit:         true,
	store.RuleMonthlyLimit:        true,
	store.RuleCategoryWhitelist:   true,
	store.RuleCategoryBlacklist:   true,
	store.RuleRecipientWhitelist:  true,
	store.RuleRecipientBlacklist:  true,
	store.RuleTimeWindow:          true,
	store.RuleApprovalThreshold:   true,
	store.RuleSignalFilter:        true,
}

// Create handles POST /v1/wallets/:id/rules.
func (h *RuleHandler) Create(c *gin.Context) {
	var req createRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	if !validRuleKinds[req.Kind] {
		respond.Error(c, errno.ErrUnknownRuleKind)
		return
	}
	ctx := c.Request.Context()
	walletID := c.Param("id")
	if err := h.enforceSpawnPolicy(ctx, walletID, req.Kind, req.Params); err != nil {
		respond.Error(c, err)
		return
	}
	rule := &store.SpendRule{
		ID:       idgen.NewPrefixed("rul"),
		WalletID: walletID,
		Kind:     req.Kind,
		Params:   req.Params,
		Active:   true,
		Priority: req.Priority,
	}
	if err := h.store.CreateRule(ctx, rule); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, rule)
}

// enforceSpawnPolicy rejects params that would give the wallet's owning
// agent a numeric limit looser than that agent's lineage SpawnPolicy
// fixed for kind — spawned agents can never loosen what spawn derived for
// them, only tighten further. Agents with no lineage (never spawned, or a
// lineage root) carry no such ceiling.
func (h *RuleHandler) enforceSpawnPolicy(ctx context.Context, walletID string, kind store.RuleKind, params map[string]any) error {
	wallet, err := h.store.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	lin, err := h.store.GetLineage(ctx, wallet.AgentID)
	if err == errno.ErrLineageNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return lineage.EnforceRuleOverride(lin.SpawnPolicy, kind, params)
}

type updateRuleRequest struct {
	Params   map[string]any `json:"params"`
	Active   *bool          `json:"active"`
	Priority *int           `json:"priority"`
}

// Update handles PATCH /v1/rules/:ruleId.
func (h *RuleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	rule, err := h.store.GetRule(ctx, c.Param("ruleId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req updateRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Params != nil {
		if err := h.enforceSpawnPolicy(ctx, rule.WalletID, rule.Kind, req.Params); err != nil {
			respond.Error(c, err)
			return
		}
		rule.Params = req.Params
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if err := h.store.UpdateRule(ctx, rule); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, rule)
}

// Delete handles DELETE /v1/rules/:ruleId.
func (h *RuleHandler) Delete(c *gin.Context) {
	id := c.Param("ruleId")
	if err := h.store.DeleteRule(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"id": id, "deleted": true})
}

// ListByWallet handles GET /v1/wallets/:id/rules.
func (h *RuleHandler) ListByWallet(c *gin.Context) {
	rules, err := h.store.ListActiveRulesByWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": rules})
}
