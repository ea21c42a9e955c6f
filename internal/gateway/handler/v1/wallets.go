package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/admission"
	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// WalletHandler handles wallet creation, reads, freeze/unfreeze, and
// deposits (deposits bypass the rules engine, so they route through the
// admission Controller's Deposit method rather than Submit).
type WalletHandler struct {
	store      store.Store
	admission  *admission.Controller
	audit      *audit.Recorder
}

// NewWalletHandler constructs a WalletHandler over s and admission ctrl.
func NewWalletHandler(s store.Store, ctrl *admission.Controller) *WalletHandler {
	return &WalletHandler{store: s, admission: ctrl, audit: audit.New(s)}
}

type createWalletRequest struct {
	AgentID  string `json:"agent_id" binding:"required"`
	Currency string `json:"currency"`
}

// Create handles POST /v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req createWalletRequest
	if !bindJSON(c, &req) {
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	now := time.Now()
	wallet := &store.Wallet{
		ID:        idgen.NewPrefixed("wal"),
		AgentID:   req.AgentID,
		Balance:   0,
		Currency:  currency,
		Status:    store.WalletActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateWallet(c.Request.Context(), wallet); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, wallet)
}

// Get handles GET /v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.store.GetWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, wallet)
}

// Balance handles GET /v1/wallets/:id/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	wallet, err := h.store.GetWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"wallet_id": wallet.ID, "balance_cents": wallet.Balance, "currency": wallet.Currency})
}

// ListByAgent handles GET /v1/agents/:id/wallets.
func (h *WalletHandler) ListByAgent(c *gin.Context) {
	wallets, err := h.store.ListWalletsByAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": wallets})
}

type depositRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Description string `json:"description"`
}

// Deposit handles POST /v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.admission.Deposit(c.Request.Context(), c.Param("id"), req.AmountCents, req.Description, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, tx)
}

// Freeze handles POST /v1/wallets/:id/freeze.
func (h *WalletHandler) Freeze(c *gin.Context) {
	h.transition(c, store.WalletFrozen)
}

// Unfreeze handles POST /v1/wallets/:id/unfreeze.
func (h *WalletHandler) Unfreeze(c *gin.Context) {
	h.transition(c, store.WalletActive)
}

func (h *WalletHandler) transition(c *gin.Context, to store.WalletStatus) {
	ctx := c.Request.Context()
	wallet, err := h.store.GetWallet(ctx, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	now := time.Now()
	wallet.Status = to
	wallet.UpdatedAt = now
	if err := h.store.UpdateWallet(ctx, wallet); err != nil {
		respond.Error(c, err)
		return
	}
	_ = h.audit.Record(ctx, wallet.AgentID, "transition", "wallet", wallet.ID, store.DecisionSystem, "status -> "+string(to), now)
	respond.OK(c, wallet)
}
