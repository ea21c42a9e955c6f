package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/admission"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// TransactionHandler handles transaction submission and the
// approve/reject/list-pending operator path.
type TransactionHandler struct {
	admission *admission.Controller
	store     store.Store
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(ctrl *admission.Controller, s store.Store) *TransactionHandler {
	return &TransactionHandler{admission: ctrl, store: s}
}

type submitRequest struct {
	AmountCents   int64                `json:"amount_cents" binding:"required"`
	Category      string               `json:"category"`
	RecipientID   string               `json:"recipient_id"`
	RecipientType store.RecipientType  `json:"recipient_type"`
	Description   string               `json:"description"`
	Metadata      map[string]any       `json:"metadata,omitempty"`
}

// Submit handles POST /v1/wallets/:id/transactions.
func (h *TransactionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	candidate := admission.Candidate{
		Amount:        req.AmountCents,
		Category:      req.Category,
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		Description:   req.Description,
		Metadata:      req.Metadata,
	}
	tx, err := h.admission.Submit(c.Request.Context(), c.Param("id"), candidate, time.Now())
	if err != nil && tx == nil {
		respond.Error(c, err)
		return
	}
	switch {
	case err != nil:
		// Persisted but rejected/killswitched/latched: the caller still
		// gets the transaction id and classified error.
		respond.Error(c, err)
	case tx.Status == store.TxAwaitingApproval:
		respond.Accepted(c, tx)
	default:
		respond.Created(c, tx)
	}
}

// Get handles GET /v1/transactions/:txId.
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.store.GetTransaction(c.Request.Context(), c.Param("txId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tx)
}

type approveRequest struct {
	Operator string `json:"operator" binding:"required"`
}

// Approve handles POST /v1/transactions/:txId/approve.
func (h *TransactionHandler) Approve(c *gin.Context) {
	var req approveRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.admission.Approve(c.Request.Context(), c.Param("txId"), req.Operator, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tx)
}

type rejectRequest struct {
	Operator string `json:"operator" binding:"required"`
	Reason   string `json:"reason"`
}

// Reject handles POST /v1/transactions/:txId/reject.
func (h *TransactionHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.admission.Reject(c.Request.Context(), c.Param("txId"), req.Operator, req.Reason, time.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tx)
}

// ListPending handles GET /v1/wallets/:id/transactions/pending.
func (h *TransactionHandler) ListPending(c *gin.Context) {
	txs, err := h.store.ListPendingApproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": txs})
}

// ListByWallet handles GET /v1/wallets/:id/transactions.
func (h *TransactionHandler) ListByWallet(c *gin.Context) {
	txs, err := h.store.ListTransactionsByWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": txs})
}
