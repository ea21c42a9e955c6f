package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// AgentHandler handles the Agent lifecycle: create, pause, activate, read.
type AgentHandler struct {
	store store.Store
	audit *audit.Recorder
}

// NewAgentHandler constructs an AgentHandler over s.
func NewAgentHandler(s store.Store) *AgentHandler {
	return &AgentHandler{store: s, audit: audit.New(s)}
}

type createAgentRequest struct {
	OwnerID  string            `json:"owner_id" binding:"required"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Create handles POST /v1/agents. The returned apiKey is shown once.
func (h *AgentHandler) Create(c *gin.Context) {
	var req createAgentRequest
	if !bindJSON(c, &req) {
		return
	}
	now := time.Now()
	agent := &store.Agent{
		ID:        idgen.NewPrefixed("agt"),
		OwnerID:   req.OwnerID,
		APIKey:    idgen.New(),
		Status:    store.AgentActive,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateAgent(c.Request.Context(), agent); err != nil {
		respond.Error(c, err)
		return
	}
	_ = h.audit.Record(c.Request.Context(), agent.ID, "create", "agent", agent.ID, store.DecisionSystem, "agent provisioned", now)
	respond.Created(c, agent)
}

// Get handles GET /v1/agents/:id.
func (h *AgentHandler) Get(c *gin.Context) {
	agent, err := h.store.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, agent)
}

// ListByOwner handles GET /v1/owners/:id/agents.
func (h *AgentHandler) ListByOwner(c *gin.Context) {
	agents, err := h.store.ListAgentsByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": agents})
}

// Pause handles POST /v1/agents/:id/pause.
func (h *AgentHandler) Pause(c *gin.Context) {
	h.transition(c, store.AgentPaused)
}

// Activate handles POST /v1/agents/:id/activate.
func (h *AgentHandler) Activate(c *gin.Context) {
	h.transition(c, store.AgentActive)
}

func (h *AgentHandler) transition(c *gin.Context, to store.AgentStatus) {
	ctx := c.Request.Context()
	agent, err := h.store.GetAgent(ctx, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if agent.Status == store.AgentTerminated || agent.Status == store.AgentKilled {
		respond.Error(c, errno.ErrAgentNotActive)
		return
	}
	now := time.Now()
	agent.Status = to
	agent.UpdatedAt = now
	if err := h.store.UpdateAgent(ctx, agent); err != nil {
		respond.Error(c, err)
		return
	}
	_ = h.audit.Record(ctx, agent.ID, "transition", "agent", agent.ID, store.DecisionSystem, "status -> "+string(to), now)
	respond.OK(c, agent)
}
