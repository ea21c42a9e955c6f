package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/admission"
	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/crossagent"
	"github.com/agentwallet/agentwallet/internal/deadman"
	v1 "github.com/agentwallet/agentwallet/internal/gateway/handler/v1"
	"github.com/agentwallet/agentwallet/internal/gateway/handler/middleware"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/store"
)

// routerDeps holds the dependencies route registration wires into handlers.
type routerDeps struct {
	store      store.Store
	admission  *admission.Controller
	kill       *killswitch.Engine
	deadman    *deadman.Monitor
	crossagent *crossagent.Governor
	audit      *audit.Recorder
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.BearerAuth(deps.store))
}

func installController(g *gin.Engine, deps *routerDeps) {
	g.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": "dev"}) })

	owners := v1.NewOwnerHandler(deps.store)
	agents := v1.NewAgentHandler(deps.store)
	wallets := v1.NewWalletHandler(deps.store, deps.admission)
	rules := v1.NewRuleHandler(deps.store)
	txs := v1.NewTransactionHandler(deps.admission, deps.store)
	switches := v1.NewKillSwitchHandler(deps.store, deps.kill)
	dm := v1.NewDeadManHandler(deps.store, deps.deadman)
	lin := v1.NewLineageHandler(deps.store)
	cross := v1.NewCrossAgentHandler(deps.store)
	aud := v1.NewAuditHandler(deps.store, deps.audit)

	api := g.Group("/v1")
	{
		api.POST("/owners", owners.Create)
		api.GET("/owners/:id", owners.Get)
		api.POST("/owners/:id/rotate-key", owners.RotateAPIKey)
		api.GET("/owners/:id/agents", agents.ListByOwner)
		api.GET("/owners/:id/cross-agent/policies", cross.ListByOwner)
		api.POST("/owners/:id/kill-switch", switches.GlobalStop)

		api.POST("/agents", agents.Create)
		api.GET("/agents/:id", agents.Get)
		api.POST("/agents/:id/pause", agents.Pause)
		api.POST("/agents/:id/activate", agents.Activate)
		api.POST("/agents/:id/heartbeat", dm.Heartbeat)
		api.POST("/agents/:id/deadman", dm.Register)
		api.POST("/agents/:id/deadman/trigger", dm.Trigger)
		api.POST("/agents/:id/deadman/unfreeze", dm.Unfreeze)
		api.GET("/agents/:id/deadman/events", dm.ListEvents)
		api.POST("/agents/:id/freeze", dm.Freeze)
		api.POST("/agents/:id/terminate", dm.Terminate)
		api.POST("/agents/:id/spawn", lin.Spawn)
		api.GET("/agents/:id/lineage", lin.Get)
		api.GET("/agents/:id/wallets", wallets.ListByAgent)
		api.GET("/agents/:id/cross-agent/transactions", cross.ListBySource)
		api.GET("/agents/:id/audit", aud.ListByAgent)
		api.GET("/agents/:id/audit/summary", aud.Summary)
		api.GET("/agents/:id/audit/export", aud.Export)

		api.POST("/wallets", wallets.Create)
		api.GET("/wallets/:id", wallets.Get)
		api.GET("/wallets/:id/balance", wallets.Balance)
		api.POST("/wallets/:id/deposit", wallets.Deposit)
		api.POST("/wallets/:id/freeze", wallets.Freeze)
		api.POST("/wallets/:id/unfreeze", wallets.Unfreeze)
		api.POST("/wallets/:id/rules", rules.Create)
		api.GET("/wallets/:id/rules", rules.ListByWallet)
		api.POST("/wallets/:id/killswitches", switches.Create)
		api.GET("/wallets/:id/killswitches", switches.ListByWallet)
		api.POST("/wallets/:id/transactions", txs.Submit)
		api.GET("/wallets/:id/transactions", txs.ListByWallet)
		api.GET("/wallets/:id/transactions/pending", txs.ListPending)

		api.PATCH("/rules/:ruleId", rules.Update)
		api.DELETE("/rules/:ruleId", rules.Delete)

		api.DELETE("/killswitches/:ksId", switches.Delete)
		api.POST("/killswitches/:ksId/reset", switches.Reset)
		api.POST("/emergency-stop", switches.EmergencyStop)

		api.GET("/transactions/:txId", txs.Get)
		api.POST("/transactions/:txId/approve", txs.Approve)
		api.POST("/transactions/:txId/reject", txs.Reject)

		api.POST("/cross-agent/policies", cross.CreatePolicy)
		api.GET("/cross-agent/policies/:policyId", cross.Get)
		api.POST("/cross-agent/authorize", cross.Authorize)
		api.POST("/cross-agent/transactions/:txId/approve", cross.Approve)
	}
}
