package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/admission"
	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/crossagent"
	"github.com/agentwallet/agentwallet/internal/deadman"
	"github.com/agentwallet/agentwallet/internal/gateway/config"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/pkg/applog"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Server wires every governance component to the gin engine and owns the
// background sweep loops. Modeled on hivemind/server.go's apiServer, with
// the gRPC/plugin/LLM modules that repo wires replaced by AgentWallet's
// own component set.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	http   *http.Server

	store     store.Store
	admission *admission.Controller
	kill      *killswitch.Engine
	deadman   *deadman.Monitor
	crossagent *crossagent.Governor
	audit     *audit.Recorder
}

// New constructs a Server over an already-opened Store.
func New(cfg *config.Config, s store.Store) *Server {
	applog.SetLevel(cfg.LogLevel)

	kill := killswitch.New(s)
	dm := deadman.New(s, nil)
	ctrl := admission.New(s, kill, dm)

	srv := &Server{
		cfg:        cfg,
		store:      s,
		admission:  ctrl,
		kill:       kill,
		deadman:    dm,
		crossagent: crossagent.New(s),
		audit:      audit.New(s),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	initRouter(engine, &routerDeps{
		store:      s,
		admission:  ctrl,
		kill:       kill,
		deadman:    dm,
		crossagent: srv.crossagent,
		audit:      srv.audit,
	})
	srv.engine = engine
	srv.http = &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: engine,
	}
	return srv
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		applog.Info("agentwallet gateway listening on %s", s.cfg.ListenAddress)
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// RunDeadManSweep runs the dead-man switch's background sweep until ctx is
// cancelled.
func (s *Server) RunDeadManSweep(ctx context.Context) error {
	return s.deadman.RunLoop(ctx, s.cfg.DeadManSweepEvery)
}

// RunReconcileSweep runs the stuck-transaction reconciliation sweep until
// ctx is cancelled.
func (s *Server) RunReconcileSweep(ctx context.Context) error {
	return s.admission.RunReconcileLoop(ctx, s.cfg.ReconcileEvery, s.listAllWalletIDs)
}

func (s *Server) listAllWalletIDs(ctx context.Context) ([]string, error) {
	wallets, err := s.store.ListAllWallets(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(wallets))
	for i, w := range wallets {
		ids[i] = w.ID
	}
	return ids, nil
}
