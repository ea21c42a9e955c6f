package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentwallet/agentwallet/internal/gateway/config"
	"github.com/agentwallet/agentwallet/internal/pkg/applog"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Run builds a Server over s and runs the HTTP listener alongside the
// dead-man sweep and reconciliation sweep until ctx is cancelled. Modeled
// on hivemind/run.go's Run(cfg) one-liner, expanded to coordinate three
// goroutines with errgroup the way the dead-man monitor and admission
// controller each already use their own RunLoop.
func Run(ctx context.Context, cfg *config.Config, s store.Store) error {
	srv := New(cfg, s)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	g.Go(func() error { return srv.RunDeadManSweep(ctx) })
	g.Go(func() error { return srv.RunReconcileSweep(ctx) })

	err := g.Wait()
	if err != nil && err != context.Canceled {
		applog.Error("gateway stopped with error: %v", err)
		return err
	}
	return nil
}
