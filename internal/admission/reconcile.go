package admission

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/applog"
	"github.com/agentwallet/agentwallet/internal/store"
)

// ReconcileGracePeriod is how long a Pending/Failed transaction is left
// alone before the sweep reclassifies it.
const ReconcileGracePeriod = 5 * time.Minute

// ReconcileSweep scans walletIDs for stuck Pending/Failed transactions
// older than ReconcileGracePeriod and reclassifies each by re-reading the
// wallet's current balance: a transaction whose amount the wallet could
// still afford is left for a retry by the caller; one it no longer can is
// marked Failed so it stops blocking reads of "pending" state.
func (c *Controller) ReconcileSweep(ctx context.Context, walletIDs []string, now time.Time) error {
	for _, walletID := range walletIDs {
		if err := c.reconcileWallet(ctx, walletID, now); err != nil {
			applog.Error("reconcile sweep failed for wallet %s: %v", walletID, err)
		}
	}
	return nil
}

func (c *Controller) reconcileWallet(ctx context.Context, walletID string, now time.Time) error {
	lock := c.lockFor(walletID)
	lock.Lock()
	defer lock.Unlock()

	wallet, err := c.store.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	txs, err := c.store.ListTransactionsByWallet(ctx, walletID)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.Status != store.TxPending && tx.Status != store.TxFailed {
			continue
		}
		if now.Sub(tx.CreatedAt) < ReconcileGracePeriod {
			continue
		}
		if tx.Status == store.TxPending {
			if wallet.Balance >= tx.Amount {
				continue
			}
			tx.Status = store.TxFailed
			if err := c.store.UpdateTransaction(ctx, tx); err != nil {
				return err
			}
			applog.Warn("reconcile: transaction %s on wallet %s reclassified Pending -> Failed", tx.ID, walletID)
		}
	}
	return nil
}

// RunReconcileLoop runs ReconcileSweep on interval until ctx is cancelled,
// listing the wallets to sweep via listWallets on each tick.
func (c *Controller) RunReconcileLoop(ctx context.Context, interval time.Duration, listWallets func(context.Context) ([]string, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			ids, err := listWallets(ctx)
			if err != nil {
				applog.Error("reconcile loop: listing wallets failed: %v", err)
				continue
			}
			if err := c.ReconcileSweep(ctx, ids, now); err != nil {
				applog.Error("reconcile loop: %v", err)
			}
		}
	}
}
