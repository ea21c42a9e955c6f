// Package spendwindow computes the rolling-window spend aggregations the
// DailyLimit/WeeklyLimit/MonthlyLimit rule kinds depend on (the kill
// switch's DailyLossLimit trigger computes its own window over
// internal/pkg/timewindow and does not use this package). It is pure aggregation over reads
// already obtained from the Store, so it carries no third-party
// dependency of its own — see DESIGN.md for why the stdlib time package
// is sufficient here.
package spendwindow

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/timewindow"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Since reports the sum of amount over Completed, non-deposit transactions
// on walletID with createdAt >= since.
func Since(ctx context.Context, s store.Store, walletID string, since time.Time) (int64, error) {
	txs, err := s.ListTransactionsByWallet(ctx, walletID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, t := range txs {
		if t.Status != store.TxCompleted {
			continue
		}
		if t.Category == store.DepositCategory {
			continue
		}
		if t.CreatedAt.Before(since) {
			continue
		}
		total += t.Amount
	}
	return total, nil
}

// Day returns today's spend total for walletID, anchored at now.
func Day(ctx context.Context, s store.Store, walletID string, now time.Time) (int64, error) {
	return Since(ctx, s, walletID, timewindow.StartOfDay(now))
}

// Week returns this week's spend total for walletID, anchored at now.
func Week(ctx context.Context, s store.Store, walletID string, now time.Time) (int64, error) {
	return Since(ctx, s, walletID, timewindow.StartOfWeek(now))
}

// Month returns this month's spend total for walletID, anchored at now.
func Month(ctx context.Context, s store.Store, walletID string, now time.Time) (int64, error) {
	return Since(ctx, s, walletID, timewindow.StartOfMonth(now))
}
