package admission

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/deadman"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func setup(t *testing.T) (*Controller, store.Store, string) {
	t.Helper()
	s := inmemory.New()
	ctx := context.Background()
	if err := s.CreateAgent(ctx, &store.Agent{ID: "A", Status: store.AgentActive}); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if err := s.CreateWallet(ctx, &store.Wallet{ID: "W", AgentID: "A", Balance: 100000, Status: store.WalletActive}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	ctrl := New(s, killswitch.New(s), deadman.New(s, nil))
	return ctrl, s, "W"
}

func TestSubmitApprovalThresholdFlow(t *testing.T) {
	ctrl, s, walletID := setup(t)
	ctx := context.Background()
	if err := s.CreateRule(ctx, &store.SpendRule{ID: "r1", WalletID: walletID, Kind: store.RuleApprovalThreshold, Params: map[string]any{"threshold": 75.0}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if err := s.CreateRule(ctx, &store.SpendRule{ID: "r2", WalletID: walletID, Kind: store.RulePerTransactionLimit, Params: map[string]any{"limit": 200.0}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	now := time.Now()
	tx, err := ctrl.Submit(ctx, walletID, Candidate{Amount: 80, Category: "advertising"}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.Status != store.TxAwaitingApproval {
		t.Fatalf("status = %v, want AwaitingApproval", tx.Status)
	}
	wallet, _ := s.GetWallet(ctx, walletID)
	if wallet.Balance != 100000 {
		t.Errorf("balance = %d, want unchanged 100000", wallet.Balance)
	}

	approved, err := ctrl.Approve(ctx, tx.ID, "owner1", now)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != store.TxCompleted {
		t.Fatalf("status after approve = %v, want Completed", approved.Status)
	}
	wallet, _ = s.GetWallet(ctx, walletID)
	if wallet.Balance != 100000-80 {
		t.Errorf("balance after approve = %d, want %d", wallet.Balance, 100000-80)
	}
}

func TestSubmitHardRejection(t *testing.T) {
	ctrl, s, walletID := setup(t)
	ctx := context.Background()
	if err := s.CreateRule(ctx, &store.SpendRule{ID: "r1", WalletID: walletID, Kind: store.RulePerTransactionLimit, Params: map[string]any{"limit": 200.0}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	tx, err := ctrl.Submit(ctx, walletID, Candidate{Amount: 250}, time.Now())
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if tx.Status != store.TxRejected {
		t.Fatalf("status = %v, want Rejected", tx.Status)
	}
	wallet, _ := s.GetWallet(ctx, walletID)
	if wallet.Balance != 100000 {
		t.Errorf("balance = %d, want unchanged", wallet.Balance)
	}
}

func TestDepositBypassesRulesEngine(t *testing.T) {
	ctrl, s, walletID := setup(t)
	ctx := context.Background()
	if err := s.CreateRule(ctx, &store.SpendRule{ID: "r1", WalletID: walletID, Kind: store.RulePerTransactionLimit, Params: map[string]any{"limit": 1.0}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	tx, err := ctrl.Deposit(ctx, walletID, 5000, "top-up", time.Now())
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if tx.Category != store.DepositCategory || tx.Status != store.TxCompleted {
		t.Errorf("deposit tx = %+v", tx)
	}
	wallet, _ := s.GetWallet(ctx, walletID)
	if wallet.Balance != 105000 {
		t.Errorf("balance = %d, want 105000", wallet.Balance)
	}
}

func TestApproveTwiceIsStateConflict(t *testing.T) {
	ctrl, s, walletID := setup(t)
	ctx := context.Background()
	if err := s.CreateRule(ctx, &store.SpendRule{ID: "r1", WalletID: walletID, Kind: store.RuleApprovalThreshold, Params: map[string]any{"threshold": 1.0}, Active: true}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	tx, err := ctrl.Submit(ctx, walletID, Candidate{Amount: 10}, time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ctrl.Approve(ctx, tx.ID, "op", time.Now()); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := ctrl.Approve(ctx, tx.ID, "op", time.Now()); err == nil {
		t.Fatal("expected second approve to fail")
	}
}
