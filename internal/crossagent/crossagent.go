// Package crossagent implements the Cross-Agent Governor:
// resolving the most specific policy between two agents, checking it, and
// recording the authorization decision — escalating to human approval
// above a configured threshold.
package crossagent

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Governor authorizes cross-agent payments.
type Governor struct {
	store store.Store
}

// New constructs a Governor over s.
func New(s store.Store) *Governor {
	return &Governor{store: s}
}

// Outcome is the human-readable result of an authorize call, alongside
// the persisted CrossAgentTransaction.
type Outcome string

const (
	OutcomeNoPolicy    Outcome = "no policy, human approval required"
	OutcomeNoMutual    Outcome = "no reciprocal policy"
	OutcomeRejected    Outcome = "rejected by policy"
	OutcomeEscalated   Outcome = "escalated"
	OutcomeAuthorized  Outcome = "authorized"
)

// Authorize runs policy resolution and the authorization checks for a (source,
// target, amount, paymentType) payment attempt.
func (g *Governor) Authorize(ctx context.Context, source, target string, amount int64, paymentType string, metadata map[string]any, now time.Time) (*store.CrossAgentTransaction, Outcome, error) {
	policy, err := g.resolve(ctx, source, target)
	if err != nil {
		return nil, "", err
	}
	if policy == nil {
		tx := g.newTx(source, target, amount, paymentType, false, "", store.SettlementPending, true, now)
		if err := g.store.CreateCrossTx(ctx, tx); err != nil {
			return nil, "", err
		}
		return tx, OutcomeNoPolicy, nil
	}

	if policy.RequireMutualPolicy {
		reciprocal, err := g.resolve(ctx, target, source)
		if err != nil {
			return nil, "", err
		}
		if reciprocal == nil {
			tx := g.newTx(source, target, amount, paymentType, false, "", store.SettlementFailed, true, now)
			if err := g.store.CreateCrossTx(ctx, tx); err != nil {
				return nil, "", err
			}
			return tx, OutcomeNoMutual, nil
		}
	}

	ok, err := g.passesChecks(ctx, source, target, amount, paymentType, policy, now)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		tx := g.newTx(source, target, amount, paymentType, false, "", store.SettlementFailed, false, now)
		if err := g.store.CreateCrossTx(ctx, tx); err != nil {
			return nil, "", err
		}
		return tx, OutcomeRejected, nil
	}

	if amount > policy.Limits.RequireHumanApprovalAbove && policy.Limits.RequireHumanApprovalAbove > 0 {
		tx := g.newTx(source, target, amount, paymentType, false, store.AuthEscalated, store.SettlementPending, true, now)
		if err := g.store.CreateCrossTx(ctx, tx); err != nil {
			return nil, "", err
		}
		return tx, OutcomeEscalated, nil
	}

	settlement := store.SettlementPending
	if policy.SettlementMode == store.SettlementImmediate {
		settlement = store.SettlementSettled
	}
	tx := g.newTx(source, target, amount, paymentType, true, store.AuthAuto, settlement, false, now)
	if err := g.store.CreateCrossTx(ctx, tx); err != nil {
		return nil, "", err
	}
	return tx, OutcomeAuthorized, nil
}

func (g *Governor) newTx(source, target string, amount int64, paymentType string, authorized bool, method store.AuthorizationMethod, settlement store.SettlementStatus, requiresHuman bool, now time.Time) *store.CrossAgentTransaction {
	return &store.CrossAgentTransaction{
		ID:                  idgen.NewPrefixed("xtx"),
		SourceAgentID:       source,
		TargetAgentID:       target,
		Amount:              amount,
		PaymentType:         paymentType,
		Authorized:          authorized,
		AuthorizationMethod: method,
		SettlementStatus:    settlement,
		RequiresHuman:       requiresHuman,
		CreatedAt:           now,
	}
}

// resolve picks the most specific enabled policy for (source, target):
// exact match, then group match, then wildcard.
func (g *Governor) resolve(ctx context.Context, source, target string) (*store.CrossAgentPolicy, error) {
	policies, err := g.store.ListPoliciesBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	var exact, group, wildcard *store.CrossAgentPolicy
	for _, p := range policies {
		if !p.Enabled {
			continue
		}
		switch {
		case p.TargetAgentID == target && p.TargetAgentID != "":
			exact = p
		case p.TargetAgentGroup != "" && group == nil:
			if g.groupContains(ctx, p.TargetAgentGroup, target) {
				group = p
			}
		case p.TargetAgentID == "" && p.TargetAgentGroup == "" && wildcard == nil:
			wildcard = p
		}
	}
	if exact != nil {
		return exact, nil
	}
	if group != nil {
		return group, nil
	}
	return wildcard, nil
}

func (g *Governor) groupContains(ctx context.Context, groupID, agentID string) bool {
	group, err := g.store.GetGroup(ctx, groupID)
	if err != nil {
		return false
	}
	for _, id := range group.AgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

func (g *Governor) passesChecks(ctx context.Context, source, target string, amount int64, paymentType string, policy *store.CrossAgentPolicy, now time.Time) (bool, error) {
	if !containsPaymentType(policy.Limits.AllowedPaymentTypes, paymentType) {
		return false, nil
	}
	if amount > policy.Limits.MaxPerTransaction {
		return false, nil
	}

	since := now.Add(-24 * time.Hour)
	sourceTxs, err := g.store.ListCrossTxBySource(ctx, source)
	if err != nil {
		return false, err
	}
	var toTarget, toAll int64
	for _, t := range sourceTxs {
		if !t.Authorized || t.CreatedAt.Before(since) {
			continue
		}
		toAll += t.Amount
		if t.TargetAgentID == target {
			toTarget += t.Amount
		}
	}
	if toTarget+amount > policy.Limits.MaxDailyToTarget {
		return false, nil
	}
	if toAll+amount > policy.Limits.MaxDailyAllAgents {
		return false, nil
	}

	if policy.MinCounterpartyTrustScore > 0 {
		score, err := g.trustScore(ctx, target)
		if err != nil {
			return false, err
		}
		if score < policy.MinCounterpartyTrustScore {
			return false, nil
		}
	}
	return true, nil
}

func (g *Governor) trustScore(ctx context.Context, target string) (float64, error) {
	txs, err := g.store.ListCrossTxByTarget(ctx, target)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}
	var settled int
	for _, t := range txs {
		if t.SettlementStatus == store.SettlementSettled {
			settled++
		}
	}
	return float64(settled) / float64(len(txs)), nil
}

func containsPaymentType(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Approve completes the human-approval path for an escalated transaction.
func (g *Governor) Approve(ctx context.Context, id string) (*store.CrossAgentTransaction, error) {
	tx, err := g.store.GetCrossTx(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.RequiresHuman || tx.Authorized {
		return nil, errno.ErrCrossTxNotEscalated
	}
	tx.Authorized = true
	tx.AuthorizationMethod = store.AuthHumanApproved
	tx.SettlementStatus = store.SettlementSettled
	if err := g.store.UpdateCrossTx(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
