// Package rules implements the closed rule-kind enumeration as a sum-type
// dispatch: one pure evaluate function per kind rather than open
// polymorphism. Engine wires
// that dispatch to the Store for the window-aggregation kinds.
package rules

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/spendwindow"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Candidate is the transaction under evaluation.
type Candidate struct {
	Amount      int64
	Category    string
	RecipientID string
	Metadata    map[string]any
	Now         time.Time
}

// Verdict is the rules engine's output for one candidate:
// {approved, requiresApproval, results[], evaluatedAt}.
type Verdict struct {
	Approved         bool
	RequiresApproval bool
	Results          []store.RuleResult
	EvaluatedAt       time.Time
}

// Engine evaluates a wallet's active rules against a candidate.
type Engine struct {
	store store.Store
}

// New constructs a rules Engine over s.
func New(s store.Store) *Engine {
	return &Engine{store: s}
}

// Evaluate runs every active rule for walletID against c, in descending
// priority order, without short-circuiting — every rule produces a result
// for the audit trail.
func (e *Engine) Evaluate(ctx context.Context, walletID string, c Candidate) (Verdict, error) {
	activeRules, err := e.store.ListActiveRulesByWallet(ctx, walletID)
	if err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Approved: true, EvaluatedAt: c.Now}
	for _, r := range activeRules {
		res, err := e.evaluateOne(ctx, walletID, r, c)
		if err != nil {
			return Verdict{}, err
		}
		verdict.Results = append(verdict.Results, res)
		if !res.Passed {
			verdict.Approved = false
		}
		if res.Kind == store.RuleApprovalThreshold && res.Details == approvalRequiredDetail {
			verdict.RequiresApproval = true
		}
	}
	return verdict, nil
}

const approvalRequiredDetail = "requires_approval"

func (e *Engine) evaluateOne(ctx context.Context, walletID string, r *store.SpendRule, c Candidate) (store.RuleResult, error) {
	switch r.Kind {
	case store.RulePerTransactionLimit:
		return evalPerTransactionLimit(r, c), nil
	case store.RuleDailyLimit:
		return e.evalWindowLimit(ctx, walletID, r, c, spendwindow.Day)
	case store.RuleWeeklyLimit:
		return e.evalWindowLimit(ctx, walletID, r, c, spendwindow.Week)
	case store.RuleMonthlyLimit:
		return e.evalWindowLimit(ctx, walletID, r, c, spendwindow.Month)
	case store.RuleCategoryWhitelist:
		return evalCategoryList(r, c, true), nil
	case store.RuleCategoryBlacklist:
		return evalCategoryList(r, c, false), nil
	case store.RuleRecipientWhitelist:
		return evalRecipientList(r, c, true), nil
	case store.RuleRecipientBlacklist:
		return evalRecipientList(r, c, false), nil
	case store.RuleTimeWindow:
		return evalTimeWindow(r, c), nil
	case store.RuleApprovalThreshold:
		return evalApprovalThreshold(r, c), nil
	case store.RuleSignalFilter:
		return evalSignalFilter(r, c), nil
	default:
		return store.RuleResult{RuleID: r.ID, Kind: r.Kind, Passed: false, Reason: "unknown rule kind"}, nil
	}
}

func evalPerTransactionLimit(r *store.SpendRule, c Candidate) store.RuleResult {
	limit, _ := paramFloat(r.Params, "limit")
	passed := float64(c.Amount) <= limit
	return result(r, passed, "amount within per-transaction limit", "amount exceeds per-transaction limit")
}

type windowFunc func(ctx context.Context, s store.Store, walletID string, now time.Time) (int64, error)

func (e *Engine) evalWindowLimit(ctx context.Context, walletID string, r *store.SpendRule, c Candidate, window windowFunc) (store.RuleResult, error) {
	limit, _ := paramFloat(r.Params, "limit")
	spent, err := window(ctx, e.store, walletID, c.Now)
	if err != nil {
		return store.RuleResult{}, err
	}
	projected := float64(spent + c.Amount)
	passed := projected <= limit
	return result(r, passed, "projected spend within window limit", "projected spend exceeds window limit"), nil
}

func evalCategoryList(r *store.SpendRule, c Candidate, whitelist bool) store.RuleResult {
	categories, _ := paramStrings(r.Params, "categories")
	if c.Category == "" {
		return result(r, true, "no category on candidate", "")
	}
	member := contains(categories, c.Category)
	passed := member == whitelist
	if whitelist {
		return result(r, passed, "category allowed", "category not in whitelist")
	}
	return result(r, passed, "category not blocked", "category in blacklist")
}

func evalRecipientList(r *store.SpendRule, c Candidate, whitelist bool) store.RuleResult {
	recipients, _ := paramStrings(r.Params, "recipients")
	if c.RecipientID == "" {
		return result(r, true, "no recipient on candidate", "")
	}
	member := contains(recipients, c.RecipientID)
	passed := member == whitelist
	if whitelist {
		return result(r, passed, "recipient allowed", "recipient not in whitelist")
	}
	return result(r, passed, "recipient not blocked", "recipient in blacklist")
}

func evalTimeWindow(r *store.SpendRule, c Candidate) store.RuleResult {
	start, _ := paramFloat(r.Params, "startHour")
	end, _ := paramFloat(r.Params, "endHour")
	hour := float64(c.Now.UTC().Hour())
	passed := hour >= start && hour < end
	return result(r, passed, "within allowed time window", "outside allowed time window")
}

func evalApprovalThreshold(r *store.SpendRule, c Candidate) store.RuleResult {
	threshold, _ := paramFloat(r.Params, "threshold")
	res := result(r, true, "below approval threshold", "")
	if float64(c.Amount) > threshold {
		res.Details = approvalRequiredDetail
		res.Reason = "amount exceeds approval threshold"
	}
	return res
}

func evalSignalFilter(r *store.SpendRule, c Candidate) store.RuleResult {
	allowed, _ := paramStrings(r.Params, "allowedSignals")
	signal, _ := c.Metadata["signalStrength"].(string)
	passed := contains(allowed, signal)
	return result(r, passed, "signal strength allowed", "signal strength not allowed")
}

func result(r *store.SpendRule, passed bool, passReason, failReason string) store.RuleResult {
	reason := passReason
	if !passed {
		reason = failReason
	}
	return store.RuleResult{RuleID: r.ID, Kind: r.Kind, Passed: passed, Reason: reason}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
