package rules

import (
	"fmt"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func paramFloat(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func paramStrings(params map[string]any, key string) ([]string, bool) {
	v, ok := params[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s, true
		}
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// ValidateParams enforces each rule kind's creation-time constraints: limit/
// threshold strictly positive; category/recipient/signal lists non-empty;
// time-window hours within [0,23].
func ValidateParams(kind store.RuleKind, params map[string]any) error {
	switch kind {
	case store.RulePerTransactionLimit, store.RuleDailyLimit, store.RuleWeeklyLimit, store.RuleMonthlyLimit:
		limit, ok := paramFloat(params, "limit")
		if !ok || limit <= 0 {
			return fmt.Errorf("%w: %s requires limit > 0", errno.ErrInvalidRuleParams, kind)
		}
	case store.RuleCategoryWhitelist, store.RuleCategoryBlacklist:
		categories, ok := paramStrings(params, "categories")
		if !ok || len(categories) == 0 {
			return fmt.Errorf("%w: %s requires non-empty categories", errno.ErrInvalidRuleParams, kind)
		}
	case store.RuleRecipientWhitelist, store.RuleRecipientBlacklist:
		recipients, ok := paramStrings(params, "recipients")
		if !ok || len(recipients) == 0 {
			return fmt.Errorf("%w: %s requires non-empty recipients", errno.ErrInvalidRuleParams, kind)
		}
	case store.RuleTimeWindow:
		start, ok1 := paramFloat(params, "startHour")
		end, ok2 := paramFloat(params, "endHour")
		if !ok1 || !ok2 || start < 0 || start > 23 || end < 0 || end > 23 {
			return fmt.Errorf("%w: %s requires startHour/endHour in [0,23]", errno.ErrInvalidRuleParams, kind)
		}
	case store.RuleApprovalThreshold:
		threshold, ok := paramFloat(params, "threshold")
		if !ok || threshold <= 0 {
			return fmt.Errorf("%w: %s requires threshold > 0", errno.ErrInvalidRuleParams, kind)
		}
	case store.RuleSignalFilter:
		signals, ok := paramStrings(params, "allowedSignals")
		if !ok || len(signals) == 0 {
			return fmt.Errorf("%w: %s requires non-empty allowedSignals", errno.ErrInvalidRuleParams, kind)
		}
	default:
		return fmt.Errorf("%w: %s", errno.ErrUnknownRuleKind, kind)
	}
	return nil
}
