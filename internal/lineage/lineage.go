// Package lineage implements the Spawn Governor: admitting
// spawn requests, deriving a monotonically-tighter policy envelope for the
// child, and maintaining the lineage tree used for dead-man cascade and
// terminate-lineage.
package lineage

import (
	"context"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/pkg/idgen"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Governor admits spawn requests and maintains the lineage tree.
type Governor struct {
	store store.Store
}

// New constructs a Governor over s.
func New(s store.Store) *Governor {
	return &Governor{store: s}
}

// Request is one spawn(parentId, childId, overrides) call.
// MaxSpendRatio and MaxTransactionRatio scale the parent's own active rule
// limits before RuleOverrides is applied; both default to 1.0 (no
// tightening) when zero. VendorAllowlist, if non-empty, is intersected
// with the parent's own allowlist — it can only narrow, never widen it.
type Request struct {
	MaxSpendRatio       float64
	MaxTransactionRatio float64
	RuleOverrides       map[string]int64
	VendorAllowlist     []string
}

// Spawn admits parentID's request to spawn childID, returning the child's
// new lineage and the recorded event.
func (g *Governor) Spawn(ctx context.Context, parentID, childID string, req Request, now time.Time) (*store.AgentLineage, *store.SpawnEvent, error) {
	parent, err := g.store.GetAgent(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}
	if parent.Status != store.AgentActive {
		return nil, nil, errno.ErrAgentNotActive
	}

	parentLineage, err := g.store.GetLineage(ctx, parentID)
	if err == errno.ErrLineageNotFound {
		parentLineage = &store.AgentLineage{
			AgentID:     parentID,
			RootID:      parentID,
			Depth:       0,
			Status:      store.LineageActive,
			SpawnPolicy: store.DefaultSpawnPolicy(),
		}
		if err := g.store.CreateLineage(ctx, parentLineage); err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	policy := parentLineage.SpawnPolicy
	if parentLineage.Depth >= policy.MaxSpawnDepth {
		return nil, nil, errno.ErrSpawnDepthExceeded
	}
	if len(parentLineage.ChildrenIDs) >= policy.MaxChildren {
		return nil, nil, errno.ErrSpawnChildrenFull
	}
	if parentLineage.Depth > 0 && !policy.ChildrenCanSpawn {
		return nil, nil, errno.ErrSpawnNotAllowed
	}
	if _, err := g.store.GetLineage(ctx, childID); err == nil {
		return nil, nil, errno.ErrLineageExists
	} else if err != errno.ErrLineageNotFound {
		return nil, nil, err
	}

	childPolicy, err := g.derivePolicy(ctx, parentID, policy, req)
	if err != nil {
		return nil, nil, err
	}

	childLineage := &store.AgentLineage{
		AgentID:     childID,
		ParentID:    parentID,
		RootID:      parentLineage.RootID,
		Depth:       parentLineage.Depth + 1,
		Status:      store.LineageActive,
		SpawnPolicy: childPolicy,
	}
	updatedParent := *parentLineage
	updatedParent.ChildrenIDs = append(append([]string{}, parentLineage.ChildrenIDs...), childID)

	event := &store.SpawnEvent{
		ID:              idgen.NewPrefixed("spawn"),
		ParentID:        parentID,
		ChildID:         childID,
		Depth:           childLineage.Depth,
		InheritedPolicy: childPolicy,
		Authorized:      true,
		CreatedAt:       now,
	}

	if err := g.store.CreateSpawnRecord(ctx, childLineage, &updatedParent, event); err != nil {
		return nil, nil, err
	}
	return childLineage, event, nil
}

// derivePolicy computes the child's SpawnPolicy: a restricted copy of the
// parent's (max spawn depth decremented by one), with RuleOverrides
// recomputed from L_parent — the tighter of the ceiling the parent itself
// inherited at its own spawn (parentPolicy.RuleOverrides) and whatever
// live SpendRule limit the parent has since materialized — scaled by
// req's ratios and then clamped to req.RuleOverrides, never loosened. The
// inherited ceiling holds even for a kind the parent never materialized a
// SpendRule for, so a grandchild can't escape it just because its parent
// skipped creating a matching rule. VendorAllowlist is intersected with
// the parent's.
func (g *Governor) derivePolicy(ctx context.Context, parentID string, parentPolicy store.SpawnPolicy, req Request) (store.SpawnPolicy, error) {
	child := parentPolicy
	child.MaxSpawnDepth = parentPolicy.MaxSpawnDepth - 1

	spendRatio := req.MaxSpendRatio
	if spendRatio <= 0 {
		spendRatio = 1.0
	}
	txRatio := req.MaxTransactionRatio
	if txRatio <= 0 {
		txRatio = 1.0
	}

	parentLimits, err := g.parentRuleLimits(ctx, parentID)
	if err != nil {
		return store.SpawnPolicy{}, err
	}

	ceilings := make(map[string]int64, len(parentPolicy.RuleOverrides)+len(parentLimits))
	for kind, v := range parentPolicy.RuleOverrides {
		ceilings[kind] = v
	}
	for kind, v := range parentLimits {
		if existing, ok := ceilings[kind]; !ok || v < existing {
			ceilings[kind] = v
		}
	}

	overrides := make(map[string]int64, len(ceilings))
	for kind, ceiling := range ceilings {
		ratio := spendRatio
		if kind == string(store.RulePerTransactionLimit) {
			ratio = txRatio
		}
		overrides[kind] = EffectiveLimit(ceiling, ratio, req.RuleOverrides[kind])
	}
	// Any override naming a kind covered by neither the parent's inherited
	// ceiling nor its live rules still applies, clamped to itself — there
	// is nothing tighter to inherit from.
	for kind, v := range req.RuleOverrides {
		if _, ok := overrides[kind]; !ok {
			overrides[kind] = v
		}
	}
	child.RuleOverrides = overrides
	child.VendorAllowlist = intersectAllowlist(parentPolicy.VendorAllowlist, req.VendorAllowlist)
	return child, nil
}

func (g *Governor) parentRuleLimits(ctx context.Context, parentID string) (map[string]int64, error) {
	wallets, err := g.store.ListWalletsByAgent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	limits := make(map[string]int64)
	for _, w := range wallets {
		rules, err := g.store.ListActiveRulesByWallet(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			limit, ok := limitParam(r)
			if !ok {
				continue
			}
			if existing, found := limits[string(r.Kind)]; !found || limit < existing {
				limits[string(r.Kind)] = limit
			}
		}
	}
	return limits, nil
}

func limitParam(r *store.SpendRule) (int64, bool) {
	v, ok := r.Params[limitParamKey(r.Kind)]
	if !ok {
		return 0, false
	}
	return numericParam(v)
}

// limitParamKey names the params field holding kind's numeric cap —
// "threshold" for approval gates, "limit" for every spend-limiting kind.
func limitParamKey(kind store.RuleKind) string {
	if kind == store.RuleApprovalThreshold {
		return "threshold"
	}
	return "limit"
}

func numericParam(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// EnforceRuleOverride rejects a candidate rule's params if they would set a
// numeric limit looser than policy.RuleOverrides already fixed for kind —
// the spawn monotonicity invariant (a descendant's effective limit can
// never exceed its ancestor's) applied at rule-creation time rather than
// only when the policy envelope itself is derived at Spawn. Kinds with no
// override on file, or params carrying no numeric limit for kind, pass
// through untouched.
func EnforceRuleOverride(policy store.SpawnPolicy, kind store.RuleKind, params map[string]any) error {
	ceiling, ok := policy.RuleOverrides[string(kind)]
	if !ok {
		return nil
	}
	v, ok := params[limitParamKey(kind)]
	if !ok {
		return nil
	}
	requested, ok := numericParam(v)
	if !ok {
		return nil
	}
	if requested > ceiling {
		return errno.ErrSpawnPolicyViolation
	}
	return nil
}

// EffectiveLimit scales parentLimit by ratio and, if override is nonzero,
// clamps the result to the tighter of the two — overrides cannot loosen
// the ratio-derived limit.
func EffectiveLimit(parentLimit int64, ratio float64, override int64) int64 {
	scaled := int64(float64(parentLimit)*ratio + 0.5)
	if override <= 0 {
		return scaled
	}
	if override < scaled {
		return override
	}
	return scaled
}

func intersectAllowlist(parent, requested []string) []string {
	if len(parent) == 0 {
		return append([]string{}, requested...)
	}
	if len(requested) == 0 {
		return append([]string{}, parent...)
	}
	allowed := make(map[string]bool, len(parent))
	for _, v := range parent {
		allowed[v] = true
	}
	var out []string
	for _, v := range requested {
		if allowed[v] {
			out = append(out, v)
		}
	}
	return out
}

// FreezeLineage marks agentID and, if cascade is true, every descendant in
// its lineage tree Frozen — a DFS over childrenIds. Unlike
// TerminateLineage, lineage.Status is left Active so a later operator
// unfreeze can restore it.
func (g *Governor) FreezeLineage(ctx context.Context, agentID string, cascade bool, now time.Time) ([]string, error) {
	var frozen []string
	var walk func(id string) error
	walk = func(id string) error {
		agent, err := g.store.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		agent.Status = store.AgentFrozen
		agent.UpdatedAt = now
		if err := g.store.UpdateAgent(ctx, agent); err != nil {
			return err
		}
		frozen = append(frozen, id)
		if !cascade {
			return nil
		}
		l, err := g.store.GetLineage(ctx, id)
		if err == errno.ErrLineageNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		for _, childID := range l.ChildrenIDs {
			if err := walk(childID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(agentID); err != nil {
		return nil, err
	}
	return frozen, nil
}

// TerminateLineage marks agentID, and — if cascade is true — every
// descendant in its lineage tree, Terminated. A DFS over childrenIds.
// Irreversible.
func (g *Governor) TerminateLineage(ctx context.Context, agentID string, cascade bool, now time.Time) ([]string, error) {
	var terminated []string
	var walk func(id string) error
	walk = func(id string) error {
		l, err := g.store.GetLineage(ctx, id)
		if err != nil {
			return err
		}
		l.Status = store.LineageTerminated
		if err := g.store.UpdateLineage(ctx, l); err != nil {
			return err
		}
		agent, err := g.store.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		agent.Status = store.AgentTerminated
		agent.UpdatedAt = now
		if err := g.store.UpdateAgent(ctx, agent); err != nil {
			return err
		}
		terminated = append(terminated, id)
		if !cascade {
			return nil
		}
		for _, childID := range l.ChildrenIDs {
			if err := walk(childID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(agentID); err != nil {
		return nil, err
	}
	return terminated, nil
}
