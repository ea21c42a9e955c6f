// Package inmemory is a process-local Store backend, grounded on
// hivemind/service/agents/store/inmemory/agent_store.go's map-plus-
// sync.RWMutex shape. Useful for tests and for the dead-man switch's
// accepted degradation window after a restart.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

// Store is an in-memory, mutex-guarded implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	owners        map[string]*store.Owner
	ownersByKey   map[string]string // apiKey -> ownerID
	agents        map[string]*store.Agent
	agentsByKey   map[string]string // apiKey -> agentID
	wallets       map[string]*store.Wallet
	rules         map[string]*store.SpendRule
	transactions  map[string]*store.Transaction
	killSwitches  map[string]*store.KillSwitch
	lineages      map[string]*store.AgentLineage
	spawnEvents   []*store.SpawnEvent
	groups        map[string]*store.AgentGroup
	policies      map[string]*store.CrossAgentPolicy
	crossTxs      map[string]*store.CrossAgentTransaction
	deadmanCfgs   map[string]*store.DeadManSwitchConfig
	deadmanEvents map[string][]*store.DeadManSwitchEvent
	audit         []*store.AuditLog
	auditSeq      int64
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		owners:        make(map[string]*store.Owner),
		ownersByKey:   make(map[string]string),
		agents:        make(map[string]*store.Agent),
		agentsByKey:   make(map[string]string),
		wallets:       make(map[string]*store.Wallet),
		rules:         make(map[string]*store.SpendRule),
		transactions:  make(map[string]*store.Transaction),
		killSwitches:  make(map[string]*store.KillSwitch),
		lineages:      make(map[string]*store.AgentLineage),
		groups:        make(map[string]*store.AgentGroup),
		policies:      make(map[string]*store.CrossAgentPolicy),
		crossTxs:      make(map[string]*store.CrossAgentTransaction),
		deadmanCfgs:   make(map[string]*store.DeadManSwitchConfig),
		deadmanEvents: make(map[string][]*store.DeadManSwitchEvent),
	}
}

func (s *Store) Close() error { return nil }

// --- Owners ---

func (s *Store) CreateOwner(_ context.Context, o *store.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.owners[o.ID] = &cp
	s.ownersByKey[o.APIKey] = o.ID
	return nil
}

func (s *Store) GetOwner(_ context.Context, id string) (*store.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, errno.ErrOwnerNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) GetOwnerByAPIKey(_ context.Context, apiKey string) (*store.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ownersByKey[apiKey]
	if !ok {
		return nil, errno.ErrOwnerNotFound
	}
	cp := *s.owners[id]
	return &cp, nil
}

func (s *Store) RotateOwnerAPIKey(_ context.Context, ownerID, newKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[ownerID]
	if !ok {
		return errno.ErrOwnerNotFound
	}
	delete(s.ownersByKey, o.APIKey)
	o.APIKey = newKey
	s.ownersByKey[newKey] = ownerID
	return nil
}

// --- Agents ---

func (s *Store) CreateAgent(_ context.Context, a *store.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.agents[a.ID] = &cp
	s.agentsByKey[a.APIKey] = a.ID
	return nil
}

func (s *Store) GetAgent(_ context.Context, id string) (*store.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, errno.ErrAgentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAgentByAPIKey(_ context.Context, apiKey string) (*store.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.agentsByKey[apiKey]
	if !ok {
		return nil, errno.ErrAgentNotFound
	}
	cp := *s.agents[id]
	return &cp, nil
}

func (s *Store) UpdateAgent(_ context.Context, a *store.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[a.ID]; !ok {
		return errno.ErrAgentNotFound
	}
	cp := *a
	s.agents[a.ID] = &cp
	s.agentsByKey[a.APIKey] = a.ID
	return nil
}

func (s *Store) ListAgentsByOwner(_ context.Context, ownerID string) ([]*store.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Agent
	for _, a := range s.agents {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortAgents(out)
	return out, nil
}

func sortAgents(a []*store.Agent) {
	sort.Slice(a, func(i, j int) bool { return a[i].ID < a[j].ID })
}

// --- Wallets ---

func (s *Store) CreateWallet(_ context.Context, w *store.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.wallets[w.ID] = &cp
	return nil
}

func (s *Store) GetWallet(_ context.Context, id string) (*store.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, errno.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) UpdateWallet(_ context.Context, w *store.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[w.ID]; !ok {
		return errno.ErrWalletNotFound
	}
	cp := *w
	s.wallets[w.ID] = &cp
	return nil
}

func (s *Store) ListWalletsByAgent(_ context.Context, agentID string) ([]*store.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Wallet
	for _, w := range s.wallets {
		if w.AgentID == agentID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListAllWallets(_ context.Context) ([]*store.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Spend rules ---

func (s *Store) CreateRule(_ context.Context, r *store.SpendRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *Store) GetRule(_ context.Context, id string) (*store.SpendRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, errno.ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) UpdateRule(_ context.Context, r *store.SpendRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return errno.ErrRuleNotFound
	}
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return errno.ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *Store) ListActiveRulesByWallet(_ context.Context, walletID string) ([]*store.SpendRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.SpendRule
	for _, r := range s.rules {
		if r.WalletID == walletID && r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Transactions ---

func (s *Store) CreateTransaction(_ context.Context, t *store.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.transactions[t.ID] = &cp
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, errno.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *store.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return errno.ErrTransactionNotFound
	}
	cp := *t
	s.transactions[t.ID] = &cp
	return nil
}

func (s *Store) ListTransactionsByWallet(_ context.Context, walletID string) ([]*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Transaction
	for _, t := range s.transactions {
		if t.WalletID == walletID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListPendingApproval(_ context.Context, walletID string) ([]*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Transaction
	for _, t := range s.transactions {
		if t.WalletID == walletID && t.Status == store.TxAwaitingApproval {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CompleteDebit(_ context.Context, walletID string, amount int64, t *store.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return errno.ErrWalletNotFound
	}
	if w.Balance < amount {
		return errno.ErrInsufficientFunds
	}
	w.Balance -= amount
	cp := *t
	s.transactions[t.ID] = &cp
	return nil
}

// --- Kill switches ---

func (s *Store) CreateKillSwitch(_ context.Context, k *store.KillSwitch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *k
	s.killSwitches[k.ID] = &cp
	return nil
}

func (s *Store) GetKillSwitch(_ context.Context, id string) (*store.KillSwitch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.killSwitches[id]
	if !ok {
		return nil, errno.ErrKillSwitchNotFound
	}
	cp := *k
	return &cp, nil
}

func (s *Store) DeleteKillSwitch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.killSwitches[id]; !ok {
		return errno.ErrKillSwitchNotFound
	}
	delete(s.killSwitches, id)
	return nil
}

func (s *Store) ListKillSwitchesByWallet(_ context.Context, walletID string) ([]*store.KillSwitch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.KillSwitch
	for _, k := range s.killSwitches {
		if k.WalletID == walletID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LatchKillSwitch(_ context.Context, k *store.KillSwitch, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return errno.ErrWalletNotFound
	}
	w.Status = store.WalletKillSwitched
	cp := *k
	s.killSwitches[k.ID] = &cp
	return nil
}

func (s *Store) ResetKillSwitch(_ context.Context, k *store.KillSwitch, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return errno.ErrWalletNotFound
	}
	w.Status = store.WalletActive
	cp := *k
	s.killSwitches[k.ID] = &cp
	return nil
}

// --- Lineage ---

func (s *Store) CreateLineage(_ context.Context, l *store.AgentLineage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lineages[l.AgentID]; ok {
		return errno.ErrLineageExists
	}
	cp := *l
	s.lineages[l.AgentID] = &cp
	return nil
}

func (s *Store) GetLineage(_ context.Context, agentID string) (*store.AgentLineage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lineages[agentID]
	if !ok {
		return nil, errno.ErrLineageNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) UpdateLineage(_ context.Context, l *store.AgentLineage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lineages[l.AgentID]; !ok {
		return errno.ErrLineageNotFound
	}
	cp := *l
	s.lineages[l.AgentID] = &cp
	return nil
}

func (s *Store) CreateSpawnEvent(_ context.Context, e *store.SpawnEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.spawnEvents = append(s.spawnEvents, &cp)
	return nil
}

func (s *Store) CreateSpawnRecord(_ context.Context, child *store.AgentLineage, parent *store.AgentLineage, event *store.SpawnEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lineages[child.AgentID]; ok {
		return errno.ErrLineageExists
	}
	childCp := *child
	s.lineages[child.AgentID] = &childCp
	parentCp := *parent
	s.lineages[parent.AgentID] = &parentCp
	eventCp := *event
	s.spawnEvents = append(s.spawnEvents, &eventCp)
	return nil
}

// --- Agent groups ---

func (s *Store) CreateGroup(_ context.Context, g *store.AgentGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*store.AgentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, errno.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) ListGroupsByOwner(_ context.Context, ownerID string) ([]*store.AgentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.AgentGroup
	for _, g := range s.groups {
		if g.OwnerID == ownerID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Cross-agent policies and transactions ---

func (s *Store) CreatePolicy(_ context.Context, p *store.CrossAgentPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.policies[p.ID] = &cp
	return nil
}

func (s *Store) GetPolicy(_ context.Context, id string) (*store.CrossAgentPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, errno.ErrPolicyNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPoliciesByOwner(_ context.Context, ownerID string) ([]*store.CrossAgentPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.CrossAgentPolicy
	for _, p := range s.policies {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListPoliciesBySource(_ context.Context, sourceAgentID string) ([]*store.CrossAgentPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.CrossAgentPolicy
	for _, p := range s.policies {
		if p.SourceAgentID == sourceAgentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCrossTx(_ context.Context, x *store.CrossAgentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *x
	s.crossTxs[x.ID] = &cp
	return nil
}

func (s *Store) GetCrossTx(_ context.Context, id string) (*store.CrossAgentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	x, ok := s.crossTxs[id]
	if !ok {
		return nil, errno.ErrCrossTxNotFound
	}
	cp := *x
	return &cp, nil
}

func (s *Store) UpdateCrossTx(_ context.Context, x *store.CrossAgentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.crossTxs[x.ID]; !ok {
		return errno.ErrCrossTxNotFound
	}
	cp := *x
	s.crossTxs[x.ID] = &cp
	return nil
}

func (s *Store) ListCrossTxBySource(_ context.Context, sourceAgentID string) ([]*store.CrossAgentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.CrossAgentTransaction
	for _, x := range s.crossTxs {
		if x.SourceAgentID == sourceAgentID {
			cp := *x
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListCrossTxByTarget(_ context.Context, targetAgentID string) ([]*store.CrossAgentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.CrossAgentTransaction
	for _, x := range s.crossTxs {
		if x.TargetAgentID == targetAgentID {
			cp := *x
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Dead-man switch ---

func (s *Store) PutDeadManConfig(_ context.Context, c *store.DeadManSwitchConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.deadmanCfgs[c.AgentID] = &cp
	return nil
}

func (s *Store) GetDeadManConfig(_ context.Context, agentID string) (*store.DeadManSwitchConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.deadmanCfgs[agentID]
	if !ok {
		return nil, errno.ErrDeadManConfigMissing
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CreateDeadManEvent(_ context.Context, e *store.DeadManSwitchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.deadmanEvents[e.AgentID] = append(s.deadmanEvents[e.AgentID], &cp)
	return nil
}

func (s *Store) ListDeadManEvents(_ context.Context, agentID string) ([]*store.DeadManSwitchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.deadmanEvents[agentID]
	out := make([]*store.DeadManSwitchEvent, len(events))
	for i, e := range events {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

// --- Audit ---

func (s *Store) AppendAudit(_ context.Context, e *store.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditSeq++
	if e.ID == "" {
		e.ID = formatSeq(s.auditSeq)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	cp := *e
	s.audit = append(s.audit, &cp)
	return nil
}

func (s *Store) ListAuditByAgent(_ context.Context, agentID string, limit int) ([]*store.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.AuditLog
	for i := len(s.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.audit[i].AgentID == agentID {
			cp := *s.audit[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListAuditAll(_ context.Context, limit int) ([]*store.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.AuditLog
	for i := len(s.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *s.audit[i]
		out = append(out, &cp)
	}
	return out, nil
}

func formatSeq(n int64) string {
	const digits = "0123456789"
	if n == 0 {
		return "audit-0"
	}
	buf := make([]byte, 0, 20)
	for n > 0 {
		buf = append(buf, digits[n%10])
		n /= 10
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return "audit-" + string(buf)
}

var _ store.Store = (*Store)(nil)
