// Package boltdb is the durable Store backend, grounded on
// hivemind/service/agents/store/boltdb/db.go and agent_store.go: one bucket
// per entity kind, JSON-encoded values (here via internal/pkg/codec's sonic
// wrapper, a thin Marshal/Unmarshal shim), CRUD through db.Update/db.View
// transactions. API-key lookups (GetOwnerByAPIKey, GetAgentByAPIKey) go
// through the owners_by_key/agents_by_key index buckets; the other lookups
// that aren't by primary key (ListXByY) scan a bucket with ForEach.
package boltdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
)

var (
	bucketOwners       = []byte("owners")
	bucketOwnersByKey  = []byte("owners_by_key")
	bucketAgents       = []byte("agents")
	bucketAgentsByKey  = []byte("agents_by_key")
	bucketWallets      = []byte("wallets")
	bucketRules        = []byte("rules")
	bucketTransactions = []byte("transactions")
	bucketKillSwitches = []byte("kill_switches")
	bucketLineages     = []byte("lineages")
	bucketSpawnEvents  = []byte("spawn_events")
	bucketGroups       = []byte("agent_groups")
	bucketPolicies     = []byte("cross_agent_policies")
	bucketCrossTxs     = []byte("cross_agent_transactions")
	bucketDeadManCfgs  = []byte("dead_man_configs")
	bucketDeadManEvts  = []byte("dead_man_events")
	bucketAudit        = []byte("audit_log")

	allBuckets = [][]byte{
		bucketOwners, bucketOwnersByKey,
		bucketAgents, bucketAgentsByKey,
		bucketWallets, bucketRules, bucketTransactions,
		bucketKillSwitches, bucketLineages, bucketSpawnEvents,
		bucketGroups, bucketPolicies, bucketCrossTxs,
		bucketDeadManCfgs, bucketDeadManEvts, bucketAudit,
	}
)

// Store is a BoltDB-backed implementation of store.Store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the BoltDB file at path and ensures
// every bucket AgentWallet needs exists.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying BoltDB instance.
func (s *Store) Close() error {
	return s.db.Close()
}

// Bolt returns the underlying BoltDB instance, for callers (migrations,
// operator tooling) that need raw access.
func (s *Store) Bolt() *bolt.DB {
	return s.db
}
