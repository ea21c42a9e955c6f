package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) PutDeadManConfig(_ context.Context, c *store.DeadManSwitchConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal dead-man config: %w", err)
		}
		return tx.Bucket(bucketDeadManCfgs).Put([]byte(c.AgentID), data)
	})
}

func (s *Store) GetDeadManConfig(_ context.Context, agentID string) (*store.DeadManSwitchConfig, error) {
	var c store.DeadManSwitchConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDeadManCfgs).Get([]byte(agentID))
		if data == nil {
			return errno.ErrDeadManConfigMissing
		}
		return codec.Unmarshal(data, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateDeadManEvent appends e under a sequence key namespaced by agent so
// ListDeadManEvents can range-scan one agent's history in insertion order.
func (s *Store) CreateDeadManEvent(_ context.Context, e *store.DeadManSwitchEvent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeadManEvts)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := codec.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal dead-man event: %w", err)
		}
		return b.Put(append([]byte(e.AgentID+"\x00"), itob(seq)...), data)
	})
}

func (s *Store) ListDeadManEvents(_ context.Context, agentID string) ([]*store.DeadManSwitchEvent, error) {
	prefix := []byte(agentID + "\x00")
	var out []*store.DeadManSwitchEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDeadManEvts).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var e store.DeadManSwitchEvent
			if err := codec.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal dead-man event: %w", err)
			}
			out = append(out, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
