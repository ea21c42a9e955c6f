package boltdb

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/store"
)

// AppendAudit writes e under a monotonically increasing sequence key so the
// audit bucket's natural key order is also its chronological order.
func (s *Store) AppendAudit(_ context.Context, e *store.AuditLog) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now().UTC()
		}
		data, err := codec.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal audit log entry: %w", err)
		}
		return b.Put(itob(seq), data)
	})
}

func (s *Store) ListAuditByAgent(_ context.Context, agentID string, limit int) ([]*store.AuditLog, error) {
	var out []*store.AuditLog
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(out) < limit); k, v = c.Prev() {
			var e store.AuditLog
			if err := codec.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal audit log entry: %w", err)
			}
			if e.AgentID == agentID {
				out = append(out, &e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListAuditAll(_ context.Context, limit int) ([]*store.AuditLog, error) {
	var out []*store.AuditLog
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(out) < limit); k, v = c.Prev() {
			var e store.AuditLog
			if err := codec.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal audit log entry: %w", err)
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
