package boltdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateRule(_ context.Context, r *store.SpendRule) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal rule: %w", err)
		}
		return tx.Bucket(bucketRules).Put([]byte(r.ID), data)
	})
}

func (s *Store) GetRule(_ context.Context, id string) (*store.SpendRule, error) {
	var r store.SpendRule
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRules).Get([]byte(id))
		if data == nil {
			return errno.ErrRuleNotFound
		}
		return codec.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateRule(_ context.Context, r *store.SpendRule) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRules)
		if b.Get([]byte(r.ID)) == nil {
			return errno.ErrRuleNotFound
		}
		data, err := codec.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal rule: %w", err)
		}
		return b.Put([]byte(r.ID), data)
	})
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRules)
		if b.Get([]byte(id)) == nil {
			return errno.ErrRuleNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) ListActiveRulesByWallet(_ context.Context, walletID string) ([]*store.SpendRule, error) {
	var out []*store.SpendRule
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRules).ForEach(func(_, v []byte) error {
			var r store.SpendRule
			if err := codec.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal rule: %w", err)
			}
			if r.WalletID == walletID && r.Active {
				out = append(out, &r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
