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

func (s *Store) CreatePolicy(_ context.Context, p *store.CrossAgentPolicy) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal cross-agent policy: %w", err)
		}
		return tx.Bucket(bucketPolicies).Put([]byte(p.ID), data)
	})
}

func (s *Store) GetPolicy(_ context.Context, id string) (*store.CrossAgentPolicy, error) {
	var p store.CrossAgentPolicy
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPolicies).Get([]byte(id))
		if data == nil {
			return errno.ErrPolicyNotFound
		}
		return codec.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPoliciesByOwner(_ context.Context, ownerID string) ([]*store.CrossAgentPolicy, error) {
	var out []*store.CrossAgentPolicy
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPolicies).ForEach(func(_, v []byte) error {
			var p store.CrossAgentPolicy
			if err := codec.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("failed to unmarshal cross-agent policy: %w", err)
			}
			if p.OwnerID == ownerID {
				out = append(out, &p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListPoliciesBySource(_ context.Context, sourceAgentID string) ([]*store.CrossAgentPolicy, error) {
	var out []*store.CrossAgentPolicy
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPolicies).ForEach(func(_, v []byte) error {
			var p store.CrossAgentPolicy
			if err := codec.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("failed to unmarshal cross-agent policy: %w", err)
			}
			if p.SourceAgentID == sourceAgentID {
				out = append(out, &p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateCrossTx(_ context.Context, x *store.CrossAgentTransaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(x)
		if err != nil {
			return fmt.Errorf("failed to marshal cross-agent transaction: %w", err)
		}
		return tx.Bucket(bucketCrossTxs).Put([]byte(x.ID), data)
	})
}

func (s *Store) GetCrossTx(_ context.Context, id string) (*store.CrossAgentTransaction, error) {
	var x store.CrossAgentTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCrossTxs).Get([]byte(id))
		if data == nil {
			return errno.ErrCrossTxNotFound
		}
		return codec.Unmarshal(data, &x)
	})
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (s *Store) UpdateCrossTx(_ context.Context, x *store.CrossAgentTransaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCrossTxs)
		if b.Get([]byte(x.ID)) == nil {
			return errno.ErrCrossTxNotFound
		}
		data, err := codec.Marshal(x)
		if err != nil {
			return fmt.Errorf("failed to marshal cross-agent transaction: %w", err)
		}
		return b.Put([]byte(x.ID), data)
	})
}

func (s *Store) ListCrossTxBySource(_ context.Context, sourceAgentID string) ([]*store.CrossAgentTransaction, error) {
	var out []*store.CrossAgentTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCrossTxs).ForEach(func(_, v []byte) error {
			var x store.CrossAgentTransaction
			if err := codec.Unmarshal(v, &x); err != nil {
				return fmt.Errorf("failed to unmarshal cross-agent transaction: %w", err)
			}
			if x.SourceAgentID == sourceAgentID {
				out = append(out, &x)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListCrossTxByTarget(_ context.Context, targetAgentID string) ([]*store.CrossAgentTransaction, error) {
	var out []*store.CrossAgentTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCrossTxs).ForEach(func(_, v []byte) error {
			var x store.CrossAgentTransaction
			if err := codec.Unmarshal(v, &x); err != nil {
				return fmt.Errorf("failed to unmarshal cross-agent transaction: %w", err)
			}
			if x.TargetAgentID == targetAgentID {
				out = append(out, &x)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
