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

func (s *Store) CreateTransaction(_ context.Context, t *store.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		return tx.Bucket(bucketTransactions).Put([]byte(t.ID), data)
	})
}

func (s *Store) GetTransaction(_ context.Context, id string) (*store.Transaction, error) {
	var t store.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTransactions).Get([]byte(id))
		if data == nil {
			return errno.ErrTransactionNotFound
		}
		return codec.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *store.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		if b.Get([]byte(t.ID)) == nil {
			return errno.ErrTransactionNotFound
		}
		data, err := codec.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		return b.Put([]byte(t.ID), data)
	})
}

func (s *Store) ListTransactionsByWallet(_ context.Context, walletID string) ([]*store.Transaction, error) {
	var out []*store.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTransactions).ForEach(func(_, v []byte) error {
			var t store.Transaction
			if err := codec.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if t.WalletID == walletID {
				out = append(out, &t)
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

func (s *Store) ListPendingApproval(_ context.Context, walletID string) ([]*store.Transaction, error) {
	var out []*store.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTransactions).ForEach(func(_, v []byte) error {
			var t store.Transaction
			if err := codec.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if t.WalletID == walletID && t.Status == store.TxAwaitingApproval {
				out = append(out, &t)
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
