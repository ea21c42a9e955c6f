package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateWallet(_ context.Context, w *store.Wallet) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet: %w", err)
		}
		return tx.Bucket(bucketWallets).Put([]byte(w.ID), data)
	})
}

func (s *Store) GetWallet(_ context.Context, id string) (*store.Wallet, error) {
	var w store.Wallet
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWallets).Get([]byte(id))
		if data == nil {
			return errno.ErrWalletNotFound
		}
		return codec.Unmarshal(data, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) UpdateWallet(_ context.Context, w *store.Wallet) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWallets)
		if b.Get([]byte(w.ID)) == nil {
			return errno.ErrWalletNotFound
		}
		data, err := codec.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet: %w", err)
		}
		return b.Put([]byte(w.ID), data)
	})
}

func (s *Store) ListWalletsByAgent(_ context.Context, agentID string) ([]*store.Wallet, error) {
	var out []*store.Wallet
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWallets).ForEach(func(_, v []byte) error {
			var w store.Wallet
			if err := codec.Unmarshal(v, &w); err != nil {
				return fmt.Errorf("failed to unmarshal wallet: %w", err)
			}
			if w.AgentID == agentID {
				out = append(out, &w)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListAllWallets(_ context.Context) ([]*store.Wallet, error) {
	var out []*store.Wallet
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWallets).ForEach(func(_, v []byte) error {
			var w store.Wallet
			if err := codec.Unmarshal(v, &w); err != nil {
				return fmt.Errorf("failed to unmarshal wallet: %w", err)
			}
			out = append(out, &w)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteDebit atomically decrements the wallet balance and marks the
// transaction Completed inside a single BoltDB transaction, the commit
// pairing that must commit atomically.
func (s *Store) CompleteDebit(_ context.Context, walletID string, amount int64, t *store.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		wb := tx.Bucket(bucketWallets)
		data := wb.Get([]byte(walletID))
		if data == nil {
			return errno.ErrWalletNotFound
		}
		var w store.Wallet
		if err := codec.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Balance < amount {
			return errno.ErrInsufficientFunds
		}
		w.Balance -= amount
		wdata, err := codec.Marshal(&w)
		if err != nil {
			return err
		}
		if err := wb.Put([]byte(walletID), wdata); err != nil {
			return err
		}
		tdata, err := codec.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTransactions).Put([]byte(t.ID), tdata)
	})
}
