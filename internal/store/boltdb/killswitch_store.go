package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateKillSwitch(_ context.Context, k *store.KillSwitch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(k)
		if err != nil {
			return fmt.Errorf("failed to marshal kill switch: %w", err)
		}
		return tx.Bucket(bucketKillSwitches).Put([]byte(k.ID), data)
	})
}

func (s *Store) GetKillSwitch(_ context.Context, id string) (*store.KillSwitch, error) {
	var k store.KillSwitch
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketKillSwitches).Get([]byte(id))
		if data == nil {
			return errno.ErrKillSwitchNotFound
		}
		return codec.Unmarshal(data, &k)
	})
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *Store) DeleteKillSwitch(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKillSwitches)
		if b.Get([]byte(id)) == nil {
			return errno.ErrKillSwitchNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) ListKillSwitchesByWallet(_ context.Context, walletID string) ([]*store.KillSwitch, error) {
	var out []*store.KillSwitch
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKillSwitches).ForEach(func(_, v []byte) error {
			var k store.KillSwitch
			if err := codec.Unmarshal(v, &k); err != nil {
				return fmt.Errorf("failed to unmarshal kill switch: %w", err)
			}
			if k.WalletID == walletID {
				out = append(out, &k)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LatchKillSwitch atomically marks k triggered and the wallet KillSwitched,
// the commit pairing that must be atomic.
func (s *Store) LatchKillSwitch(_ context.Context, k *store.KillSwitch, walletID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		wb := tx.Bucket(bucketWallets)
		wdata := wb.Get([]byte(walletID))
		if wdata == nil {
			return errno.ErrWalletNotFound
		}
		var w store.Wallet
		if err := codec.Unmarshal(wdata, &w); err != nil {
			return err
		}
		w.Status = store.WalletKillSwitched
		wenc, err := codec.Marshal(&w)
		if err != nil {
			return err
		}
		if err := wb.Put([]byte(walletID), wenc); err != nil {
			return err
		}
		kenc, err := codec.Marshal(k)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketKillSwitches).Put([]byte(k.ID), kenc)
	})
}

// ResetKillSwitch atomically clears k's triggered state and restores the
// wallet to Active.
func (s *Store) ResetKillSwitch(_ context.Context, k *store.KillSwitch, walletID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		wb := tx.Bucket(bucketWallets)
		wdata := wb.Get([]byte(walletID))
		if wdata == nil {
			return errno.ErrWalletNotFound
		}
		var w store.Wallet
		if err := codec.Unmarshal(wdata, &w); err != nil {
			return err
		}
		w.Status = store.WalletActive
		wenc, err := codec.Marshal(&w)
		if err != nil {
			return err
		}
		if err := wb.Put([]byte(walletID), wenc); err != nil {
			return err
		}
		kenc, err := codec.Marshal(k)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketKillSwitches).Put([]byte(k.ID), kenc)
	})
}
