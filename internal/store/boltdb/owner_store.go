package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateOwner(_ context.Context, o *store.Owner) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal owner: %w", err)
		}
		if err := tx.Bucket(bucketOwners).Put([]byte(o.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketOwnersByKey).Put([]byte(o.APIKey), []byte(o.ID))
	})
}

func (s *Store) GetOwner(_ context.Context, id string) (*store.Owner, error) {
	var o store.Owner
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketOwners).Get([]byte(id))
		if data == nil {
			return errno.ErrOwnerNotFound
		}
		return codec.Unmarshal(data, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) GetOwnerByAPIKey(_ context.Context, apiKey string) (*store.Owner, error) {
	var o store.Owner
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketOwnersByKey).Get([]byte(apiKey))
		if id == nil {
			return errno.ErrOwnerNotFound
		}
		data := tx.Bucket(bucketOwners).Get(id)
		if data == nil {
			return errno.ErrOwnerNotFound
		}
		return codec.Unmarshal(data, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) RotateOwnerAPIKey(_ context.Context, ownerID, newKey string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOwners)
		data := b.Get([]byte(ownerID))
		if data == nil {
			return errno.ErrOwnerNotFound
		}
		var o store.Owner
		if err := codec.Unmarshal(data, &o); err != nil {
			return err
		}
		oldKey := o.APIKey
		o.APIKey = newKey
		encoded, err := codec.Marshal(&o)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(ownerID), encoded); err != nil {
			return err
		}
		byKey := tx.Bucket(bucketOwnersByKey)
		if err := byKey.Delete([]byte(oldKey)); err != nil {
			return err
		}
		return byKey.Put([]byte(newKey), []byte(ownerID))
	})
}
