package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateAgent(_ context.Context, a *store.Agent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal agent: %w", err)
		}
		if err := tx.Bucket(bucketAgents).Put([]byte(a.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketAgentsByKey).Put([]byte(a.APIKey), []byte(a.ID))
	})
}

func (s *Store) GetAgent(_ context.Context, id string) (*store.Agent, error) {
	var a store.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAgents).Get([]byte(id))
		if data == nil {
			return errno.ErrAgentNotFound
		}
		return codec.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAgentByAPIKey(_ context.Context, apiKey string) (*store.Agent, error) {
	var a store.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketAgentsByKey).Get([]byte(apiKey))
		if id == nil {
			return errno.ErrAgentNotFound
		}
		data := tx.Bucket(bucketAgents).Get(id)
		if data == nil {
			return errno.ErrAgentNotFound
		}
		return codec.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpdateAgent(_ context.Context, a *store.Agent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgents)
		if b.Get([]byte(a.ID)) == nil {
			return errno.ErrAgentNotFound
		}
		data, err := codec.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal agent: %w", err)
		}
		if err := b.Put([]byte(a.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketAgentsByKey).Put([]byte(a.APIKey), []byte(a.ID))
	})
}

func (s *Store) ListAgentsByOwner(_ context.Context, ownerID string) ([]*store.Agent, error) {
	var out []*store.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).ForEach(func(_, v []byte) error {
			var a store.Agent
			if err := codec.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("failed to unmarshal agent: %w", err)
			}
			if a.OwnerID == ownerID {
				out = append(out, &a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
