package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateGroup(_ context.Context, g *store.AgentGroup) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := codec.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to marshal agent group: %w", err)
		}
		return tx.Bucket(bucketGroups).Put([]byte(g.ID), data)
	})
}

func (s *Store) GetGroup(_ context.Context, id string) (*store.AgentGroup, error) {
	var g store.AgentGroup
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketGroups).Get([]byte(id))
		if data == nil {
			return errno.ErrGroupNotFound
		}
		return codec.Unmarshal(data, &g)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListGroupsByOwner(_ context.Context, ownerID string) ([]*store.AgentGroup, error) {
	var out []*store.AgentGroup
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGroups).ForEach(func(_, v []byte) error {
			var g store.AgentGroup
			if err := codec.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("failed to unmarshal agent group: %w", err)
			}
			if g.OwnerID == ownerID {
				out = append(out, &g)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
