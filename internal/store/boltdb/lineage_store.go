package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/agentwallet/agentwallet/internal/pkg/codec"
	"github.com/agentwallet/agentwallet/internal/pkg/errno"
	"github.com/agentwallet/agentwallet/internal/store"
)

func (s *Store) CreateLineage(_ context.Context, l *store.AgentLineage) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLineages)
		if b.Get([]byte(l.AgentID)) != nil {
			return errno.ErrLineageExists
		}
		data, err := codec.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal lineage: %w", err)
		}
		return b.Put([]byte(l.AgentID), data)
	})
}

func (s *Store) GetLineage(_ context.Context, agentID string) (*store.AgentLineage, error) {
	var l store.AgentLineage
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLineages).Get([]byte(agentID))
		if data == nil {
			return errno.ErrLineageNotFound
		}
		return codec.Unmarshal(data, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) UpdateLineage(_ context.Context, l *store.AgentLineage) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLineages)
		if b.Get([]byte(l.AgentID)) == nil {
			return errno.ErrLineageNotFound
		}
		data, err := codec.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal lineage: %w", err)
		}
		return b.Put([]byte(l.AgentID), data)
	})
}

func (s *Store) CreateSpawnEvent(_ context.Context, e *store.SpawnEvent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSpawnEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := codec.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal spawn event: %w", err)
		}
		return b.Put(itob(seq), data)
	})
}

// CreateSpawnRecord commits child lineage creation, the parent lineage
// update, and the spawn event append inside a single BoltDB transaction.
func (s *Store) CreateSpawnRecord(_ context.Context, child *store.AgentLineage, parent *store.AgentLineage, event *store.SpawnEvent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		lb := tx.Bucket(bucketLineages)
		if lb.Get([]byte(child.AgentID)) != nil {
			return errno.ErrLineageExists
		}
		childData, err := codec.Marshal(child)
		if err != nil {
			return fmt.Errorf("failed to marshal child lineage: %w", err)
		}
		if err := lb.Put([]byte(child.AgentID), childData); err != nil {
			return err
		}
		parentData, err := codec.Marshal(parent)
		if err != nil {
			return fmt.Errorf("failed to marshal parent lineage: %w", err)
		}
		if err := lb.Put([]byte(parent.AgentID), parentData); err != nil {
			return err
		}
		eb := tx.Bucket(bucketSpawnEvents)
		seq, err := eb.NextSequence()
		if err != nil {
			return err
		}
		eventData, err := codec.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal spawn event: %w", err)
		}
		return eb.Put(itob(seq), eventData)
	})
}
