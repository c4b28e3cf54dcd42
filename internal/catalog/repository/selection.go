package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

const maxSelectionRetries = 5

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SelectionUpdate receives the stored ids of a session (found is false when
// the session has no selection yet) and returns the ids to store.
type SelectionUpdate func(ids []string, found bool) ([]string, error)

// LoadSelection returns the stored selection of a client session.
func (s *Store) LoadSelection(ctx context.Context, sessionID string) ([]string, bool, error) {
	return s.readSelection(ctx, s.client, s.selectionKey(sessionID))
}

// UpdateSelection applies fn to the stored selection under optimistic
// locking, so concurrent requests from one session do not lose toggles.
func (s *Store) UpdateSelection(ctx context.Context, sessionID string, fn SelectionUpdate) ([]string, error) {
	key := s.selectionKey(sessionID)
	var result []string

	txf := func(tx *redis.Tx) error {
		ids, found, err := s.readSelection(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(ids, found)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal selection: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, selectionTTL)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < maxSelectionRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, domain.ErrConflict
}

func (s *Store) readSelection(ctx context.Context, c stringGetter, key string) ([]string, bool, error) {
	data, err := c.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get selection: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true, nil
}
