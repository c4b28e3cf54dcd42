package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// GetProjectTypes returns the type definitions in creation order.
func (s *Store) GetProjectTypes(ctx context.Context) ([]domain.ProjectTypeDef, error) {
	keys, err := s.client.LRange(ctx, typeOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list type keys: %w", err)
	}
	types := make([]domain.ProjectTypeDef, 0, len(keys))
	if len(keys) == 0 {
		return types, nil
	}

	values, err := s.client.HMGet(ctx, typeHashKey, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get project types: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var t domain.ProjectTypeDef
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project type %s: %w", keys[i], err)
		}
		types = append(types, t)
	}
	return types, nil
}

// AddProjectType appends def. The key is reserved atomically, so a second
// definition with the same key fails with domain.ErrTypeKeyTaken.
func (s *Store) AddProjectType(ctx context.Context, def domain.ProjectTypeDef) error {
	if def.Key == "" {
		return fmt.Errorf("type key is required: %w", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal project type: %w", err)
	}

	ok, err := s.client.HSetNX(ctx, typeHashKey, def.Key, data).Result()
	if err != nil {
		return fmt.Errorf("failed to add project type: %w", err)
	}
	if !ok {
		return domain.ErrTypeKeyTaken
	}
	if err := s.client.RPush(ctx, typeOrderKey, def.Key).Err(); err != nil {
		return fmt.Errorf("failed to append type order: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventTypeAdded})
	return nil
}

// TypeExists reports whether key is already defined.
func (s *Store) TypeExists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.HExists(ctx, typeHashKey, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check project type: %w", err)
	}
	return ok, nil
}
