package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

const (
	labelFieldSetting = "labelFieldName"

	// DefaultLabelFieldName is the caption shown for the label field until
	// an admin renames it.
	DefaultLabelFieldName = "项目属性"
)

func (s *Store) GetLabelFieldName(ctx context.Context) (string, error) {
	name, err := s.client.HGet(ctx, settingsKey, labelFieldSetting).Result()
	if err == redis.Nil || (err == nil && name == "") {
		return DefaultLabelFieldName, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get label field name: %w", err)
	}
	return name, nil
}

func (s *Store) SetLabelFieldName(ctx context.Context, name string) error {
	if err := s.client.HSet(ctx, settingsKey, labelFieldSetting, name).Err(); err != nil {
		return fmt.Errorf("failed to set label field name: %w", err)
	}
	s.Publish(ctx, domain.Event{Type: domain.EventSettingsChanged})
	return nil
}
