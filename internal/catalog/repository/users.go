package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// GetUsers returns all accounts in creation order.
func (s *Store) GetUsers(ctx context.Context) ([]domain.User, error) {
	ids, err := s.client.LRange(ctx, userOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	users := make([]domain.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	values, err := s.client.HMGet(ctx, userHashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user %s: %w", ids[i], err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	data, err := s.client.HGet(ctx, userHashKey, id).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var u domain.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	return &u, nil
}

// AddUser stores u. Usernames are unique.
func (s *Store) AddUser(ctx context.Context, u domain.User) error {
	if u.ID == "" || u.Username == "" {
		return fmt.Errorf("user id and username are required: %w", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user data: %w", err)
	}

	ok, err := s.client.HSetNX(ctx, usernameIndexKey, u.Username, u.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}
	if !ok {
		return domain.ErrUsernameTaken
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, userHashKey, u.ID, data)
	pipe.RPush(ctx, userOrderKey, u.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventUsersChanged})
	return nil
}

// DeleteUser removes an account. Its projects are kept.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, userHashKey, id)
	pipe.HDel(ctx, usernameIndexKey, u.Username)
	pipe.LRem(ctx, userOrderKey, 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventUsersChanged})
	return nil
}

// Login checks plaintext credentials and returns the matching account.
func (s *Store) Login(ctx context.Context, username, password string) (*domain.User, error) {
	id, err := s.client.HGet(ctx, usernameIndexKey, username).Result()
	if err == redis.Nil {
		return nil, domain.ErrAuth
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	u, err := s.GetUser(ctx, id)
	if err == domain.ErrNotFound {
		return nil, domain.ErrAuth
	}
	if err != nil {
		return nil, err
	}
	if u.Password != password {
		return nil, domain.ErrAuth
	}
	return u, nil
}
