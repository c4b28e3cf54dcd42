package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// CreateSession issues a login token for userID.
func (s *Store) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	sess := &domain.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(sess.Token), data, s.sessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// SessionUser resolves a token to its account. Unknown tokens and tokens of
// deleted accounts yield domain.ErrNotFound.
func (s *Store) SessionUser(ctx context.Context, token string) (*domain.User, error) {
	sess, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, sess.UserID)
}

// Logout ends a session. Ending an unknown session is not an error.
func (s *Store) Logout(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
