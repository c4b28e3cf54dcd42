package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/logging"
)

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	u, err := s.store.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.store.CreateSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Info("user logged in", "user_id", u.ID)
	return sess, u, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Logout(ctx, token)
}

// Viewer resolves a session token. An empty token is an anonymous guest
// (nil, nil); an expired or unknown token is domain.ErrAuth.
func (s *Service) Viewer(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	u, err := s.store.SessionUser(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuth
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
