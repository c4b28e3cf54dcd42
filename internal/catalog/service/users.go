package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/selection"
)

// ListUsers returns every account, passwords included. Admin only.
func (s *Service) ListUsers(ctx context.Context, viewer *domain.User) ([]domain.User, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	return s.store.GetUsers(ctx)
}

// NewUser is the admin panel form for adding an account.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AddUser creates an editor account. Admin only.
func (s *Service) AddUser(ctx context.Context, viewer *domain.User, in NewUser) (*domain.User, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	u := domain.User{
		ID:       "u_" + uuid.New().String(),
		Username: username,
		Password: in.Password,
		Role:     domain.RoleEditor,
		Name:     name,
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes an editor. The admin account cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, viewer *domain.User, id string) error {
	if !access.IsAdmin(viewer) {
		return domain.ErrForbidden
	}
	if id == domain.AdminID {
		return fmt.Errorf("the admin account cannot be deleted: %w", domain.ErrForbidden)
	}
	return s.store.DeleteUser(ctx, id)
}

// CreatorCount is one entry of the overview's creator menu.
type CreatorCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Overview is the admin panel's data view.
type Overview struct {
	Total    int                   `json:"total"`
	Creators []CreatorCount        `json:"creators"`
	Groups   []selection.CityGroup `json:"groups"`
}

// Overview groups all projects by city, optionally narrowed to one creator.
// Admin only.
func (s *Service) Overview(ctx context.Context, viewer *domain.User, creator string) (*Overview, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	all, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, p := range all {
		counts[p.CreatedBy]++
	}
	creators := make([]CreatorCount, 0, len(users))
	for _, u := range users {
		creators = append(creators, CreatorCount{ID: u.ID, Name: u.Name, Count: counts[u.ID]})
	}

	shown := filter.Apply(all, nil, filter.Criteria{Creator: creator})
	return &Overview{
		Total:    len(shown),
		Creators: creators,
		Groups:   selection.GroupByCity(shown),
	}, nil
}
