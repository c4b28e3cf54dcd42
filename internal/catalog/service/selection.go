package service

import (
	"context"

	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/selection"
)

// SelectionView summarizes a session's selection after a change.
type SelectionView struct {
	IDs    []string              `json:"ids"`
	Count  int                   `json:"count"`
	Cities []selection.CityState `json:"cities"`
}

// currentSelection returns the session's selection, creating it with every
// visible project on first use and dropping ids of deleted projects.
func (s *Service) currentSelection(ctx context.Context, sessionID string, visible []domain.Project) (*selection.Set, error) {
	return s.updateSelection(ctx, sessionID, visible, func(*selection.Set) {})
}

func (s *Service) updateSelection(ctx context.Context, sessionID string, visible []domain.Project, mutate func(*selection.Set)) (*selection.Set, error) {
	if sessionID == "" {
		set := selection.NewAll(visible)
		mutate(set)
		return set, nil
	}

	count, err := s.store.CountProjects(ctx)
	if err != nil {
		return nil, err
	}
	var valid []string
	if int(count) != len(visible) {
		all, err := s.store.GetProjects(ctx)
		if err != nil {
			return nil, err
		}
		valid = projectIDs(all)
	} else {
		valid = projectIDs(visible)
	}

	var set *selection.Set
	_, err = s.store.UpdateSelection(ctx, sessionID, func(ids []string, found bool) ([]string, error) {
		if found {
			set = selection.New(ids...)
			set.Prune(valid)
		} else {
			set = selection.NewAll(visible)
		}
		mutate(set)
		return set.IDs(), nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func projectIDs(projects []domain.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}

func (s *Service) selectionView(set *selection.Set, visible []domain.Project, types []domain.ProjectTypeDef, c filter.Criteria) *SelectionView {
	filtered := filter.Apply(visible, types, c)
	return &SelectionView{
		IDs:    set.IDs(),
		Count:  len(set.Selected(visible)),
		Cities: set.States(selection.GroupByCity(filtered)),
	}
}

// changeSelection loads what viewer sees, applies mutate to the session's
// selection and reports the result against the filtered view c.
func (s *Service) changeSelection(ctx context.Context, viewer *domain.User, sessionID string, c filter.Criteria, mutate func(set *selection.Set, filtered []domain.Project)) (*SelectionView, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	types, err := s.store.GetProjectTypes(ctx)
	if err != nil {
		return nil, err
	}
	filtered := filter.Apply(visible, types, c)

	set, err := s.updateSelection(ctx, sessionID, visible, func(set *selection.Set) {
		mutate(set, filtered)
	})
	if err != nil {
		return nil, err
	}
	return s.selectionView(set, visible, types, c), nil
}

// GetSelection reports the session's selection against the filtered view c.
func (s *Service) GetSelection(ctx context.Context, viewer *domain.User, sessionID string, c filter.Criteria) (*SelectionView, error) {
	return s.changeSelection(ctx, viewer, sessionID, c, func(*selection.Set, []domain.Project) {})
}

// ToggleProject flips one project in or out of the selection.
func (s *Service) ToggleProject(ctx context.Context, viewer *domain.User, sessionID, id string) (*SelectionView, error) {
	return s.changeSelection(ctx, viewer, sessionID, filter.Criteria{}, func(set *selection.Set, visible []domain.Project) {
		for _, p := range visible {
			if p.ID == id {
				set.Toggle(id)
				return
			}
		}
	})
}

// ToggleCity selects every filtered project of city, or deselects them all
// when they already are.
func (s *Service) ToggleCity(ctx context.Context, viewer *domain.User, sessionID, city string, c filter.Criteria) (*SelectionView, error) {
	return s.changeSelection(ctx, viewer, sessionID, c, func(set *selection.Set, filtered []domain.Project) {
		var inCity []domain.Project
		for _, p := range filtered {
			if p.City == city {
				inCity = append(inCity, p)
			}
		}
		set.ToggleCity(inCity)
	})
}

// ToggleVisible applies the same all-or-nothing rule to the whole filtered
// list.
func (s *Service) ToggleVisible(ctx context.Context, viewer *domain.User, sessionID string, c filter.Criteria) (*SelectionView, error) {
	return s.changeSelection(ctx, viewer, sessionID, c, func(set *selection.Set, filtered []domain.Project) {
		set.ToggleAllVisible(filtered)
	})
}

// ResetSelection selects every visible project again.
func (s *Service) ResetSelection(ctx context.Context, viewer *domain.User, sessionID string) (*SelectionView, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	types, err := s.store.GetProjectTypes(ctx)
	if err != nil {
		return nil, err
	}
	set := selection.NewAll(visible)
	if sessionID != "" {
		if _, err := s.store.UpdateSelection(ctx, sessionID, func([]string, bool) ([]string, error) {
			return set.IDs(), nil
		}); err != nil {
			return nil, err
		}
	}
	return s.selectionView(set, visible, types, filter.Criteria{}), nil
}

// selectedProjects returns the visible projects in the session's selection,
// narrowed by c when given.
func (s *Service) selectedProjects(ctx context.Context, viewer *domain.User, sessionID string, c *filter.Criteria) ([]domain.Project, []domain.ProjectTypeDef, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	types, err := s.store.GetProjectTypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	set, err := s.currentSelection(ctx, sessionID, visible)
	if err != nil {
		return nil, nil, err
	}
	chosen := set.Selected(visible)
	if c != nil {
		chosen = filter.Apply(chosen, types, *c)
	}
	return chosen, types, nil
}
