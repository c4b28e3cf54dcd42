package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// GetProjects returns all projects in display order. Order entries whose
// record is gone are skipped.
func (s *Store) GetProjects(ctx context.Context) ([]domain.Project, error) {
	ids, err := s.client.LRange(ctx, projectOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	projects := make([]domain.Project, 0, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.projectKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project %s: %w", ids[i], err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// GetProject retrieves one project by id
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	data, err := s.client.Get(ctx, s.projectKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project data: %w", err)
	}
	return &p, nil
}

// SaveProject upserts p. A new id is appended to the display order; an
// existing one keeps its position. The last write wins.
func (s *Store) SaveProject(ctx context.Context, p domain.Project) error {
	created, err := s.upsert(ctx, []domain.Project{p})
	if err != nil {
		return err
	}
	s.Publish(ctx, domain.Event{Type: domain.EventProjectSaved, ProjectID: p.ID, City: p.City, Count: created})
	return nil
}

// SaveProjects upserts every record in one transaction and reports how many
// were new. Used by import.
func (s *Store) SaveProjects(ctx context.Context, projects []domain.Project) (int, error) {
	created, err := s.upsert(ctx, projects)
	if err != nil {
		return 0, err
	}
	s.Publish(ctx, domain.Event{Type: domain.EventProjectsImported, Count: len(projects)})
	return created, nil
}

func (s *Store) upsert(ctx context.Context, projects []domain.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	added := make([]*redis.IntCmd, len(projects))
	for i, p := range projects {
		if p.ID == "" {
			return 0, fmt.Errorf("project id is required: %w", domain.ErrInvalidInput)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal project data: %w", err)
		}
		added[i] = pipe.SAdd(ctx, projectIDSetKey, p.ID)
		pipe.Set(ctx, s.projectKey(p.ID), data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to save projects: %w", err)
	}

	var newIDs []any
	for i, cmd := range added {
		if cmd.Val() == 1 {
			newIDs = append(newIDs, projects[i].ID)
		}
	}
	if len(newIDs) > 0 {
		if err := s.client.RPush(ctx, projectOrderKey, newIDs...).Err(); err != nil {
			return 0, fmt.Errorf("failed to append project order: %w", err)
		}
	}
	return len(newIDs), nil
}

// SaveProjectsList replaces the stored list with projects, in the given
// order. Records not in the list are removed.
func (s *Store) SaveProjectsList(ctx context.Context, projects []domain.Project) error {
	seen := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			return fmt.Errorf("project id is required: %w", domain.ErrInvalidInput)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate project id %s: %w", p.ID, domain.ErrInvalidInput)
		}
		seen[p.ID] = struct{}{}
	}

	existing, err := s.client.SMembers(ctx, projectIDSetKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list project ids: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, projectOrderKey, projectIDSetKey)
	for _, id := range existing {
		if _, keep := seen[id]; !keep {
			pipe.Del(ctx, s.projectKey(id))
		}
	}
	for _, p := range projects {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal project data: %w", err)
		}
		pipe.Set(ctx, s.projectKey(p.ID), data, 0)
		pipe.RPush(ctx, projectOrderKey, p.ID)
		pipe.SAdd(ctx, projectIDSetKey, p.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save project list: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventProjectsReordered, Count: len(projects)})
	return nil
}

// DeleteProject removes a project. Unknown ids yield domain.ErrNotFound.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	removed := pipe.SRem(ctx, projectIDSetKey, id)
	pipe.Del(ctx, s.projectKey(id))
	pipe.LRem(ctx, projectOrderKey, 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if removed.Val() == 0 {
		return domain.ErrNotFound
	}

	s.Publish(ctx, domain.Event{Type: domain.EventProjectDeleted, ProjectID: id})
	return nil
}

// DeleteProjectsByCity removes every project in city and returns their ids.
func (s *Store) DeleteProjectsByCity(ctx context.Context, city string) ([]string, error) {
	projects, err := s.GetProjects(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	pipe := s.client.TxPipeline()
	for _, p := range projects {
		if p.City != city {
			continue
		}
		ids = append(ids, p.ID)
		pipe.SRem(ctx, projectIDSetKey, p.ID)
		pipe.Del(ctx, s.projectKey(p.ID))
		pipe.LRem(ctx, projectOrderKey, 0, p.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete city projects: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventCityDeleted, City: city, Count: len(ids)})
	return ids, nil
}

// RenameProjectLabel sets label newLabel on every project labelled oldLabel
// and returns how many records changed.
func (s *Store) RenameProjectLabel(ctx context.Context, oldLabel, newLabel string) (int, error) {
	projects, err := s.GetProjects(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	pipe := s.client.TxPipeline()
	for _, p := range projects {
		if p.Label != oldLabel {
			continue
		}
		p.Label = newLabel
		data, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal project data: %w", err)
		}
		pipe.Set(ctx, s.projectKey(p.ID), data, 0)
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to rename label: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventLabelRenamed, Count: changed})
	return changed, nil
}

// ClearProjects removes every project.
func (s *Store) ClearProjects(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, projectIDSetKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list project ids: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.projectKey(id))
	}
	pipe.Del(ctx, projectOrderKey, projectIDSetKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}

	s.Publish(ctx, domain.Event{Type: domain.EventProjectsCleared, Count: len(ids)})
	return nil
}

// CountProjects returns the number of stored projects.
func (s *Store) CountProjects(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, projectIDSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}
