package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/repository"
	"github.com/tztw/projectmap/internal/catalog/selection"
)

// ProjectItem is a project as one viewer sees it in the list and on the map.
type ProjectItem struct {
	domain.Project
	CanEdit  bool    `json:"canEdit"`
	Opacity  float64 `json:"opacity"`
	Selected bool    `json:"selected"`
}

type CityView struct {
	selection.CityState
	Projects []ProjectItem `json:"projects"`
}

// ProjectsView is everything the sidebar and the map need for one request.
type ProjectsView struct {
	Groups         []CityView              `json:"groups"`
	Options        filter.Options          `json:"options"`
	Types          []domain.ProjectTypeDef `json:"types"`
	LabelFieldName string                  `json:"labelFieldName"`
	Total          int                     `json:"total"`
	SelectedCount  int                     `json:"selectedCount"`
	AllSelected    bool                    `json:"allSelected"`
}

// visible loads the projects viewer may see, in display order.
func (s *Service) visible(ctx context.Context, viewer *domain.User) ([]domain.Project, error) {
	all, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	return access.VisibleTo(all, viewer), nil
}

// ListProjects filters the visible projects by c, groups them by city and
// annotates each with the session's selection.
func (s *Service) ListProjects(ctx context.Context, viewer *domain.User, sessionID string, c filter.Criteria) (*ProjectsView, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	types, err := s.store.GetProjectTypes(ctx)
	if err != nil {
		return nil, err
	}
	labelField, err := s.store.GetLabelFieldName(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := s.currentSelection(ctx, sessionID, visible)
	if err != nil {
		return nil, err
	}

	filtered := filter.Apply(visible, types, c)
	groups := selection.GroupByCity(filtered)
	states := sel.States(groups)

	view := &ProjectsView{
		Groups:         make([]CityView, 0, len(groups)),
		Options:        filter.OptionsFor(visible),
		Types:          types,
		LabelFieldName: labelField,
		Total:          len(filtered),
		AllSelected:    sel.AllSelected(filtered),
	}
	for i, g := range groups {
		cv := CityView{CityState: states[i], Projects: make([]ProjectItem, 0, len(g.Projects))}
		for _, p := range g.Projects {
			cv.Projects = append(cv.Projects, ProjectItem{
				Project:  access.ForViewer(p, viewer),
				CanEdit:  access.CanEdit(p, viewer),
				Opacity:  access.Opacity(p, viewer),
				Selected: sel.Has(p.ID),
			})
		}
		view.Groups = append(view.Groups, cv)
	}
	view.SelectedCount = len(sel.Selected(visible))
	return view, nil
}

// GetProject returns one project with internal fields only when viewer may
// see them. Projects hidden from viewer are reported as not found.
func (s *Service) GetProject(ctx context.Context, viewer *domain.User, id string) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Visible(*p, viewer) {
		return nil, domain.ErrNotFound
	}
	out := access.ForViewer(*p, viewer)
	return &out, nil
}

// ProjectInput holds the editable fields of a project.
type ProjectInput struct {
	Name                string              `json:"name"`
	City                string              `json:"city"`
	Type                string              `json:"type"`
	Label               string              `json:"label"`
	Lat                 float64             `json:"lat"`
	Lng                 float64             `json:"lng"`
	IsHidden            bool                `json:"isHidden"`
	PublicDescription   string              `json:"publicDescription"`
	Images              []domain.ImageItem  `json:"images"`
	InternalDescription string              `json:"internalDescription"`
	InternalImages      []domain.ImageItem  `json:"internalImages"`
	Attachments         []domain.Attachment `json:"attachments"`
}

func (in ProjectInput) apply(p *domain.Project) {
	p.Name = strings.TrimSpace(in.Name)
	p.City = strings.TrimSpace(in.City)
	p.Type = in.Type
	p.Label = strings.TrimSpace(in.Label)
	p.Lat = in.Lat
	p.Lng = in.Lng
	p.IsHidden = in.IsHidden
	p.PublicDescription = in.PublicDescription
	p.Images = in.Images
	p.InternalDescription = in.InternalDescription
	p.InternalImages = in.InternalImages
	p.Attachments = in.Attachments
	if p.Images == nil {
		p.Images = []domain.ImageItem{}
	}
}

// CreateProject adds a project owned by viewer.
func (s *Service) CreateProject(ctx context.Context, viewer *domain.User, in ProjectInput) (*domain.Project, error) {
	if !access.HasWriteAccess(viewer) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.City) == "" {
		return nil, fmt.Errorf("city is required: %w", domain.ErrInvalidInput)
	}

	p := domain.Project{
		ID:            uuid.New().String(),
		CreatedBy:     viewer.ID,
		CreatedByName: viewer.Name,
	}
	in.apply(&p)
	if p.Name == "" {
		p.Name = domain.DefaultProjectName
	}
	if p.Type == "" {
		p.Type = domain.DefaultProjectType
	}
	if p.Label == "" {
		p.Label = domain.DefaultProjectLabel
	}

	if err := s.store.SaveProject(context.WithoutCancel(ctx), p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddCity creates a city by adding a placeholder project at the given
// location.
func (s *Service) AddCity(ctx context.Context, viewer *domain.User, city string, lat, lng float64) (*domain.Project, error) {
	return s.CreateProject(ctx, viewer, ProjectInput{City: city, Lat: lat, Lng: lng})
}

// UpdateProject replaces the editable fields of a project. Identity and
// authorship are kept.
func (s *Service) UpdateProject(ctx context.Context, viewer *domain.User, id string, in ProjectInput) (*domain.Project, error) {
	p, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if p.Name == "" || p.City == "" {
		return nil, fmt.Errorf("name and city are required: %w", domain.ErrInvalidInput)
	}
	if err := s.store.SaveProject(context.WithoutCancel(ctx), *p); err != nil {
		return nil, err
	}
	return p, nil
}

// editable loads a project and checks that viewer may change it.
func (s *Service) editable(ctx context.Context, viewer *domain.User, id string) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(*p, viewer) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, viewer *domain.User, id string) error {
	if _, err := s.editable(ctx, viewer, id); err != nil {
		return err
	}
	return s.store.DeleteProject(context.WithoutCancel(ctx), id)
}

// DeleteCity removes every project of a city. Admin only.
func (s *Service) DeleteCity(ctx context.Context, viewer *domain.User, city string) ([]string, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	ids, err := s.store.DeleteProjectsByCity(context.WithoutCancel(ctx), city)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	return ids, nil
}

// RenameLabel relabels every project carrying oldLabel.
func (s *Service) RenameLabel(ctx context.Context, viewer *domain.User, oldLabel, newLabel string) (int, error) {
	if !access.HasWriteAccess(viewer) {
		return 0, domain.ErrForbidden
	}
	newLabel = strings.TrimSpace(newLabel)
	if newLabel == "" {
		return 0, fmt.Errorf("new label is required: %w", domain.ErrInvalidInput)
	}
	if newLabel == oldLabel {
		return 0, nil
	}
	return s.store.RenameProjectLabel(context.WithoutCancel(ctx), oldLabel, newLabel)
}

// SetLabelFieldName renames the caption of the label field. Admin only.
func (s *Service) SetLabelFieldName(ctx context.Context, viewer *domain.User, name string) error {
	if !access.IsAdmin(viewer) {
		return domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = repository.DefaultLabelFieldName
	}
	return s.store.SetLabelFieldName(ctx, name)
}

// Reorder stores a new display order. Ids listed first take the head of the
// list in the given order; projects not listed keep their relative order
// after them. Unknown ids are ignored. Admin only.
func (s *Service) Reorder(ctx context.Context, viewer *domain.User, ids []string) error {
	if !access.IsAdmin(viewer) {
		return domain.ErrForbidden
	}
	all, err := s.store.GetProjects(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]domain.Project, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	ordered := make([]domain.Project, 0, len(all))
	placed := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		ordered = append(ordered, p)
	}
	for _, p := range all {
		if !placed[p.ID] {
			ordered = append(ordered, p)
		}
	}
	return s.store.SaveProjectsList(context.WithoutCancel(ctx), ordered)
}

func (s *Service) ListTypes(ctx context.Context) ([]domain.ProjectTypeDef, error) {
	return s.store.GetProjectTypes(ctx)
}

const typeKeyAttempts = 3

// AddType defines a new project type under a generated key.
func (s *Service) AddType(ctx context.Context, viewer *domain.User, label, color string) (*domain.ProjectTypeDef, error) {
	if !access.HasWriteAccess(viewer) {
		return nil, domain.ErrForbidden
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("type label is required: %w", domain.ErrInvalidInput)
	}
	if color == "" {
		color = "#3498db"
	}

	for i := 0; i < typeKeyAttempts; i++ {
		def := domain.ProjectTypeDef{
			Key:          "Type_" + uuid.New().String(),
			Label:        label,
			Color:        color,
			BgColorClass: "bg-gray-100 text-gray-800",
		}
		err := s.store.AddProjectType(ctx, def)
		if err == nil {
			return &def, nil
		}
		if !errors.Is(err, domain.ErrTypeKeyTaken) {
			return nil, err
		}
	}
	return nil, domain.ErrTypeKeyTaken
}

// ClearProjects removes every project. Admin only.
func (s *Service) ClearProjects(ctx context.Context, viewer *domain.User) error {
	if !access.IsAdmin(viewer) {
		return domain.ErrForbidden
	}
	return s.store.ClearProjects(ctx)
}
