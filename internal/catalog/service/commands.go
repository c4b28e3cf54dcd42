package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// Command kinds posted by map and list interactions.
const (
	CommandUpdateField      = "updateField"
	CommandChangeType       = "changeType"
	CommandToggleVisibility = "toggleVisibility"
	CommandMoveMarker       = "moveMarker"
	CommandOpenDetail       = "openDetail"
)

// Fields an updateField command may set.
const (
	FieldName                = "name"
	FieldCity                = "city"
	FieldLabel               = "label"
	FieldPublicDescription   = "publicDescription"
	FieldInternalDescription = "internalDescription"
)

// Command is one typed interaction with a project.
type Command struct {
	Kind      string   `json:"kind"`
	ProjectID string   `json:"projectId"`
	Field     string   `json:"field,omitempty"`
	Value     string   `json:"value,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// Dispatch executes cmd for viewer and returns the project as viewer sees it
// afterwards.
func (s *Service) Dispatch(ctx context.Context, viewer *domain.User, cmd Command) (*domain.Project, error) {
	if cmd.ProjectID == "" {
		return nil, fmt.Errorf("projectId is required: %w", domain.ErrInvalidInput)
	}
	if cmd.Kind == CommandOpenDetail {
		return s.GetProject(ctx, viewer, cmd.ProjectID)
	}

	p, err := s.editable(ctx, viewer, cmd.ProjectID)
	if err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case CommandUpdateField:
		if err := setField(p, cmd.Field, cmd.Value); err != nil {
			return nil, err
		}
	case CommandChangeType:
		ok, err := s.store.TypeExists(ctx, cmd.Value)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("unknown project type %q: %w", cmd.Value, domain.ErrInvalidInput)
		}
		p.Type = cmd.Value
	case CommandToggleVisibility:
		p.IsHidden = !p.IsHidden
	case CommandMoveMarker:
		if cmd.Lat == nil || cmd.Lng == nil {
			return nil, fmt.Errorf("lat and lng are required: %w", domain.ErrInvalidInput)
		}
		if *cmd.Lat < -90 || *cmd.Lat > 90 || *cmd.Lng < -180 || *cmd.Lng > 180 {
			return nil, fmt.Errorf("coordinates out of range: %w", domain.ErrInvalidInput)
		}
		p.Lat, p.Lng = *cmd.Lat, *cmd.Lng
	default:
		return nil, fmt.Errorf("unknown command %q: %w", cmd.Kind, domain.ErrInvalidInput)
	}

	if err := s.store.SaveProject(context.WithoutCancel(ctx), *p); err != nil {
		return nil, err
	}
	return p, nil
}

func setField(p *domain.Project, field, value string) error {
	switch field {
	case FieldName, FieldCity:
		v := strings.TrimSpace(value)
		if v == "" {
			return fmt.Errorf("%s cannot be empty: %w", field, domain.ErrInvalidInput)
		}
		if field == FieldName {
			p.Name = v
		} else {
			p.City = v
		}
	case FieldLabel:
		p.Label = strings.TrimSpace(value)
	case FieldPublicDescription:
		p.PublicDescription = value
	case FieldInternalDescription:
		p.InternalDescription = value
	default:
		return fmt.Errorf("field %q cannot be updated: %w", field, domain.ErrInvalidInput)
	}
	return nil
}
