// Package access decides what a viewer may see and change. A nil viewer is an
// anonymous guest; a viewer with an unrecognized role gets no access.
package access

import (
	"github.com/tztw/projectmap/internal/catalog/domain"
)

// HiddenOpacity is the marker opacity of hidden projects shown to signed-in
// viewers.
const HiddenOpacity = 0.5

func IsAdmin(viewer *domain.User) bool {
	return viewer != nil && viewer.Role == domain.RoleAdmin
}

func IsEditor(viewer *domain.User) bool {
	return viewer != nil && viewer.Role == domain.RoleEditor
}

// Authenticated reports whether viewer holds a recognized role.
func Authenticated(viewer *domain.User) bool {
	return IsAdmin(viewer) || IsEditor(viewer)
}

// HasWriteAccess gates store-wide actions available to any signed-in user,
// such as adding a project type or renaming a label.
func HasWriteAccess(viewer *domain.User) bool {
	return Authenticated(viewer)
}

// Visible reports whether p appears on the map and in the list for viewer.
func Visible(p domain.Project, viewer *domain.User) bool {
	return !p.IsHidden || Authenticated(viewer)
}

// Opacity is the marker emphasis for a visible project.
func Opacity(p domain.Project, viewer *domain.User) float64 {
	if p.IsHidden && Authenticated(viewer) {
		return HiddenOpacity
	}
	return 1
}

func CanEdit(p domain.Project, viewer *domain.User) bool {
	switch {
	case viewer == nil:
		return false
	case viewer.Role == domain.RoleAdmin:
		return true
	case viewer.Role == domain.RoleEditor:
		return p.CreatedBy != "" && p.CreatedBy == viewer.ID
	default:
		return false
	}
}

// CanSeeInternal uses the same rule as CanEdit.
func CanSeeInternal(p domain.Project, viewer *domain.User) bool {
	return CanEdit(p, viewer)
}

// VisibleTo keeps the projects viewer may see, in order.
func VisibleTo(projects []domain.Project, viewer *domain.User) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if Visible(p, viewer) {
			out = append(out, p)
		}
	}
	return out
}

// Exportable narrows projects to what viewer may put in a document export:
// everything for the admin, own projects for an editor, nothing otherwise.
func Exportable(projects []domain.Project, viewer *domain.User) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	switch {
	case IsAdmin(viewer):
		out = append(out, projects...)
	case IsEditor(viewer):
		for _, p := range projects {
			if p.CreatedBy == viewer.ID {
				out = append(out, p)
			}
		}
	}
	return out
}

// StripInternal returns a copy of p without internal fields, for viewers
// that fail CanSeeInternal. Authorship is kept.
func StripInternal(p domain.Project) domain.Project {
	c := p.Clone()
	c.InternalDescription = ""
	c.InternalImages = nil
	c.Attachments = nil
	return c
}

// ForViewer returns p as viewer is allowed to read it. Guests get neither
// internal fields nor authorship.
func ForViewer(p domain.Project, viewer *domain.User) domain.Project {
	if CanSeeInternal(p, viewer) {
		return p.Clone()
	}
	c := StripInternal(p)
	if !Authenticated(viewer) {
		c.CreatedBy = ""
		c.CreatedByName = ""
	}
	return c
}

// ValidPermission reports whether level is a known export audience.
func ValidPermission(level string) bool {
	return level == domain.PermissionAdmin || level == domain.PermissionGuest
}

// Redact produces a guest-safe snapshot: hidden projects are dropped and the
// remaining records carry no internal or authorship fields.
func Redact(projects []domain.Project) []domain.PublicProject {
	out := make([]domain.PublicProject, 0, len(projects))
	for _, p := range projects {
		if p.IsHidden {
			continue
		}
		out = append(out, p.Public())
	}
	return out
}
