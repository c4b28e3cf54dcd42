package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/audit"
	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/export"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/logging"
)

// Artifact is a produced export, ready to be sent to the client.
type Artifact struct {
	Kind         string
	Filename     string
	ContentType  string
	Body         []byte
	ProjectCount int
	ArchiveKey   string
}

// ExportRequest selects what goes into a document or standalone export:
// the session's selection, optionally narrowed by Criteria.
type ExportRequest struct {
	Title      string           `json:"title"`
	Permission string           `json:"permission"`
	Criteria   *filter.Criteria `json:"criteria,omitempty"`
}

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// ExportJSON serializes every project verbatim. Signed-in users only.
func (s *Service) ExportJSON(ctx context.Context, viewer *domain.User) (*Artifact, error) {
	if !access.Authenticated(viewer) {
		return nil, domain.ErrForbidden
	}
	all, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	snap := export.NewSnapshot(all, nil, s.now())

	var buf bytes.Buffer
	if err := export.JSON(&buf, snap.Projects); err != nil {
		return nil, err
	}
	a := &Artifact{
		Kind:         export.KindJSON,
		Filename:     export.JSONFilename(snap.TakenAt),
		ContentType:  contentTypeJSON,
		Body:         buf.Bytes(),
		ProjectCount: len(snap.Projects),
	}
	s.finish(ctx, viewer, a, viewerLevel(viewer), "")
	return a, nil
}

// ExportDocument renders the printable document for the selection. Editors
// get their own projects only and guests get the empty-selection warning.
func (s *Service) ExportDocument(ctx context.Context, viewer *domain.User, sessionID string, req ExportRequest) (*Artifact, error) {
	chosen, types, err := s.selectedProjects(ctx, viewer, sessionID, req.Criteria)
	if err != nil {
		return nil, err
	}
	snap := export.NewSnapshot(access.Exportable(chosen, viewer), types, s.now())

	var buf bytes.Buffer
	err = export.Document(&buf, export.DocumentInput{
		Title:    req.Title,
		Projects: snap.Projects,
		Types:    snap.Types,
		Viewer:   viewer,
		At:       snap.TakenAt,
	})
	if err != nil {
		return nil, err
	}
	a := &Artifact{
		Kind:         export.KindDocument,
		Filename:     export.DocumentFilename(req.Title),
		ContentType:  contentTypeHTML,
		Body:         buf.Bytes(),
		ProjectCount: len(snap.Projects),
	}
	s.finish(ctx, viewer, a, viewerLevel(viewer), req.Title)
	return a, nil
}

// ExportStandalone builds the offline HTML snapshot of the selection for the
// declared audience req.Permission. Admin only.
func (s *Service) ExportStandalone(ctx context.Context, viewer *domain.User, sessionID string, req ExportRequest) (*Artifact, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	if !access.ValidPermission(req.Permission) {
		return nil, fmt.Errorf("permission must be admin or guest: %w", domain.ErrInvalidInput)
	}
	chosen, types, err := s.selectedProjects(ctx, viewer, sessionID, req.Criteria)
	if err != nil {
		return nil, err
	}
	snap := export.NewSnapshot(chosen, types, s.now())

	var buf bytes.Buffer
	err = export.Standalone(&buf, export.StandaloneInput{
		Title:      req.Title,
		Permission: req.Permission,
		Projects:   snap.Projects,
		Types:      snap.Types,
		At:         snap.TakenAt,
	})
	if err != nil {
		return nil, err
	}
	a := &Artifact{
		Kind:         export.KindStandalone,
		Filename:     export.StandaloneFilename(req.Title, req.Permission, snap.TakenAt),
		ContentType:  contentTypeHTML,
		Body:         buf.Bytes(),
		ProjectCount: len(snap.Projects),
	}
	s.finish(ctx, viewer, a, req.Permission, req.Title)
	return a, nil
}

func viewerLevel(viewer *domain.User) string {
	if viewer == nil {
		return domain.PermissionGuest
	}
	return viewer.Role
}

// finish archives, audits and counts a produced artifact. Failures here are
// logged and do not fail the export.
func (s *Service) finish(ctx context.Context, viewer *domain.User, a *Artifact, permission, title string) {
	log := logging.FromContext(ctx)
	at := s.now()

	if s.archive != nil {
		key := archive.ExportKey(at, at.Format("150405")+"_"+a.Filename)
		if _, err := s.archive.Put(ctx, key, bytes.NewReader(a.Body), a.ContentType); err != nil {
			log.Warn("failed to archive export", "key", key, "error", err)
		} else {
			a.ArchiveKey = key
		}
	}

	entry := &audit.Entry{
		Kind:         a.Kind,
		Permission:   permission,
		Title:        title,
		ProjectCount: a.ProjectCount,
		ArchiveKey:   a.ArchiveKey,
	}
	if viewer != nil {
		entry.UserID = viewer.ID
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Warn("failed to record export", "kind", a.Kind, "error", err)
	}

	s.metrics.RecordExport(a.Kind, permission)
	log.Info("export produced", "kind", a.Kind, "permission", permission, "projects", a.ProjectCount, "bytes", len(a.Body))
}

// ImportResult reports how an import merged into the store.
type ImportResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import merges a JSON export into the store by id. The whole payload is
// validated before anything is written. Editors may only add new projects
// or overwrite their own.
func (s *Service) Import(ctx context.Context, viewer *domain.User, r io.Reader) (*ImportResult, error) {
	if !access.HasWriteAccess(viewer) {
		return nil, domain.ErrForbidden
	}
	projects, err := export.DecodeProjects(r)
	if err != nil {
		return nil, err
	}

	if !access.IsAdmin(viewer) {
		existing, err := s.store.GetProjects(ctx)
		if err != nil {
			return nil, err
		}
		owner := make(map[string]string, len(existing))
		for _, p := range existing {
			owner[p.ID] = p.CreatedBy
		}
		for i := range projects {
			p := &projects[i]
			if createdBy, ok := owner[p.ID]; ok && createdBy != viewer.ID {
				return nil, fmt.Errorf("project %s belongs to another user: %w", p.ID, domain.ErrForbidden)
			}
			p.CreatedBy = viewer.ID
			p.CreatedByName = viewer.Name
		}
	}

	created, err := s.store.SaveProjects(context.WithoutCancel(ctx), projects)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("projects imported", "total", len(projects), "created", created)
	return &ImportResult{Total: len(projects), Created: created, Updated: len(projects) - created}, nil
}

// ListArchive lists archived export artifacts, newest last. Admin only.
func (s *Service) ListArchive(ctx context.Context, viewer *domain.User) ([]archive.Info, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	if s.archive == nil {
		return []archive.Info{}, nil
	}
	return s.archive.List(ctx, archive.ExportsPrefix)
}

// OpenArchived streams one archived artifact. Admin only.
func (s *Service) OpenArchived(ctx context.Context, viewer *domain.User, key string) (archive.Info, io.ReadCloser, error) {
	if !access.IsAdmin(viewer) {
		return archive.Info{}, nil, domain.ErrForbidden
	}
	if s.archive == nil {
		return archive.Info{}, nil, domain.ErrNotFound
	}
	info, rc, err := s.archive.Get(ctx, key)
	if errors.Is(err, archive.ErrNotFound) {
		return archive.Info{}, nil, domain.ErrNotFound
	}
	return info, rc, err
}

// ListAudit returns the most recent export audit entries. Admin only.
func (s *Service) ListAudit(ctx context.Context, viewer *domain.User, limit int) ([]audit.Entry, error) {
	if !access.IsAdmin(viewer) {
		return nil, domain.ErrForbidden
	}
	return s.audit.List(ctx, limit)
}
