// Package service implements the catalog use cases on top of the Redis store:
// permission checks, filtered views, per-session selection, exports and the
// admin panel. Handlers call it with the resolved viewer (nil for guests).
package service

import (
	"context"
	"time"

	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/audit"
	"github.com/tztw/projectmap/internal/catalog/repository"
	"github.com/tztw/projectmap/internal/geocode"
	"github.com/tztw/projectmap/internal/metrics"
)

// Geocoder resolves a free-text place or a "lat, lng" pair.
type Geocoder interface {
	Resolve(ctx context.Context, q string) (geocode.Result, error)
}

// Deps are the collaborators of a Service. Only Store is required; a nil
// Archive disables archiving and a nil Audit records nothing.
type Deps struct {
	Store    *repository.Store
	Geocoder Geocoder
	Archive  archive.Store
	Audit    audit.Recorder
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type Service struct {
	store    *repository.Store
	geocoder Geocoder
	archive  archive.Store
	audit    audit.Recorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		geocoder: d.Geocoder,
		archive:  d.Archive,
		audit:    d.Audit,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Store exposes the underlying repository for the event stream and health
// checks.
func (s *Service) Store() *repository.Store {
	return s.store
}
