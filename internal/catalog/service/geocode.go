package service

import (
	"context"
	"errors"

	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/geocode"
)

// Geocode resolves q, trying the "lat, lng" form before the remote search.
func (s *Service) Geocode(ctx context.Context, q string) (geocode.Result, error) {
	if res, ok := geocode.ParseCoordinates(q); ok {
		s.metrics.RecordGeocode(geocode.SourceCoordinates, "ok")
		return res, nil
	}
	if s.geocoder == nil {
		s.metrics.RecordGeocode(geocode.SourceRemote, "error")
		return geocode.Result{}, geocode.NewFallback(q, errors.New("geocoder not configured"))
	}

	res, err := s.geocoder.Resolve(ctx, q)
	switch {
	case err == nil:
		s.metrics.RecordGeocode(geocode.SourceRemote, "ok")
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.RecordGeocode(geocode.SourceRemote, "not_found")
	default:
		s.metrics.RecordGeocode(geocode.SourceRemote, "error")
	}
	return res, err
}
