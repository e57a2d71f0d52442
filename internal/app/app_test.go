package app_test

import (
	"context"
	"errors"
	"sync"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// stubOracle returns canned positions and houses and records calls.
type stubOracle struct {
	mu        sync.Mutex
	positions map[domain.BodyID]domain.EclipticPosition
	lonAt     func(t domain.TimeInstant) float64
	houses    domain.ChartHouses
	err       error
	calls     []domain.BodyID
	frames    []domain.Frame
}

func (s *stubOracle) BodyPosition(_ context.Context, t domain.TimeInstant, b domain.BodyID, f domain.Frame) (domain.EclipticPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, b)
	s.frames = append(s.frames, f)
	if s.err != nil {
		return domain.EclipticPosition{}, s.err
	}
	if s.lonAt != nil {
		return domain.EclipticPosition{Longitude: s.lonAt(t), Distance: 1}, nil
	}
	p, ok := s.positions[b]
	if !ok {
		return domain.EclipticPosition{}, errors.New("no data for " + string(b))
	}
	return p, nil
}

func (s *stubOracle) HouseCusps(_ context.Context, _ domain.TimeInstant, _ domain.GeoLocation, sys domain.HouseSystem) (domain.ChartHouses, error) {
	if s.err != nil {
		return domain.ChartHouses{}, s.err
	}
	h := s.houses
	h.System = sys
	return h, nil
}
