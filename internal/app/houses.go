package app

import (
	"context"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

// HouseRequest is the application-level input for a house computation.
type HouseRequest struct {
	Instant  domain.TimeInstant
	Location domain.GeoLocation
	System   string
}

// HouseService validates the observer and system, then defers to the oracle.
type HouseService struct {
	oracle ports.Ephemeris
}

func NewHouseService(oracle ports.Ephemeris) *HouseService {
	return &HouseService{oracle: oracle}
}

func (s *HouseService) Houses(ctx context.Context, req HouseRequest) (domain.ChartHouses, error) {
	system, err := domain.ParseHouseSystem(req.System)
	if err != nil {
		return domain.ChartHouses{}, err
	}
	loc, err := domain.NewGeoLocation(req.Location.Latitude, req.Location.Longitude, req.Location.Altitude)
	if err != nil {
		return domain.ChartHouses{}, err
	}

	ch, err := s.oracle.HouseCusps(ctx, req.Instant, loc, system)
	if err != nil {
		return domain.ChartHouses{}, domain.Unavailable("houses", err)
	}
	ch.System = system
	return ch.Normalized(), nil
}
