package app

import (
	"context"
	"fmt"
	"math"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

// PositionRequest is the application-level input (no HTTP types).
type PositionRequest struct {
	Instant domain.TimeInstant
	Bodies  []string
	Frame   domain.Frame
}

// PositionResponse lists positions in request order.
type PositionResponse struct {
	Instant   domain.TimeInstant
	Frame     domain.Frame
	Positions []domain.BodyPosition
}

// PositionService resolves body names and queries the oracle once per body.
type PositionService struct {
	oracle ports.Ephemeris
}

func NewPositionService(oracle ports.Ephemeris) *PositionService {
	return &PositionService{oracle: oracle}
}

func (s *PositionService) Positions(ctx context.Context, req PositionRequest) (PositionResponse, error) {
	const op = "positions"

	bodies, err := resolveBodies(req.Bodies)
	if err != nil {
		return PositionResponse{}, err
	}
	if err := validateFrame(req.Frame, bodies); err != nil {
		return PositionResponse{}, err
	}

	out := make([]domain.BodyPosition, 0, len(bodies))
	for _, b := range bodies {
		pos, err := s.oracle.BodyPosition(ctx, req.Instant, b, req.Frame)
		if err != nil {
			return PositionResponse{}, domain.Unavailable(op, fmt.Errorf("%s: %w", b, err))
		}
		if math.IsNaN(pos.Longitude) || math.IsInf(pos.Longitude, 0) {
			return PositionResponse{}, domain.Unavailable(op, fmt.Errorf("%s: non-finite longitude", b))
		}
		pos.Longitude = domain.Normalize360(pos.Longitude)
		if !req.Frame.IncludeSpeed {
			pos.SpeedLongitude, pos.HasSpeed = 0, false
		}
		out = append(out, domain.BodyPosition{Body: b, Position: pos})
	}

	return PositionResponse{Instant: req.Instant, Frame: req.Frame, Positions: out}, nil
}

// resolveBodies parses names, dropping repeats; the first occurrence keeps
// its place.
func resolveBodies(names []string) ([]domain.BodyID, error) {
	if len(names) == 0 {
		return nil, domain.InvalidInput("positions", domain.ErrInvalidRequest, "bodies must not be empty")
	}
	seen := make(map[domain.BodyID]bool, len(names))
	out := make([]domain.BodyID, 0, len(names))
	for _, n := range names {
		b, err := domain.ParseBody(n)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

func validateFrame(f domain.Frame, bodies []domain.BodyID) error {
	if f.Sidereal && !f.Ayanamsa.Valid() {
		return domain.InvalidInput("positions", domain.ErrInvalidRequest, "unsupported ayanamsa %d", int(f.Ayanamsa))
	}
	if f.Heliocentric {
		for _, b := range bodies {
			if !b.IsPlanet() {
				return domain.InvalidInput("positions", domain.ErrInvalidBody, "%s has no heliocentric position", b)
			}
		}
	}
	return nil
}
