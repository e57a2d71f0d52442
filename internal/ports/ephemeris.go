package ports

import (
	"context"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// Ephemeris computes body positions and house cusps. Implementations are
// deterministic for a fixed data set; failures to compute (coverage,
// missing data, polar latitudes) are reported as errors, never as
// substituted values.
type Ephemeris interface {
	BodyPosition(ctx context.Context, t domain.TimeInstant, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error)
	HouseCusps(ctx context.Context, t domain.TimeInstant, loc domain.GeoLocation, system domain.HouseSystem) (domain.ChartHouses, error)
}

// EngineNamer is implemented by oracles that can identify their engine in
// responses.
type EngineNamer interface {
	EngineName() string
}
