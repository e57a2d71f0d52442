// Package analytic is an in-process ephemeris built from closed-form
// theories. The Sun, the Moon, nutation and sidereal time come from the
// Meeus algorithms; the planets use mean Keplerian elements.
// Accuracy is in the arcsecond to arcminute range, enough for chart
// work and for the Design-time search.
package analytic

import (
	"context"
	"fmt"
	"math"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// EngineName identifies this oracle in API responses.
const EngineName = "analytic"

// speedStep is the half-width of the central difference used for speeds.
const speedStep = 0.01

// Config bounds the Julian days (UT) the oracle will answer for.
type Config struct {
	MinJD float64
	MaxJD float64
}

// DefaultConfig covers the years 1000 to 3000.
func DefaultConfig() Config {
	return Config{MinJD: 2086307.5, MaxJD: 2816787.5}
}

// Oracle implements ports.Ephemeris. It is safe for concurrent use.
type Oracle struct {
	cfg      Config
	elements *elementTable
}

func New(cfg Config) *Oracle {
	if cfg.MinJD == 0 && cfg.MaxJD == 0 {
		cfg = DefaultConfig()
	}
	return &Oracle{cfg: cfg, elements: &elementTable{}}
}

func (o *Oracle) EngineName() string { return EngineName }

func (o *Oracle) covers(t domain.TimeInstant) error {
	jd := t.JulianDayUT()
	if jd < o.cfg.MinJD || jd > o.cfg.MaxJD {
		return fmt.Errorf("%w: jd %.5f outside supported range [%.1f, %.1f]",
			domain.ErrEphemerisUnavailable, jd, o.cfg.MinJD, o.cfg.MaxJD)
	}
	return nil
}

func (o *Oracle) BodyPosition(ctx context.Context, t domain.TimeInstant, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error) {
	if err := ctx.Err(); err != nil {
		return domain.EclipticPosition{}, err
	}
	if err := o.covers(t); err != nil {
		return domain.EclipticPosition{}, err
	}
	if frame.Heliocentric && !body.IsPlanet() {
		return domain.EclipticPosition{}, fmt.Errorf("%w: no heliocentric position for %s", domain.ErrInvalidBody, body)
	}

	pos, err := o.position(centuries(t), body, frame)
	if err != nil {
		return domain.EclipticPosition{}, err
	}
	if frame.IncludeSpeed {
		before, err := o.position(centuries(t.AddDays(-speedStep)), body, frame)
		if err != nil {
			return domain.EclipticPosition{}, err
		}
		after, err := o.position(centuries(t.AddDays(speedStep)), body, frame)
		if err != nil {
			return domain.EclipticPosition{}, err
		}
		pos.SpeedLongitude = domain.AngleDifference(after.Longitude, before.Longitude) / (2 * speedStep)
		pos.HasSpeed = true
	}
	return pos, nil
}

// position computes a tropical or sidereal position without speed.
func (o *Oracle) position(T float64, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error) {
	var (
		pos domain.EclipticPosition
		err error
	)
	switch {
	case body == domain.Sun:
		pos = sunPosition(T, frame)
	case body == domain.Moon:
		pos = moonPosition(T)
	case body == domain.TrueNode || body == domain.MeanNode:
		pos = nodePosition(T, body)
	case body.IsPlanet():
		pos, err = o.planetPosition(T, body, frame)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrInvalidBody, string(body))
	}
	if err != nil {
		return domain.EclipticPosition{}, err
	}

	if frame.Sidereal {
		aya, ok := ayanamsa(T, frame.Ayanamsa)
		if !ok {
			return domain.EclipticPosition{}, fmt.Errorf("%w: unsupported ayanamsa %d", domain.ErrInvalidRequest, int(frame.Ayanamsa))
		}
		// Sidereal longitudes are referred to the mean equinox.
		dpsi, _ := nutationOf(T)
		pos.Longitude = domain.Normalize360(pos.Longitude - dpsi - aya)
	}
	if math.IsNaN(pos.Longitude) {
		return domain.EclipticPosition{}, fmt.Errorf("%w: %s longitude is not a number", domain.ErrEphemerisUnavailable, body)
	}
	return pos, nil
}

func (o *Oracle) HouseCusps(ctx context.Context, t domain.TimeInstant, loc domain.GeoLocation, system domain.HouseSystem) (domain.ChartHouses, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChartHouses{}, err
	}
	if err := o.covers(t); err != nil {
		return domain.ChartHouses{}, err
	}
	T := centuries(t)
	s := sphere{
		armc: domain.Normalize360(apparentSiderealTime(t) + loc.Longitude),
		eps:  trueObliquity(T),
		lat:  loc.Latitude,
	}
	return computeHouses(system, s)
}
