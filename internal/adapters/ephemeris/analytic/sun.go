package analytic

import (
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// aberrationConstant in degrees.
const aberrationConstant = 20.49552 / 3600

// solarState holds the geometric Sun referred to the mean equinox of date.
type solarState struct {
	lon  float64
	dist float64
	// perihelion longitude and eccentricity of the Earth's orbit, for
	// planetary aberration.
	peri float64
	ecc  float64
}

// sunAt evaluates the low-accuracy solar theory (about 0.01°).
func sunAt(T float64) solarState {
	lon, _ := solar.True(T)
	return solarState{
		lon:  domain.Normalize360(lon.Deg()),
		dist: solar.Radius(T),
		peri: 102.93735 + 1.71946*T + 0.00046*T*T,
		ecc:  solar.Eccentricity(T),
	}
}

func sunPosition(T float64, frame domain.Frame) domain.EclipticPosition {
	s := sunAt(T)
	dpsi, _ := nutationOf(T)
	lon := s.lon + dpsi
	if !frame.TruePosition {
		lon -= 20.4898 / 3600 / s.dist
	}
	return domain.EclipticPosition{Longitude: domain.Normalize360(lon), Distance: s.dist}
}
