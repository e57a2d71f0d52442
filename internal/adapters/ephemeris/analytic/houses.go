package analytic

import (
	"fmt"
	"math"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// sphere is the observer's celestial frame for one house computation.
// All angles are in degrees.
type sphere struct {
	armc float64
	eps  float64
	lat  float64
}

// asc1 is the ecliptic point rising over a horizon of pole height pole
// when the meridian has right ascension theta.
func (s sphere) asc1(theta, pole float64) float64 {
	return domain.Normalize360(atan2d(cosd(theta), -(sind(theta)*cosd(s.eps) + tand(pole)*sind(s.eps))))
}

// raToLon projects a right ascension onto the ecliptic along an hour circle.
func (s sphere) raToLon(ra float64) float64 {
	return domain.Normalize360(atan2d(sind(ra), cosd(ra)*cosd(s.eps)))
}

// equatorToLon projects an equator point onto the ecliptic along a circle
// through the ecliptic poles.
func (s sphere) equatorToLon(ra float64) float64 {
	return domain.Normalize360(atan2d(sind(ra)*cosd(s.eps), cosd(ra)))
}

func (s sphere) mc() float64 { return s.raToLon(s.armc) }

func (s sphere) ascendant() float64 { return s.asc1(s.armc, s.lat) }

// semiArc returns the diurnal semi-arc of an ecliptic point, or false when
// the point is circumpolar.
func (s sphere) semiArc(lon float64) (float64, bool) {
	dec := asind(sind(s.eps) * sind(lon))
	x := tand(s.lat) * tand(dec)
	if math.Abs(x) >= 1 {
		return 0, false
	}
	return 90 + asind(x), true
}

func polarError(system domain.HouseSystem, lat float64) error {
	return fmt.Errorf("%w: %s houses are undefined at latitude %.4f", domain.ErrEphemerisUnavailable, system.Name(), lat)
}

// computeHouses returns the cusps for system. Quadrant systems put the
// Ascendant on cusp 1 and the MC on cusp 10.
func computeHouses(system domain.HouseSystem, s sphere) (domain.ChartHouses, error) {
	ch := domain.ChartHouses{
		System:    system,
		Ascendant: s.ascendant(),
		MC:        s.mc(),
		ARMC:      domain.Normalize360(s.armc),
		EastPoint: s.asc1(s.armc, 0),
	}

	// q holds cusps 11, 12, 2, 3 for quadrant systems.
	var q [4]float64
	switch system {
	case domain.Placidus, domain.Koch, domain.Alcabitius:
		if math.Abs(s.lat) >= 90-s.eps {
			return domain.ChartHouses{}, polarError(system, s.lat)
		}
	}

	switch system {
	case domain.Equal, domain.Vehlow, domain.WholeSign:
		start := ch.Ascendant
		switch system {
		case domain.Vehlow:
			start -= 15
		case domain.WholeSign:
			start = math.Floor(ch.Ascendant/30) * 30
		}
		for i := range ch.Cusps {
			ch.Cusps[i] = domain.Normalize360(start + 30*float64(i))
		}
		return ch, nil

	case domain.Morinus, domain.AxialRotation:
		for i := range ch.Cusps {
			ra := s.armc + 90 + 30*float64(i)
			if system == domain.Morinus {
				ch.Cusps[i] = s.equatorToLon(ra)
			} else {
				ch.Cusps[i] = s.raToLon(ra)
			}
		}
		return ch, nil

	case domain.Horizontal:
		for i := range ch.Cusps {
			ch.Cusps[i] = s.verticalCrossing(90 - 30*float64(i))
		}
		return ch, nil

	case domain.Porphyry:
		upper := domain.Normalize360(ch.Ascendant - ch.MC)
		lower := 180 - upper
		q = [4]float64{
			ch.MC + upper/3,
			ch.MC + 2*upper/3,
			ch.Ascendant + lower/3,
			ch.Ascendant + 2*lower/3,
		}

	case domain.Regiomontanus, domain.Campanus, domain.Topocentric:
		for i, h := range []float64{30, 60, 120, 150} {
			q[i] = s.poleCusp(system, h)
		}

	case domain.Placidus:
		for i, c := range []int{11, 12, 2, 3} {
			lon, ok := s.placidus(c)
			if !ok {
				return domain.ChartHouses{}, polarError(system, s.lat)
			}
			q[i] = lon
		}

	case domain.Koch:
		dsa, ok := s.semiArc(ch.MC)
		if !ok {
			return domain.ChartHouses{}, polarError(system, s.lat)
		}
		for i, k := range []float64{-2, -1, 1, 2} {
			q[i] = s.asc1(s.armc+k*dsa/3, s.lat)
		}

	case domain.Alcabitius:
		dsa, ok := s.semiArc(ch.Ascendant)
		if !ok {
			return domain.ChartHouses{}, polarError(system, s.lat)
		}
		nsa := 180 - dsa
		q = [4]float64{
			s.raToLon(s.armc + dsa/3),
			s.raToLon(s.armc + 2*dsa/3),
			s.raToLon(s.armc + 180 - 2*nsa/3),
			s.raToLon(s.armc + 180 - nsa/3),
		}

	default:
		return domain.ChartHouses{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedHouseSystem, system.String())
	}

	ch.Cusps[0] = ch.Ascendant
	ch.Cusps[9] = ch.MC
	ch.Cusps[10], ch.Cusps[11], ch.Cusps[1], ch.Cusps[2] = q[0], q[1], q[2], q[3]
	for i := 3; i < 9; i++ {
		ch.Cusps[i] = ch.Cusps[(i+6)%12] + 180
	}
	return ch.Normalized(), nil
}

// poleCusp computes a cusp for systems that divide a great circle through
// the north and south points of the horizon. h is the house circle's
// distance from the meridian, measured on the equator for Regiomontanus
// and Topocentric and on the prime vertical for Campanus.
func (s sphere) poleCusp(system domain.HouseSystem, h float64) float64 {
	tanPole := tand(s.lat) * sind(h)
	switch system {
	case domain.Campanus:
		h = atan2d(sind(h)*cosd(s.lat), cosd(h))
		tanPole = tand(s.lat) * sind(h)
	case domain.Topocentric:
		k := h / 30
		if k > 3 {
			k = 6 - k
		}
		tanPole = tand(s.lat) * k / 3
	}
	return s.asc1(s.armc+h-90, math.Atan(tanPole)/rad)
}

// placidus iterates for the cusp that divides the semi-arc of its own
// degree into thirds.
func (s sphere) placidus(cusp int) (float64, bool) {
	var k float64
	above := cusp > 10
	switch cusp {
	case 11, 3:
		k = 1
	case 12, 2:
		k = 2
	}
	raFor := func(ad float64) float64 {
		if above {
			return s.armc + k*(90+ad)/3
		}
		return s.armc + 180 - k*(90-ad)/3
	}

	lon := s.raToLon(raFor(0))
	for range 100 {
		dec := asind(sind(s.eps) * sind(lon))
		x := tand(s.lat) * tand(dec)
		if math.Abs(x) >= 1 {
			return 0, false
		}
		next := s.raToLon(raFor(asind(x)))
		if math.Abs(domain.Normalize180(next-lon)) < 1e-10 {
			return next, true
		}
		lon = next
	}
	return lon, true
}

// verticalCrossing is the ecliptic point on the vertical circle at
// azimuth az (from north through east), on the side facing az.
func (s sphere) verticalCrossing(az float64) float64 {
	cl, sl := cosd(s.lat), sind(s.lat)
	ct, st := cosd(s.armc), sind(s.armc)
	zenith := vec3{cl * ct, cl * st, sl}
	north := vec3{-sl * ct, -sl * st, cl}
	east := vec3{-st, ct, 0}
	h := north.scale(cosd(az)).add(east.scale(sind(az)))
	pole := vec3{0, -sind(s.eps), cosd(s.eps)}

	d := zenith.cross(h).cross(pole)
	if d.dot(h) < 0 {
		d = d.scale(-1)
	}
	ecl := vec3{
		x: d.x,
		y: d.y*cosd(s.eps) + d.z*sind(s.eps),
		z: -d.y*sind(s.eps) + d.z*cosd(s.eps),
	}
	lon, _, _ := ecl.spherical()
	return lon
}
