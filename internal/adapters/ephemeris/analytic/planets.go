package analytic

import "github.com/rapaev95/ephemeris-agpl-service/internal/domain"

// lightTimePerAU is the light travel time over one AU, in days.
const lightTimePerAU = 0.0057755183

func (o *Oracle) planetPosition(T float64, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error) {
	orb, err := o.elements.get(string(body))
	if err != nil {
		return domain.EclipticPosition{}, err
	}
	dpsi, _ := nutationOf(T)
	prec := generalPrecession(T)

	if frame.Heliocentric {
		lon, lat, r := orb.position(T).spherical()
		return domain.EclipticPosition{
			Longitude: domain.Normalize360(lon + prec + dpsi),
			Latitude:  lat,
			Distance:  r,
		}, nil
	}

	emb, err := o.elements.get(earthMoon)
	if err != nil {
		return domain.EclipticPosition{}, err
	}
	earth := emb.position(T)
	geo := orb.position(T).sub(earth)
	if !frame.TruePosition {
		tau := lightTimePerAU * geo.norm()
		geo = orb.position(T - tau/36525).sub(earth)
	}

	lon, lat, dist := geo.spherical()
	lon += prec
	if !frame.TruePosition {
		dlon, dlat := annualAberration(T, lon, lat)
		lon += dlon
		lat += dlat
	}
	return domain.EclipticPosition{
		Longitude: domain.Normalize360(lon + dpsi),
		Latitude:  lat,
		Distance:  dist,
	}, nil
}

// annualAberration returns corrections to ecliptic longitude and latitude
// of date, in degrees.
func annualAberration(T, lon, lat float64) (dlon, dlat float64) {
	s := sunAt(T)
	k := aberrationConstant
	cb := cosd(lat)
	if cb < 1e-9 {
		cb = 1e-9
	}
	dlon = (-k*cosd(s.lon-lon) + s.ecc*k*cosd(s.peri-lon)) / cb
	dlat = -k * sind(lat) * (sind(s.lon-lon) - s.ecc*sind(s.peri-lon))
	return dlon, dlat
}
