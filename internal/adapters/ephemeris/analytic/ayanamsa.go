package analytic

import "github.com/rapaev95/ephemeris-agpl-service/internal/domain"

// ayanamsaJ2000 is each sidereal zodiac's offset from the mean equinox at J2000.
var ayanamsaJ2000 = map[domain.Ayanamsa]float64{
	domain.AyanamsaFaganBradley: 24.740300,
	domain.AyanamsaLahiri:       23.857092,
	domain.AyanamsaRaman:        22.410791,
	domain.AyanamsaKrishnamurti: 23.760240,
}

// ayanamsa returns the mean ayanamsa of date in degrees.
func ayanamsa(T float64, a domain.Ayanamsa) (float64, bool) {
	v, ok := ayanamsaJ2000[a]
	if !ok {
		return 0, false
	}
	return v + generalPrecession(T), true
}
