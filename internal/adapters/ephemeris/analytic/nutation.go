package analytic

import (
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// secondsPerDegree converts sidereal time in seconds to degrees.
const secondsPerDegree = 240

// centuries returns Julian centuries of TT since J2000.
func centuries(t domain.TimeInstant) float64 {
	return base.J2000Century(t.JulianDayTT())
}

// jde is the inverse of centuries.
func jde(T float64) float64 {
	return domain.J2000 + T*36525
}

// nutationOf returns the IAU 1980 nutation in longitude and in obliquity,
// in degrees.
func nutationOf(T float64) (dpsi, deps float64) {
	dψ, dε := nutation.Nutation(jde(T))
	return dψ.Deg(), dε.Deg()
}

// meanObliquity is the IAU 1980 mean obliquity of the ecliptic in degrees.
func meanObliquity(T float64) float64 {
	return nutation.MeanObliquity(jde(T)).Deg()
}

// trueObliquity includes nutation in obliquity.
func trueObliquity(T float64) float64 {
	_, deps := nutationOf(T)
	return meanObliquity(T) + deps
}

// generalPrecession is the accumulated precession in longitude since J2000.
func generalPrecession(T float64) float64 {
	return (5029.0966*T + 1.11113*T*T) / 3600
}

// meanSiderealTime is Greenwich mean sidereal time in degrees for a UT
// Julian day.
func meanSiderealTime(jdUT float64) float64 {
	return domain.Normalize360(float64(sidereal.Mean(jdUT)) / secondsPerDegree)
}

// apparentSiderealTime adds the equation of the equinoxes.
func apparentSiderealTime(t domain.TimeInstant) float64 {
	return domain.Normalize360(float64(sidereal.Apparent(t.JulianDayUT())) / secondsPerDegree)
}
