package analytic

import (
	"github.com/soniakeys/meeus/v3/moonposition"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

const (
	kmPerAU           = 149597870.7
	meanLunarDistance = 385000.56 // km
)

// lunarArgs are the fundamental arguments of the lunar theory in degrees.
type lunarArgs struct {
	d, m, mp, f float64
}

func lunarArgsAt(T float64) lunarArgs {
	T2, T3, T4 := T*T, T*T*T, T*T*T*T
	return lunarArgs{
		d:  domain.Normalize360(297.8501921 + 445267.1114034*T - 0.0018819*T2 + T3/545868 - T4/113065000),
		m:  domain.Normalize360(357.5291092 + 35999.0502909*T - 0.0001536*T2 + T3/24490000),
		mp: domain.Normalize360(134.9633964 + 477198.8675055*T + 0.0087414*T2 + T3/69699 - T4/14712000),
		f:  domain.Normalize360(93.2720950 + 483202.0175233*T - 0.0036539*T2 - T3/3526000 + T4/863310000),
	}
}

// moonGeometric returns the Moon's geometric longitude and latitude
// (mean equinox of date) and distance in km.
func moonGeometric(T float64) (lon, lat, distKm float64) {
	λ, β, Δ := moonposition.Position(jde(T))
	return domain.Normalize360(λ.Deg()), β.Deg(), Δ
}

func moonPosition(T float64) domain.EclipticPosition {
	lon, lat, km := moonGeometric(T)
	dpsi, _ := nutationOf(T)
	return domain.EclipticPosition{
		Longitude: domain.Normalize360(lon + dpsi),
		Latitude:  lat,
		Distance:  km / kmPerAU,
	}
}

// meanNode is the longitude of the mean ascending lunar node.
func meanNode(T float64) float64 {
	return domain.Normalize360(moonposition.Node(jde(T)).Deg())
}

// trueNode adds the main periodic terms of the node's oscillation.
func trueNode(T float64) float64 {
	a := lunarArgsAt(T)
	return domain.Normalize360(meanNode(T) -
		1.4979*sind(2*(a.d-a.f)) -
		0.1500*sind(a.m) -
		0.1226*sind(2*a.d) +
		0.1176*sind(2*a.f) +
		0.0801*sind(2*(a.mp-a.f)))
}

func nodePosition(T float64, body domain.BodyID) domain.EclipticPosition {
	lon := meanNode(T)
	if body == domain.TrueNode {
		lon = trueNode(T)
	}
	dpsi, _ := nutationOf(T)
	return domain.EclipticPosition{
		Longitude: domain.Normalize360(lon + dpsi),
		Distance:  meanLunarDistance / kmPerAU,
	}
}
