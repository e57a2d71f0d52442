package domain

import (
	"math"
	"slices"
)

// BodyID identifies a celestial body the oracle can compute.
type BodyID string

const (
	Sun      BodyID = "Sun"
	Moon     BodyID = "Moon"
	Mercury  BodyID = "Mercury"
	Venus    BodyID = "Venus"
	Mars     BodyID = "Mars"
	Jupiter  BodyID = "Jupiter"
	Saturn   BodyID = "Saturn"
	Uranus   BodyID = "Uranus"
	Neptune  BodyID = "Neptune"
	Pluto    BodyID = "Pluto"
	TrueNode BodyID = "TrueNode"
	MeanNode BodyID = "MeanNode"
)

// Bodies lists every supported body in canonical order.
var Bodies = []BodyID{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, TrueNode, MeanNode}

// ParseBody resolves an exact body name.
func ParseBody(name string) (BodyID, error) {
	for _, b := range Bodies {
		if string(b) == name {
			return b, nil
		}
	}
	return "", InvalidInput("parse body", ErrInvalidBody, "%q", name)
}

// IsPlanet reports whether b orbits the Sun (and so has a heliocentric position).
func (b BodyID) IsPlanet() bool {
	switch b {
	case Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto:
		return true
	}
	return false
}

// Ayanamsa selects the sidereal zodiac offset. Codes follow the
// Swiss Ephemeris SE_SIDM_* numbering.
type Ayanamsa int

const (
	AyanamsaFaganBradley Ayanamsa = 0
	AyanamsaLahiri       Ayanamsa = 1
	AyanamsaRaman        Ayanamsa = 3
	AyanamsaKrishnamurti Ayanamsa = 5
)

var ayanamsaNames = map[Ayanamsa]string{
	AyanamsaFaganBradley: "Fagan/Bradley",
	AyanamsaLahiri:       "Lahiri",
	AyanamsaRaman:        "Raman",
	AyanamsaKrishnamurti: "Krishnamurti",
}

// Valid reports whether a is a supported ayanamsa code.
func (a Ayanamsa) Valid() bool {
	_, ok := ayanamsaNames[a]
	return ok
}

func (a Ayanamsa) String() string {
	if n, ok := ayanamsaNames[a]; ok {
		return n
	}
	return "unknown"
}

// Frame carries the coordinate options of a position request.
type Frame struct {
	Heliocentric bool
	// TruePosition requests geometric positions: no light-time or aberration.
	TruePosition bool
	Sidereal     bool
	Ayanamsa     Ayanamsa
	IncludeSpeed bool
}

// EclipticPosition is a body's ecliptic coordinates. Longitude is in [0, 360).
type EclipticPosition struct {
	Longitude float64
	Latitude  float64
	// Distance in astronomical units.
	Distance       float64
	SpeedLongitude float64
	HasSpeed       bool
}

// BodyPosition pairs a body with its computed position.
type BodyPosition struct {
	Body     BodyID
	Position EclipticPosition
}

// GeoLocation is an observer on Earth: signed degrees, north and east
// positive, longitude in [-180, 180]. Altitude is metres above sea level.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// NewGeoLocation validates coordinate ranges.
func NewGeoLocation(lat, lon, alt float64) (GeoLocation, error) {
	switch {
	case math.IsNaN(lat) || lat < -90 || lat > 90:
		return GeoLocation{}, InvalidInput("location", ErrInvalidLocation, "latitude %g outside [-90, 90]", lat)
	case math.IsNaN(lon) || lon < -180 || lon > 180:
		return GeoLocation{}, InvalidInput("location", ErrInvalidLocation, "longitude %g outside [-180, 180]", lon)
	case math.IsNaN(alt) || math.IsInf(alt, 0):
		return GeoLocation{}, InvalidInput("location", ErrInvalidLocation, "altitude must be finite")
	}
	return GeoLocation{Latitude: lat, Longitude: lon, Altitude: alt}, nil
}

// HouseSystem is a one-letter house system code.
type HouseSystem byte

const (
	Placidus      HouseSystem = 'P'
	Koch          HouseSystem = 'K'
	Regiomontanus HouseSystem = 'R'
	Campanus      HouseSystem = 'C'
	Equal         HouseSystem = 'E'
	Vehlow        HouseSystem = 'V'
	WholeSign     HouseSystem = 'W'
	AxialRotation HouseSystem = 'X'
	Horizontal    HouseSystem = 'H'
	Topocentric   HouseSystem = 'T'
	Morinus       HouseSystem = 'M'
	Alcabitius    HouseSystem = 'B'
	Porphyry      HouseSystem = 'Y'
)

var houseSystemNames = map[HouseSystem]string{
	Placidus:      "Placidus",
	Koch:          "Koch",
	Regiomontanus: "Regiomontanus",
	Campanus:      "Campanus",
	Equal:         "Equal",
	Vehlow:        "Vehlow",
	WholeSign:     "Whole Sign",
	AxialRotation: "Axial Rotation",
	Horizontal:    "Horizontal",
	Topocentric:   "Topocentric",
	Morinus:       "Morinus",
	Alcabitius:    "Alcabitius",
	Porphyry:      "Porphyry",
}

// houseSystemAliases are extra codes accepted on input.
var houseSystemAliases = map[string]HouseSystem{
	"L": Alcabitius,
	"A": Alcabitius,
}

// ParseHouseSystem resolves a house system code. Codes are case-sensitive.
func ParseHouseSystem(code string) (HouseSystem, error) {
	if hs, ok := houseSystemAliases[code]; ok {
		return hs, nil
	}
	if len(code) == 1 {
		if _, ok := houseSystemNames[HouseSystem(code[0])]; ok {
			return HouseSystem(code[0]), nil
		}
	}
	return 0, InvalidInput("parse house system", ErrUnsupportedHouseSystem, "%q", code)
}

func (h HouseSystem) String() string { return string(rune(h)) }

// Name returns the human-readable name of the system.
func (h HouseSystem) Name() string { return houseSystemNames[h] }

// HouseSystemCodes returns all canonical codes in alphabetical order.
func HouseSystemCodes() []string {
	out := make([]string, 0, len(houseSystemNames))
	for h := range houseSystemNames {
		out = append(out, h.String())
	}
	slices.Sort(out)
	return out
}

// ChartHouses holds the twelve cusps (index 0 is house 1) and chart angles.
type ChartHouses struct {
	System    HouseSystem
	Cusps     [12]float64
	Ascendant float64
	MC        float64
	ARMC      float64
	EastPoint float64
}

// Normalized returns a copy with every longitude reduced into [0, 360).
func (c ChartHouses) Normalized() ChartHouses {
	for i := range c.Cusps {
		c.Cusps[i] = Normalize360(c.Cusps[i])
	}
	c.Ascendant = Normalize360(c.Ascendant)
	c.MC = Normalize360(c.MC)
	c.ARMC = Normalize360(c.ARMC)
	c.EastPoint = Normalize360(c.EastPoint)
	return c
}
