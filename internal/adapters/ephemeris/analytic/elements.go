package analytic

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

//go:embed data/elements.json
var elementsFS embed.FS

const elementsFile = "data/elements.json"

// earthMoon is the table key of the Earth-Moon barycentre.
const earthMoon = "EarthMoon"

// element is a value at J2000 and its rate per Julian century.
type element [2]float64

func (e element) at(T float64) float64 { return e[0] + e[1]*T }

// orbit holds mean Keplerian elements referred to the J2000 ecliptic and
// equinox. Angles are in degrees.
type orbit struct {
	Body string  `json:"body"`
	A    element `json:"a"`
	E    element `json:"e"`
	I    element `json:"i"`
	L    element `json:"l"`
	Peri element `json:"peri"`
	Node element `json:"node"`
}

// elementTable loads the embedded orbit table once.
type elementTable struct {
	once   sync.Once
	orbits map[string]orbit
	err    error
}

func (t *elementTable) init() {
	raw, err := elementsFS.ReadFile(elementsFile)
	if err != nil {
		t.err = fmt.Errorf("read embedded elements: %w", err)
		return
	}
	var list []orbit
	if err := json.Unmarshal(raw, &list); err != nil {
		t.err = fmt.Errorf("parse embedded elements: %w", err)
		return
	}
	t.orbits = make(map[string]orbit, len(list))
	for _, o := range list {
		t.orbits[o.Body] = o
	}
	for _, b := range domain.Bodies {
		if !b.IsPlanet() {
			continue
		}
		if _, ok := t.orbits[string(b)]; !ok {
			t.err = fmt.Errorf("embedded elements: missing %s", b)
			return
		}
	}
	if _, ok := t.orbits[earthMoon]; !ok {
		t.err = fmt.Errorf("embedded elements: missing %s", earthMoon)
	}
}

func (t *elementTable) get(name string) (orbit, error) {
	t.once.Do(t.init)
	if t.err != nil {
		return orbit{}, t.err
	}
	o, ok := t.orbits[name]
	if !ok {
		return orbit{}, fmt.Errorf("%w: no orbit for %s", domain.ErrEphemerisUnavailable, name)
	}
	return o, nil
}

// position returns the heliocentric position in AU, J2000 ecliptic frame.
func (o orbit) position(T float64) vec3 {
	a := o.A.at(T)
	e := o.E.at(T)
	incl := o.I.at(T)
	l := o.L.at(T)
	peri := o.Peri.at(T)
	node := o.Node.at(T)

	w := peri - node
	m := domain.Normalize180(l - peri)
	ea := kepler(m*rad, e)

	xp := a * (math.Cos(ea) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ea)

	cw, sw := cosd(w), sind(w)
	cn, sn := cosd(node), sind(node)
	ci, si := cosd(incl), sind(incl)
	return vec3{
		x: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		z: sw*si*xp + cw*si*yp,
	}
}

// kepler solves E - e sin E = M by Newton's method. Angles in radians.
func kepler(m, e float64) float64 {
	ea := m + e*math.Sin(m)
	for range 50 {
		d := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= d
		if math.Abs(d) < 1e-12 {
			break
		}
	}
	return ea
}
