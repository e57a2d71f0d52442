package domain

import "math"

// Normalize360 maps an angle in degrees into [0, 360).
func Normalize360(deg float64) float64 {
	x := math.Mod(deg, 360)
	if x < 0 {
		x += 360
	}
	// -1e-17 + 360 rounds to 360.
	if x >= 360 {
		x = 0
	}
	return x
}

// Normalize180 maps an angle in degrees into (-180, 180].
func Normalize180(deg float64) float64 {
	x := Normalize360(deg)
	if x > 180 {
		x -= 360
	}
	return x
}

// AngleDifference is the signed shortest arc from b to a, in (-180, 180].
func AngleDifference(a, b float64) float64 {
	return Normalize180(a - b)
}

// WithinTolerance reports whether a and b are at most tol degrees apart on the circle.
func WithinTolerance(a, b, tol float64) bool {
	return math.Abs(AngleDifference(a, b)) <= tol
}

// DMS is an angle split into sexagesimal parts. Sign applies to the whole angle.
type DMS struct {
	Negative bool    `json:"negative,omitempty"`
	Degrees  int     `json:"deg"`
	Minutes  int     `json:"min"`
	Seconds  float64 `json:"sec"`
}

// ToDMS splits deg into degrees, minutes and seconds.
func ToDMS(deg float64) DMS {
	neg := deg < 0
	a := math.Abs(deg)
	d := math.Floor(a)
	mf := (a - d) * 60
	m := math.Floor(mf)
	s := (mf - m) * 60
	if s >= 60-1e-9 {
		s = 0
		m++
	}
	if m >= 60 {
		m = 0
		d++
	}
	return DMS{Negative: neg, Degrees: int(d), Minutes: int(m), Seconds: s}
}
