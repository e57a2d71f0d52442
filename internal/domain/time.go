package domain

import (
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// J2000 is the Julian day of 2000-01-01T12:00:00 TT.
	J2000 = 2451545.0
	// unixEpochJD is the Julian day of 1970-01-01T00:00:00 UTC.
	unixEpochJD   = 2440587.5
	secondsPerDay = 86400.0
	daysPerYear   = 365.25
)

// TimeInstant is a point on the continuous Julian-day scale in Universal
// Time. UTC is taken as UT: the difference stays below 0.9 s and Go's time
// package does not model leap seconds.
type TimeInstant struct {
	jd float64
}

// InstantFromJulianDay validates a Julian day in UT.
func InstantFromJulianDay(jd float64) (TimeInstant, error) {
	if math.IsNaN(jd) || math.IsInf(jd, 0) {
		return TimeInstant{}, InvalidInput("instant", ErrInvalidTime, "julian day must be finite")
	}
	if jd < 0 {
		return TimeInstant{}, InvalidInput("instant", ErrInvalidTime, "julian day must be >= 0, got %g", jd)
	}
	return TimeInstant{jd: jd}, nil
}

// InstantFromTime converts a civil time, honouring its zone offset.
func InstantFromTime(t time.Time) (TimeInstant, error) {
	if t.IsZero() {
		return TimeInstant{}, InvalidInput("instant", ErrInvalidTime, "time is zero")
	}
	return InstantFromJulianDay(julian.TimeToJD(t.UTC()))
}

// localLayouts are accepted for wall-clock times paired with a zone name.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseCivilTime reads an RFC 3339 timestamp, or a wall-clock time in the
// IANA zone tz. A timestamp without an offset requires tz.
func ParseCivilTime(value, tz string) (TimeInstant, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TimeInstant{}, InvalidInput("parse time", ErrInvalidTime, "datetime is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return InstantFromTime(t)
	}
	if tz == "" {
		return TimeInstant{}, InvalidInput("parse time", ErrInvalidTime,
			"%q has no UTC offset; use RFC 3339 or pass tz", value)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return TimeInstant{}, InvalidInput("parse time", ErrInvalidTime, "unknown time zone %q", tz)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return InstantFromTime(t)
		}
	}
	return TimeInstant{}, InvalidInput("parse time", ErrInvalidTime, "cannot parse %q", value)
}

// MustInstant is InstantFromJulianDay for constants known to be valid.
func MustInstant(jd float64) TimeInstant {
	t, err := InstantFromJulianDay(jd)
	if err != nil {
		panic(err)
	}
	return t
}

// JulianDayUT returns the Julian day in Universal Time.
func (t TimeInstant) JulianDayUT() float64 { return t.jd }

// JulianDayTT returns the Julian day in Terrestrial Time.
func (t TimeInstant) JulianDayTT() float64 { return t.jd + DeltaT(t.jd)/secondsPerDay }

// AddDays returns t shifted by d days.
func (t TimeInstant) AddDays(d float64) TimeInstant { return TimeInstant{jd: t.jd + d} }

// Before reports whether t is earlier than u.
func (t TimeInstant) Before(u TimeInstant) bool { return t.jd < u.jd }

// Time returns the instant as a UTC time.Time, rounded to the microsecond.
// time.Time is proleptic Gregorian, so the conversion counts days from the
// Unix epoch rather than going through a calendar that switches to Julian
// dates before 1582.
func (t TimeInstant) Time() time.Time {
	days := t.jd - unixEpochJD
	whole := math.Floor(days)
	frac := days - whole
	usec := math.Round(frac * secondsPerDay * 1e6)
	return time.Unix(int64(whole)*int64(secondsPerDay), 0).Add(time.Duration(usec) * time.Microsecond).UTC()
}

// DecimalYear approximates the calendar year of a Julian day.
func DecimalYear(jd float64) float64 {
	return 2000 + (jd-J2000)/daysPerYear
}

// DeltaT returns TT-UT in seconds using the Espenak-Meeus polynomials.
func DeltaT(jd float64) float64 {
	y := DecimalYear(jd)
	switch {
	case y < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 500:
		u := y / 100
		return poly(u, 10583.6, -1014.41, 33.78311, -5.952053, -0.1798452, 0.022174192, 0.0090316521)
	case y < 1600:
		u := (y - 1000) / 100
		return poly(u, 1574.2, -556.01, 71.23472, 0.319781, -0.8503463, -0.005050998, 0.0083572073)
	case y < 1700:
		t := y - 1600
		return poly(t, 120, -0.9808, -0.01532, 1.0/7129)
	case y < 1800:
		t := y - 1700
		return poly(t, 8.83, 0.1603, -0.0059285, 0.00013336, -1.0/1174000)
	case y < 1860:
		t := y - 1800
		return poly(t, 13.72, -0.332447, 0.0068612, 0.0041116, -0.00037436, 0.0000121272, -0.0000001699, 0.000000000875)
	case y < 1900:
		t := y - 1860
		return poly(t, 7.62, 0.5737, -0.251754, 0.01680668, -0.0004473624, 1.0/233174)
	case y < 1920:
		t := y - 1900
		return poly(t, -2.79, 1.494119, -0.0598939, 0.0061966, -0.000197)
	case y < 1941:
		t := y - 1920
		return poly(t, 21.20, 0.84493, -0.076100, 0.0020936)
	case y < 1961:
		t := y - 1950
		return poly(t, 29.07, 0.407, -1.0/233, 1.0/2547)
	case y < 1986:
		t := y - 1975
		return poly(t, 45.45, 1.067, -1.0/260, -1.0/718)
	case y < 2005:
		t := y - 2000
		return poly(t, 63.86, 0.3345, -0.060374, 0.0017275, 0.000651814, 0.00002373599)
	case y < 2050:
		t := y - 2000
		return poly(t, 62.92, 0.32217, 0.005589)
	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// poly evaluates c[0] + c[1]x + c[2]x² + ... by Horner's rule.
func poly(x float64, c ...float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
