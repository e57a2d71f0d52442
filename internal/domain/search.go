package domain

import "math"

const (
	// DesignOffset is the solar arc between the Design and Personality
	// instants in Human Design.
	DesignOffset = 88.0
	// SunMeanMotion is the Sun's mean geocentric motion in degrees per day.
	SunMeanMotion = 0.9856

	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
	DefaultMarginDays    = 2.0
	// MaxIterationsLimit caps caller-supplied iteration budgets.
	MaxIterationsLimit = 10000
)

// meanMotion holds mean geocentric motion in degrees per day. The nodes
// regress and have no entry.
var meanMotion = map[BodyID]float64{
	Sun:     SunMeanMotion,
	Moon:    13.176358,
	Mercury: SunMeanMotion,
	Venus:   SunMeanMotion,
	Mars:    0.524033,
	Jupiter: 0.083091,
	Saturn:  0.033460,
	Uranus:  0.011733,
	Neptune: 0.005981,
	Pluto:   0.003970,
}

// MeanMotion returns b's mean geocentric motion in degrees per day.
func MeanMotion(b BodyID) (float64, bool) {
	r, ok := meanMotion[b]
	return r, ok
}

// SearchWindow bounds the search to [reference-MaxDays, reference-MinDays].
type SearchWindow struct {
	MinDays float64
	MaxDays float64
}

// DesignQuery describes a backward search for the instant at which Body's
// longitude was Offset degrees behind its longitude at Reference.
type DesignQuery struct {
	Reference TimeInstant
	Body      BodyID
	Offset    float64
	// Rate is the body's mean motion in degrees per day; used only to place
	// the initial bracket.
	Rate          float64
	MarginDays    float64
	Tolerance     float64
	MaxIterations int
	// Window, when set, replaces the computed bracket and is never widened.
	Window *SearchWindow
}

// NewDesignQuery returns the Human Design query for a reference instant.
func NewDesignQuery(ref TimeInstant) DesignQuery {
	return DesignQuery{
		Reference:     ref,
		Body:          Sun,
		Offset:        DesignOffset,
		Rate:          SunMeanMotion,
		MarginDays:    DefaultMarginDays,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

func (q DesignQuery) withDefaults() DesignQuery {
	if q.Body == "" {
		q.Body = Sun
	}
	if q.Rate == 0 {
		if r, ok := MeanMotion(q.Body); ok {
			q.Rate = r
		}
	}
	if q.MarginDays == 0 {
		q.MarginDays = DefaultMarginDays
	}
	if q.Tolerance == 0 {
		q.Tolerance = DefaultTolerance
	}
	if q.MaxIterations == 0 {
		q.MaxIterations = DefaultMaxIterations
	}
	return q
}

// Validate checks the query after defaults are applied.
func (q DesignQuery) Validate() error {
	const op = "design query"
	q = q.withDefaults()
	switch {
	case math.IsNaN(q.Offset) || q.Offset <= 0 || q.Offset >= 360:
		return InvalidInput(op, ErrInvalidRequest, "offset must be in (0, 360), got %g", q.Offset)
	case math.IsNaN(q.Rate) || q.Rate <= 0 || math.IsInf(q.Rate, 0):
		return InvalidInput(op, ErrInvalidBody, "%s has no forward mean motion to search on", q.Body)
	case math.IsNaN(q.MarginDays) || q.MarginDays <= 0:
		return InvalidInput(op, ErrInvalidRequest, "margin must be positive")
	case math.IsNaN(q.Tolerance) || q.Tolerance <= 0 || q.Tolerance >= 180:
		return InvalidInput(op, ErrInvalidRequest, "tolerance must be in (0, 180), got %g", q.Tolerance)
	case q.Offset <= q.Tolerance || q.Offset >= 360-q.Tolerance:
		// The reference itself would satisfy the tolerance.
		return InvalidInput(op, ErrInvalidRequest, "offset %g is within tolerance %g of the reference longitude", q.Offset, q.Tolerance)
	case q.MaxIterations < 1 || q.MaxIterations > MaxIterationsLimit:
		return InvalidInput(op, ErrInvalidRequest, "max iterations must be in [1, %d], got %d", MaxIterationsLimit, q.MaxIterations)
	}
	if w := q.Window; w != nil {
		if math.IsNaN(w.MinDays) || math.IsNaN(w.MaxDays) || w.MinDays < 0 || w.MinDays >= w.MaxDays {
			return InvalidInput(op, ErrInvalidRequest, "search window min must be >= 0 and less than max (min=%g, max=%g)", w.MinDays, w.MaxDays)
		}
		// Beyond this the residual wraps through ±180° and the sign test
		// on the window ends no longer brackets the crossing.
		if limit := q.searchLimit(); w.MaxDays > limit {
			return InvalidInput(op, ErrInvalidRequest, "search window max %g exceeds %.2f days for offset %g", w.MaxDays, limit, q.Offset)
		}
	}
	return nil
}

// searchLimit is how far back the body travels Offset plus a quarter turn at
// its mean rate.
func (q DesignQuery) searchLimit() float64 {
	return (q.Offset + 90) / q.Rate
}

// DesignResult is the outcome of a prior-crossing search. When Converged is
// false the fields describe the best estimate seen.
type DesignResult struct {
	Reference          TimeInstant
	Found              TimeInstant
	ReferenceLongitude float64
	TargetLongitude    float64
	AchievedLongitude  float64
	// AchievedOffset is the arc actually travelled between Found and Reference.
	AchievedOffset float64
	// Residual is the signed distance of AchievedLongitude from the target.
	Residual   float64
	Iterations int
	Converged  bool
}

// LongitudeFunc returns a body's ecliptic longitude in degrees.
type LongitudeFunc func(t TimeInstant) (float64, error)

// FindPriorCrossing searches backward from q.Reference for the instant at
// which lon equals lon(Reference) - Offset, modulo 360. The residual is
// measured as the signed shortest arc, so the search is continuous across
// 0°/360°. Oracle errors abort the search. An exhausted iteration budget is
// not an error: the best estimate is returned with Converged false.
func FindPriorCrossing(lon LongitudeFunc, q DesignQuery) (DesignResult, error) {
	const op = "find prior crossing"
	q = q.withDefaults()
	if err := q.Validate(); err != nil {
		return DesignResult{}, err
	}

	refLon, err := lon(q.Reference)
	if err != nil {
		return DesignResult{}, Unavailable(op, err)
	}
	refLon = Normalize360(refLon)
	target := Normalize360(refLon - q.Offset)

	s := &searcher{lon: lon, target: target}
	res := DesignResult{
		Reference:          q.Reference,
		ReferenceLongitude: refLon,
		TargetLongitude:    target,
	}

	lo, hi, err := s.bracket(q)
	if err != nil {
		return DesignResult{}, err
	}

	best := lo
	if math.Abs(hi.f) < math.Abs(lo.f) {
		best = hi
	}
	if s.converged(best, q.Tolerance) {
		return s.result(res, best, 0, true), nil
	}

	a, b := lo, hi
	fa, fb := a.f, b.f
	side, run := 0, 0
	for i := 1; i <= q.MaxIterations; i++ {
		c := b.t - fb*(b.t-a.t)/(fb-fa)
		// Three moves on one side means false position is creeping; bisect.
		if run >= 3 || !(c > a.t && c < b.t) {
			c = a.t + (b.t-a.t)/2
		}
		p, err := s.eval(c)
		if err != nil {
			return DesignResult{}, err
		}
		if math.Abs(p.f) < math.Abs(best.f) {
			best = p
		}
		if s.converged(p, q.Tolerance) {
			return s.result(res, p, i, true), nil
		}

		if p.f < 0 {
			a, fa = p, p.f
			if side == -1 {
				fb /= 2
				run++
			} else {
				run = 1
			}
			side = -1
		} else {
			b, fb = p, p.f
			if side == 1 {
				fa /= 2
				run++
			} else {
				run = 1
			}
			side = 1
		}
	}
	return s.result(res, best, q.MaxIterations, false), nil
}

type point struct {
	t   float64
	lon float64
	f   float64
}

type searcher struct {
	lon    LongitudeFunc
	target float64
}

func (s *searcher) eval(jd float64) (point, error) {
	t := TimeInstant{jd: jd}
	l, err := s.lon(t)
	if err == nil && (math.IsNaN(l) || math.IsInf(l, 0)) {
		err = errorf(ErrEphemerisUnavailable, "non-finite longitude at jd %.6f", jd)
	}
	if err != nil {
		return point{}, Unavailable("find prior crossing", err)
	}
	return point{t: jd, lon: Normalize360(l), f: Normalize180(l - s.target)}, nil
}

func (s *searcher) converged(p point, tol float64) bool {
	return WithinTolerance(p.lon, s.target, tol)
}

// bracket returns lo, hi with f(lo) <= 0 <= f(hi) and lo < hi.
func (s *searcher) bracket(q DesignQuery) (point, point, error) {
	const op = "bracket"
	t0 := q.Reference.JulianDayUT()

	if w := q.Window; w != nil {
		lo, err := s.eval(t0 - w.MaxDays)
		if err != nil {
			return point{}, point{}, err
		}
		hi, err := s.eval(t0 - w.MinDays)
		if err != nil {
			return point{}, point{}, err
		}
		if lo.f > 0 || hi.f < 0 {
			return point{}, point{}, &Error{Op: op, Kind: KindBracketNotFound, Err: errorf(ErrBracketNotFound,
				"no sign change in window [%g, %g] days before reference (f=%.6f, %.6f)", w.MinDays, w.MaxDays, lo.f, hi.f)}
		}
		return lo, hi, nil
	}

	// f(t0) equals Normalize180(Offset); past 180° it has wrapped, so start
	// from where the body was about 90° ahead of the target instead.
	upperBack := 0.0
	if q.Offset >= 180 {
		upperBack = (q.Offset - 90) / q.Rate
	}
	hi, err := s.eval(t0 - upperBack)
	if err != nil {
		return point{}, point{}, err
	}
	if hi.f < 0 {
		return point{}, point{}, &Error{Op: op, Kind: KindBracketNotFound, Err: errorf(ErrBracketNotFound,
			"upper bound %.6f has negative residual %.6f", hi.t, hi.f)}
	}

	back := q.Offset/q.Rate + q.MarginDays
	limit := q.searchLimit()
	for {
		lo, err := s.eval(t0 - back)
		if err != nil {
			return point{}, point{}, err
		}
		if lo.f <= 0 {
			return lo, hi, nil
		}
		back += q.MarginDays
		if back > limit {
			return point{}, point{}, &Error{Op: op, Kind: KindBracketNotFound, Err: errorf(ErrBracketNotFound,
				"no sign change within %.2f days before reference", limit)}
		}
	}
}

func (s *searcher) result(res DesignResult, p point, iterations int, converged bool) DesignResult {
	res.Found = TimeInstant{jd: p.t}
	res.Residual = p.f
	res.AchievedLongitude = p.lon
	res.AchievedOffset = Normalize360(res.ReferenceLongitude - res.AchievedLongitude)
	res.Iterations = iterations
	res.Converged = converged
	return res
}
