package analytic_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/ephemeris/analytic"
	"github.com/rapaev95/ephemeris-agpl-service/internal/app"
	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

var _ ports.Ephemeris = (*analytic.Oracle)(nil)

// atTT converts a dynamical-time Julian day to the UT instant the oracle takes.
func atTT(jdTT float64) domain.TimeInstant {
	return domain.MustInstant(jdTT - domain.DeltaT(jdTT)/86400)
}

func TestBodyPosition_AllBodiesInRange(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	ctx := context.Background()
	for _, jd := range []float64{2378496.5, 2433282.5, domain.J2000, 2460000.5, 2488069.5} {
		for _, b := range domain.Bodies {
			for _, frame := range []domain.Frame{{}, {TruePosition: true}, {Sidereal: true, Ayanamsa: domain.AyanamsaLahiri}} {
				pos, err := o.BodyPosition(ctx, domain.MustInstant(jd), b, frame)
				require.NoError(t, err, "%s at %v", b, jd)
				assert.GreaterOrEqual(t, pos.Longitude, 0.0)
				assert.Less(t, pos.Longitude, 360.0)
				assert.False(t, math.IsNaN(pos.Latitude))
				assert.Greater(t, pos.Distance, 0.0)
			}
		}
	}
}

func TestBodyPosition_SunAtJ2000(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	pos, err := o.BodyPosition(context.Background(), domain.MustInstant(domain.J2000), domain.Sun, domain.Frame{IncludeSpeed: true})
	require.NoError(t, err)
	assert.InDelta(t, 280.37, pos.Longitude, 0.05)
	assert.InDelta(t, 0.9833, pos.Distance, 0.0005)
	assert.True(t, pos.HasSpeed)
	assert.InDelta(t, 1.019, pos.SpeedLongitude, 0.002)
}

func TestBodyPosition_MoonApparent(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	pos, err := o.BodyPosition(context.Background(), atTT(2448724.5), domain.Moon, domain.Frame{IncludeSpeed: true})
	require.NoError(t, err)
	assert.InDelta(t, 133.167265, pos.Longitude, 0.002)
	assert.InDelta(t, -3.229126, pos.Latitude, 0.001)
	assert.InDelta(t, 368409.7/149597870.7, pos.Distance, 1e-7)
	assert.Greater(t, pos.SpeedLongitude, 11.0)
	assert.Less(t, pos.SpeedLongitude, 16.0)
}

func TestBodyPosition_VenusApparent(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	pos, err := o.BodyPosition(context.Background(), atTT(2448976.5), domain.Venus, domain.Frame{})
	require.NoError(t, err)
	assert.InDelta(t, 313.08102, pos.Longitude, 0.1)
	assert.InDelta(t, -2.08474, pos.Latitude, 0.1)
	assert.InDelta(t, 0.910947, pos.Distance, 0.005)
}

func TestBodyPosition_Heliocentric(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	ctx := context.Background()
	ti := domain.MustInstant(domain.J2000)

	pos, err := o.BodyPosition(ctx, ti, domain.Mars, domain.Frame{Heliocentric: true})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pos.Distance, 1.38)
	assert.LessOrEqual(t, pos.Distance, 1.67)

	_, err = o.BodyPosition(ctx, ti, domain.Moon, domain.Frame{Heliocentric: true})
	assert.ErrorIs(t, err, domain.ErrInvalidBody)
}

func TestBodyPosition_Sidereal(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	ctx := context.Background()
	ti := domain.MustInstant(domain.J2000)

	trop, err := o.BodyPosition(ctx, ti, domain.Sun, domain.Frame{})
	require.NoError(t, err)
	sid, err := o.BodyPosition(ctx, ti, domain.Sun, domain.Frame{Sidereal: true, Ayanamsa: domain.AyanamsaLahiri})
	require.NoError(t, err)
	// Ayanamsa plus the nutation in longitude (about -0.004° at J2000).
	assert.InDelta(t, 23.853, domain.AngleDifference(trop.Longitude, sid.Longitude), 0.005)

	fb, err := o.BodyPosition(ctx, ti, domain.Sun, domain.Frame{Sidereal: true})
	require.NoError(t, err)
	assert.InDelta(t, 24.7403-23.857092, domain.AngleDifference(sid.Longitude, fb.Longitude), 1e-9)
}

func TestBodyPosition_Nodes(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	ctx := context.Background()
	ti := domain.MustInstant(2451000.5)

	mean, err := o.BodyPosition(ctx, ti, domain.MeanNode, domain.Frame{IncludeSpeed: true})
	require.NoError(t, err)
	tn, err := o.BodyPosition(ctx, ti, domain.TrueNode, domain.Frame{})
	require.NoError(t, err)

	assert.Less(t, math.Abs(domain.AngleDifference(tn.Longitude, mean.Longitude)), 2.0)
	assert.InDelta(t, -0.05295, mean.SpeedLongitude, 0.001)
}

func TestBodyPosition_OutsideCoverage(t *testing.T) {
	o := analytic.New(analytic.Config{MinJD: 2415020.5, MaxJD: 2488069.5})
	ctx := context.Background()

	_, err := o.BodyPosition(ctx, domain.MustInstant(2415000), domain.Sun, domain.Frame{})
	assert.ErrorIs(t, err, domain.ErrEphemerisUnavailable)

	_, err = o.HouseCusps(ctx, domain.MustInstant(2500000), domain.GeoLocation{Latitude: 10}, domain.Equal)
	assert.ErrorIs(t, err, domain.ErrEphemerisUnavailable)
}

func TestBodyPosition_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analytic.New(analytic.DefaultConfig()).BodyPosition(ctx, domain.MustInstant(domain.J2000), domain.Sun, domain.Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBodyPosition_Concurrent(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	want, err := o.BodyPosition(context.Background(), domain.MustInstant(domain.J2000), domain.Saturn, domain.Frame{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := o.BodyPosition(context.Background(), domain.MustInstant(domain.J2000), domain.Saturn, domain.Frame{})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestHouseCusps(t *testing.T) {
	o := analytic.New(analytic.DefaultConfig())
	ctx := context.Background()
	ti := domain.MustInstant(2451545.25)
	london := domain.GeoLocation{Latitude: 51.5074, Longitude: -0.1278}

	ch, err := o.HouseCusps(ctx, ti, london, domain.Placidus)
	require.NoError(t, err)
	assert.Equal(t, domain.Placidus, ch.System)
	assert.InDelta(t, 0, domain.AngleDifference(ch.Cusps[0], ch.Ascendant), 1e-9)
	assert.InDelta(t, 0, domain.AngleDifference(ch.Cusps[9], ch.MC), 1e-9)

	// ARMC moves with the observer's longitude.
	east, err := o.HouseCusps(ctx, ti, domain.GeoLocation{Latitude: 51.5074, Longitude: 29.8722}, domain.Placidus)
	require.NoError(t, err)
	assert.InDelta(t, 30, domain.AngleDifference(east.ARMC, ch.ARMC), 1e-9)

	_, err = o.HouseCusps(ctx, ti, domain.GeoLocation{Latitude: 80}, domain.Placidus)
	assert.ErrorIs(t, err, domain.ErrEphemerisUnavailable)
	_, err = o.HouseCusps(ctx, ti, domain.GeoLocation{Latitude: 80}, domain.Regiomontanus)
	assert.NoError(t, err)
}

func TestDesignTime_EndToEnd(t *testing.T) {
	svc := app.NewDesignTimeService(analytic.New(analytic.DefaultConfig()))
	res, err := svc.DesignTime(context.Background(), app.DesignTimeRequest{Reference: domain.MustInstant(domain.J2000)})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 88, res.AchievedOffset, 1e-5)
	assert.Greater(t, res.Found.JulianDayUT(), domain.J2000-95)
	assert.Less(t, res.Found.JulianDayUT(), domain.J2000-85)
	assert.Less(t, math.Abs(res.Residual), domain.DefaultTolerance)
}
