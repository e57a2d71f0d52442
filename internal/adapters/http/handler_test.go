package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/auth"
	httpadapter "github.com/rapaev95/ephemeris-agpl-service/internal/adapters/http"
	"github.com/rapaev95/ephemeris-agpl-service/internal/app"
	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

const token = "secret-key"

// fakeOracle places every body on a linear track unless lonAt overrides it.
type fakeOracle struct {
	lonAt func(jd float64) float64
	err   error
}

func (f *fakeOracle) BodyPosition(_ context.Context, t domain.TimeInstant, b domain.BodyID, _ domain.Frame) (domain.EclipticPosition, error) {
	if f.err != nil {
		return domain.EclipticPosition{}, f.err
	}
	jd := t.JulianDayUT()
	if f.lonAt != nil {
		return domain.EclipticPosition{Longitude: f.lonAt(jd), Distance: 1, SpeedLongitude: 0.98, HasSpeed: true}, nil
	}
	base := map[domain.BodyID]float64{domain.Sun: 280.5, domain.Moon: 10.25, domain.Mars: 359.75}[b]
	return domain.EclipticPosition{
		Longitude:      base + domain.SunMeanMotion*(jd-domain.J2000),
		Latitude:       1.5,
		Distance:       0.98,
		SpeedLongitude: 1.01,
		HasSpeed:       true,
	}, nil
}

func (f *fakeOracle) HouseCusps(_ context.Context, _ domain.TimeInstant, _ domain.GeoLocation, sys domain.HouseSystem) (domain.ChartHouses, error) {
	if f.err != nil {
		return domain.ChartHouses{}, f.err
	}
	var ch domain.ChartHouses
	for i := range ch.Cusps {
		ch.Cusps[i] = 100 + float64(i)*30.123456
	}
	ch.Ascendant, ch.MC, ch.ARMC, ch.EastPoint = 100, 10.5, 12.25, 102
	ch.System = sys
	return ch, nil
}

func newTestServer(oracle *fakeOracle) http.Handler {
	build := buildinfo.Info{Commit: "abc123", Tag: "v0.3.0", BuildTime: "2026-01-01T00:00:00Z", RepoURL: "https://example.com/repo"}
	h := httpadapter.NewHandler(httpadapter.Services{
		Positions:  app.NewPositionService(oracle),
		Houses:     app.NewHouseService(oracle),
		DesignTime: app.NewDesignTimeService(oracle),
		Engine:     "fake",
	}, build)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return httpadapter.NewServer(h, auth.NewKeySet([]string{token}), []string{"*"}, logger)
}

func do(t *testing.T, srv http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpadapter.ErrorBody {
	t.Helper()
	var env httpadapter.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error.Details)
	return env.Error
}

func TestMetaEndpoints_NoAuth(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	rec := do(t, srv, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/v1/version", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var v httpadapter.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, buildinfo.Service, v.Service)
	assert.Equal(t, "v1", v.APIVersion)
	assert.Equal(t, "abc123", v.GitCommit)
	assert.Equal(t, "v0.3.0", v.BuildTag)

	rec = do(t, srv, http.MethodGet, "/v1/source", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var s httpadapter.SourceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "AGPL-3.0", s.License)
	assert.Equal(t, "https://example.com/repo", s.Repo)
	assert.Contains(t, s.HowToGetSource, "abc123")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	rec := do(t, srv, http.MethodGet, "/health", "", false)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "given-id")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get("X-Request-Id"))
}

func TestAuth(t *testing.T) {
	srv := newTestServer(&fakeOracle{})
	body := `{"jd_ut": 2451545.0, "bodies": ["Sun"]}`

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong token", header: "Bearer nope"},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "empty bearer", header: "Bearer "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/positions", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
		})
	}

	rec := do(t, srv, http.MethodPost, "/v1/positions", body, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPositions_Success(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	rec := do(t, srv, http.MethodPost, "/v1/positions", `{"jd_ut": 2451545.0, "bodies": ["Mars", "Sun", "Mars", "Moon"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://example.com/repo@v0.3.0", rec.Header().Get("X-AGPL-Source"))

	var resp httpadapter.PositionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2451545.0, resp.JDUT)
	assert.Equal(t, "2000-01-01T12:00:00Z", resp.UTC)
	require.Len(t, resp.Bodies, 3)
	assert.Equal(t, "Mars", resp.Bodies[0].Body)
	assert.Equal(t, "Sun", resp.Bodies[1].Body)
	assert.Equal(t, "Moon", resp.Bodies[2].Body)
	assert.InDelta(t, 359.75, resp.Positions["Mars"], 1e-9)
	assert.InDelta(t, 280.5, resp.Bodies[1].Lon, 1e-9)
	assert.Equal(t, domain.DMS{Degrees: 280, Minutes: 30}, resp.Bodies[1].LonDMS)
	assert.Nil(t, resp.Bodies[0].Speed)
	assert.Equal(t, "fake", resp.Meta.Engine)
	assert.False(t, resp.Meta.Sidereal)
	assert.Nil(t, resp.Meta.Ayanamsa)
	assert.NotEmpty(t, resp.Meta.RequestID)
}

func TestPositions_Flags(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	body := `{"jd_ut": 2451545.0, "bodies": ["Sun"], "flags": {"sidereal": true, "ayanamsa": 1, "include_speed": true}}`
	rec := do(t, srv, http.MethodPost, "/v1/positions", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp httpadapter.PositionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Bodies[0].Speed)
	assert.InDelta(t, 1.01, *resp.Bodies[0].Speed, 1e-12)
	assert.True(t, resp.Meta.Sidereal)
	require.NotNil(t, resp.Meta.Ayanamsa)
	assert.Equal(t, 1, *resp.Meta.Ayanamsa)
	assert.Equal(t, "Lahiri", resp.Meta.AyanamsaName)

	// The top-level include_speed is honoured on its own.
	rec = do(t, srv, http.MethodPost, "/v1/positions", `{"jd_ut": 2451545.0, "bodies": ["Sun"], "include_speed": true}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Bodies[0].Speed)
}

func TestPositions_Datetime(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	body := `{"datetime": "2000-01-01 15:00", "tz": "Europe/Moscow", "bodies": ["Sun"]}`
	rec := do(t, srv, http.MethodPost, "/v1/positions", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp httpadapter.PositionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 2451545.0, resp.JDUT, 1e-6)
}

func TestPositions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
		body   string
		status int
		code   string
	}{
		{name: "unknown body", body: `{"jd_ut": 2451545, "bodies": ["Chiron"]}`, status: 400, code: "invalid_body"},
		{name: "empty bodies", body: `{"jd_ut": 2451545, "bodies": []}`, status: 400, code: "bad_request"},
		{name: "no time", body: `{"bodies": ["Sun"]}`, status: 400, code: "bad_request"},
		{name: "both times", body: `{"jd_ut": 2451545, "datetime": "2000-01-01T12:00:00Z", "bodies": ["Sun"]}`, status: 400, code: "bad_request"},
		{name: "negative jd", body: `{"jd_ut": -1, "bodies": ["Sun"]}`, status: 400, code: "bad_request"},
		{name: "datetime without zone", body: `{"datetime": "2000-01-01 12:00", "bodies": ["Sun"]}`, status: 400, code: "bad_request"},
		{name: "malformed json", body: `{"jd_ut": `, status: 400, code: "bad_request"},
		{name: "heliocentric moon", body: `{"jd_ut": 2451545, "bodies": ["Moon"], "flags": {"heliocentric": true}}`, status: 400, code: "invalid_body"},
		{name: "unknown ayanamsa", body: `{"jd_ut": 2451545, "bodies": ["Sun"], "flags": {"sidereal": true, "ayanamsa": 99}}`, status: 400, code: "bad_request"},
		{
			name:   "ephemeris unavailable",
			oracle: &fakeOracle{err: fmt.Errorf("%w: outside coverage", domain.ErrEphemerisUnavailable)},
			body:   `{"jd_ut": 2451545, "bodies": ["Sun"]}`,
			status: 422, code: "ephemeris_unavailable",
		},
		{
			name:   "upstream failure",
			oracle: &fakeOracle{err: fmt.Errorf("%w: connection refused", domain.ErrUpstreamOracle)},
			body:   `{"jd_ut": 2451545, "bodies": ["Sun"]}`,
			status: 502, code: "upstream_error",
		},
		{
			name:   "unexpected oracle error",
			oracle: &fakeOracle{err: errors.New("disk on fire")},
			body:   `{"jd_ut": 2451545, "bodies": ["Sun"]}`,
			status: 422, code: "ephemeris_unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := tt.oracle
			if oracle == nil {
				oracle = &fakeOracle{}
			}
			rec := do(t, newTestServer(oracle), http.MethodPost, "/v1/positions", tt.body, true)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHouses(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	rec := do(t, srv, http.MethodPost, "/v1/houses", `{"jd_ut": 2451545.0, "lat": 55.75, "lon": 37.62}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-AGPL-Source"))

	var resp httpadapter.HousesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "P", resp.HouseSystem)
	assert.Equal(t, "Placidus", resp.HouseSystemName)
	require.Len(t, resp.Cusps, 13)
	assert.Equal(t, 0.0, resp.Cusps[0])
	for i := 1; i <= 12; i++ {
		assert.InDelta(t, domain.Normalize360(100+float64(i-1)*30.123456), resp.Cusps[i], 1e-4, "cusp %d", i)
	}
	assert.InDelta(t, 100, resp.Angles.Asc, 1e-9)
	assert.InDelta(t, 10.5, resp.Angles.MC, 1e-9)
	assert.InDelta(t, 12.25, resp.Angles.ARMC, 1e-9)
	assert.InDelta(t, 102, resp.Angles.EastPoint, 1e-9)

	rec = do(t, srv, http.MethodPost, "/v1/houses", `{"jd_ut": 2451545.0, "lat": 0, "lon": 0, "house_system": "L"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B", resp.HouseSystem)
}

func TestHouses_Errors(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
		body   string
		status int
		code   string
	}{
		{name: "unknown system", body: `{"jd_ut": 2451545, "lat": 10, "lon": 10, "house_system": "Q"}`, status: 400, code: "invalid_house_system"},
		{name: "lowercase system", body: `{"jd_ut": 2451545, "lat": 10, "lon": 10, "house_system": "p"}`, status: 400, code: "invalid_house_system"},
		{name: "latitude out of range", body: `{"jd_ut": 2451545, "lat": 91, "lon": 10}`, status: 400, code: "invalid_location"},
		{name: "longitude out of range", body: `{"jd_ut": 2451545, "lat": 10, "lon": 181}`, status: 400, code: "invalid_location"},
		{name: "missing latitude", body: `{"jd_ut": 2451545, "lon": 10}`, status: 400, code: "invalid_location"},
		{
			name:   "polar latitude",
			oracle: &fakeOracle{err: fmt.Errorf("%w: Placidus undefined at latitude 80", domain.ErrEphemerisUnavailable)},
			body:   `{"jd_ut": 2451545, "lat": 80, "lon": 10}`,
			status: 422, code: "ephemeris_unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := tt.oracle
			if oracle == nil {
				oracle = &fakeOracle{}
			}
			rec := do(t, newTestServer(oracle), http.MethodPost, "/v1/houses", tt.body, true)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestDesignTime_Success(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	rec := do(t, srv, http.MethodPost, "/v1/design-time", `{"birth_jd_ut": 2451545.0}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-AGPL-Source"))

	var resp httpadapter.DesignTimeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Converged)
	assert.Equal(t, 2451545.0, resp.BirthJDUT)
	assert.InDelta(t, 2451545.0-88/domain.SunMeanMotion, resp.DesignJDUT, 2e-5)
	assert.InDelta(t, 192.5, resp.TargetSunLon, 1e-9)
	assert.InDelta(t, 88, resp.AchievedOffsetDeg, 1e-4)
	assert.Less(t, resp.DeltaDeg, domain.DefaultTolerance)
	assert.NotEmpty(t, resp.DesignUTC)
	assert.Equal(t, "fake", resp.Meta.Engine)
}

func TestDesignTime_Window(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	body := `{"birth_jd_ut": 2451545.0, "sun_offset_deg": 88, "search_window_days": {"min": 70, "max": 110}, "tolerance_deg": 0.01, "max_iter": 80}`
	rec := do(t, srv, http.MethodPost, "/v1/design-time", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp httpadapter.DesignTimeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.LessOrEqual(t, resp.DeltaDeg, 0.01)
}

func TestDesignTime_NoConvergence(t *testing.T) {
	curved := &fakeOracle{lonAt: func(jd float64) float64 {
		d := jd - domain.J2000
		return 100 + 0.9856*d + 1.9*math.Sin(d*2*math.Pi/365.25)
	}}
	srv := newTestServer(curved)

	rec := do(t, srv, http.MethodPost, "/v1/design-time", `{"birth_jd_ut": 2451545.0, "tolerance_deg": 1e-12, "max_iter": 1}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	e := decodeError(t, rec)
	assert.Equal(t, "no_convergence", e.Code)
	assert.EqualValues(t, 1, e.Details["iterations"])
	assert.Contains(t, e.Details, "design_jd_ut")
	assert.Contains(t, e.Details, "delta_deg")
}

func TestDesignTime_Errors(t *testing.T) {
	stationary := &fakeOracle{lonAt: func(float64) float64 { return 42 }}
	tests := []struct {
		name   string
		oracle *fakeOracle
		body   string
		status int
		code   string
	}{
		{name: "zero offset", body: `{"birth_jd_ut": 2451545, "sun_offset_deg": 0}`, status: 400, code: "bad_request"},
		{name: "negative tolerance", body: `{"birth_jd_ut": 2451545, "tolerance_deg": -0.1}`, status: 400, code: "bad_request"},
		{name: "zero iterations", body: `{"birth_jd_ut": 2451545, "max_iter": 0}`, status: 400, code: "bad_request"},
		{name: "inverted window", body: `{"birth_jd_ut": 2451545, "search_window_days": {"min": 110, "max": 70}}`, status: 400, code: "bad_request"},
		{name: "missing birth time", body: `{}`, status: 400, code: "bad_request"},
		{name: "no bracket", oracle: stationary, body: `{"birth_jd_ut": 2451545}`, status: 422, code: "bracket_not_found"},
		{name: "window without crossing", body: `{"birth_jd_ut": 2451545, "search_window_days": {"min": 1, "max": 2}}`, status: 422, code: "bracket_not_found"},
		{name: "window past the wrap", body: `{"birth_jd_ut": 2451545, "search_window_days": {"min": 0, "max": 280}}`, status: 400, code: "bad_request"},
		{name: "offset inside tolerance", body: `{"birth_jd_ut": 2451545, "sun_offset_deg": 1e-6}`, status: 400, code: "bad_request"},
		{
			name:   "upstream timeout",
			oracle: &fakeOracle{err: fmt.Errorf("%w: http call: %w", domain.ErrUpstreamOracle, context.DeadlineExceeded)},
			body:   `{"birth_jd_ut": 2451545}`,
			status: 504, code: "timeout",
		},
		{
			name:   "upstream failure",
			oracle: &fakeOracle{err: fmt.Errorf("%w: status 500", domain.ErrUpstreamOracle)},
			body:   `{"birth_jd_ut": 2451545}`,
			status: 502, code: "upstream_error",
		},
		{
			name:   "oracle failure",
			oracle: &fakeOracle{err: fmt.Errorf("%w: file missing", domain.ErrEphemerisUnavailable)},
			body:   `{"birth_jd_ut": 2451545}`,
			status: 422, code: "ephemeris_unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := tt.oracle
			if oracle == nil {
				oracle = &fakeOracle{}
			}
			rec := do(t, newTestServer(oracle), http.MethodPost, "/v1/design-time", tt.body, true)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(&fakeOracle{}), http.MethodGet, "/v1/nope", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&fakeOracle{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/positions", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
