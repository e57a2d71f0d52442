package http

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rapaev95/ephemeris-agpl-service/internal/app"
	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

// Services groups the application services the handler dispatches to.
type Services struct {
	Positions  *app.PositionService
	Houses     *app.HouseService
	DesignTime *app.DesignTimeService
	// Engine names the oracle in response metadata.
	Engine string
}

type Handler struct {
	svc   Services
	build buildinfo.Info
}

func NewHandler(svc Services, build buildinfo.Info) *Handler {
	return &Handler{svc: svc, build: build}
}

// Register mounts the meta endpoints unauthenticated and the calculation
// endpoints behind the bearer gate.
func (h *Handler) Register(e *echo.Echo, authz ports.Authorizer) {
	e.GET("/health", h.Health)
	e.GET("/v1/version", h.Version)
	e.GET("/v1/source", h.Source)

	calc := []echo.MiddlewareFunc{SourceHeaderMiddleware(h.build), BearerAuthMiddleware(authz)}
	e.POST("/v1/positions", h.Positions, calc...)
	e.POST("/v1/houses", h.Houses, calc...)
	e.POST("/v1/design-time", h.DesignTime, calc...)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

func (h *Handler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, VersionResponse{
		Service:      buildinfo.Service,
		APIVersion:   buildinfo.APIVersion,
		GitCommit:    h.build.Commit,
		BuildTag:     h.build.Tag,
		BuildTimeUTC: h.build.BuildTime,
	})
}

func (h *Handler) Source(c echo.Context) error {
	return c.JSON(http.StatusOK, SourceResponse{
		License:        buildinfo.License,
		Repo:           h.build.RepoURL,
		Tag:            h.build.Tag,
		Commit:         h.build.Commit,
		HowToGetSource: h.build.HowToGetSource(),
	})
}

func (h *Handler) Positions(c echo.Context) error {
	var body PositionsRequest
	if err := c.Bind(&body); err != nil {
		return badBody(c, err)
	}
	instant, err := resolveInstant("jd_ut", body.JDUT, body.Datetime, body.TZ)
	if err != nil {
		return mapError(c, err, nil)
	}

	frame := domain.Frame{IncludeSpeed: body.IncludeSpeed}
	if f := body.Flags; f != nil {
		frame.Sidereal = f.Sidereal
		frame.Heliocentric = f.Heliocentric
		frame.TruePosition = f.TruePosition
		frame.IncludeSpeed = frame.IncludeSpeed || f.IncludeSpeed
		if f.Ayanamsa != nil {
			frame.Ayanamsa = domain.Ayanamsa(*f.Ayanamsa)
		}
	}

	resp, err := h.svc.Positions.Positions(c.Request().Context(), app.PositionRequest{
		Instant: instant,
		Bodies:  body.Bodies,
		Frame:   frame,
	})
	if err != nil {
		return mapError(c, err, map[string]any{"bodies": body.Bodies})
	}

	return c.JSON(http.StatusOK, toPositionsResponse(resp, h.svc.Engine, requestID(c)))
}

func toPositionsResponse(r app.PositionResponse, engine, requestID string) PositionsResponse {
	out := PositionsResponse{
		JDUT:      r.Instant.JulianDayUT(),
		UTC:       formatUTC(r.Instant),
		Positions: make(map[string]float64, len(r.Positions)),
		Bodies:    make([]BodyResponse, len(r.Positions)),
		Meta: PositionsMeta{
			Engine:       engine,
			Sidereal:     r.Frame.Sidereal,
			Heliocentric: r.Frame.Heliocentric,
			TruePosition: r.Frame.TruePosition,
			RequestID:    requestID,
		},
	}
	if r.Frame.Sidereal {
		code := int(r.Frame.Ayanamsa)
		out.Meta.Ayanamsa = &code
		out.Meta.AyanamsaName = r.Frame.Ayanamsa.String()
	}
	for i, bp := range r.Positions {
		p := bp.Position
		br := BodyResponse{
			Body:   string(bp.Body),
			Lon:    p.Longitude,
			LonDMS: domain.ToDMS(p.Longitude),
			Lat:    p.Latitude,
			Dist:   p.Distance,
		}
		if p.HasSpeed {
			speed := p.SpeedLongitude
			br.Speed = &speed
		}
		out.Bodies[i] = br
		out.Positions[string(bp.Body)] = p.Longitude
	}
	return out
}

func (h *Handler) Houses(c echo.Context) error {
	var body HousesRequest
	if err := c.Bind(&body); err != nil {
		return badBody(c, err)
	}
	instant, err := resolveInstant("jd_ut", body.JDUT, body.Datetime, body.TZ)
	if err != nil {
		return mapError(c, err, nil)
	}
	if body.Lat == nil || body.Lon == nil {
		return mapError(c, domain.InvalidInput("houses", domain.ErrInvalidLocation, "lat and lon are required"), nil)
	}
	system := body.HouseSystem
	if system == "" {
		system = domain.Placidus.String()
	}

	ch, err := h.svc.Houses.Houses(c.Request().Context(), app.HouseRequest{
		Instant:  instant,
		Location: domain.GeoLocation{Latitude: *body.Lat, Longitude: *body.Lon, Altitude: body.Alt},
		System:   system,
	})
	if err != nil {
		return mapError(c, err, map[string]any{"house_system": system, "lat": *body.Lat, "lon": *body.Lon})
	}

	// Index 0 is unused so cusps[n] is house n.
	cusps := make([]float64, 13)
	copy(cusps[1:], ch.Cusps[:])

	return c.JSON(http.StatusOK, HousesResponse{
		JDUT:            instant.JulianDayUT(),
		HouseSystem:     ch.System.String(),
		HouseSystemName: ch.System.Name(),
		Cusps:           cusps,
		Angles: AnglesResp{
			Asc:       ch.Ascendant,
			MC:        ch.MC,
			ARMC:      ch.ARMC,
			EastPoint: ch.EastPoint,
		},
		Meta: ResponseMeta{Engine: h.svc.Engine, RequestID: requestID(c)},
	})
}

func (h *Handler) DesignTime(c echo.Context) error {
	const op = "design time"
	var body DesignTimeRequest
	if err := c.Bind(&body); err != nil {
		return badBody(c, err)
	}
	instant, err := resolveInstant("birth_jd_ut", body.BirthJDUT, body.BirthDatetime, body.TZ)
	if err != nil {
		return mapError(c, err, nil)
	}

	req := app.DesignTimeRequest{Reference: instant}
	if v := body.SunOffsetDeg; v != nil {
		if !(*v > 0 && *v < 360) {
			return mapError(c, domain.InvalidInput(op, domain.ErrInvalidRequest, "sun_offset_deg must be in (0, 360)"), nil)
		}
		req.Offset = *v
	}
	if v := body.ToleranceDeg; v != nil {
		if !(*v > 0) {
			return mapError(c, domain.InvalidInput(op, domain.ErrInvalidRequest, "tolerance_deg must be positive"), nil)
		}
		req.Tolerance = *v
	}
	if v := body.MaxIter; v != nil {
		if *v < 1 {
			return mapError(c, domain.InvalidInput(op, domain.ErrInvalidRequest, "max_iter must be at least 1"), nil)
		}
		req.MaxIterations = *v
	}
	if w := body.SearchWindowDays; w != nil {
		req.Window = &domain.SearchWindow{MinDays: w.Min, MaxDays: w.Max}
	}

	res, err := h.svc.DesignTime.DesignTime(c.Request().Context(), req)
	if err != nil {
		var details map[string]any
		if domain.IsKind(err, domain.KindNotConverged) {
			details = map[string]any{
				"design_jd_ut":     res.Found.JulianDayUT(),
				"target_sun_lon":   res.TargetLongitude,
				"achieved_sun_lon": res.AchievedLongitude,
				"delta_deg":        math.Abs(res.Residual),
				"iterations":       res.Iterations,
				"tolerance_deg":    orDefault(req.Tolerance, domain.DefaultTolerance),
			}
		}
		return mapError(c, err, details)
	}

	return c.JSON(http.StatusOK, DesignTimeResponse{
		BirthJDUT:         res.Reference.JulianDayUT(),
		BirthUTC:          formatUTC(res.Reference),
		DesignJDUT:        res.Found.JulianDayUT(),
		DesignUTC:         formatUTC(res.Found),
		BirthSunLon:       res.ReferenceLongitude,
		TargetSunLon:      res.TargetLongitude,
		AchievedSunLon:    res.AchievedLongitude,
		AchievedOffsetDeg: res.AchievedOffset,
		DeltaDeg:          math.Abs(res.Residual),
		Iterations:        res.Iterations,
		Converged:         res.Converged,
		Meta:              ResponseMeta{Engine: h.svc.Engine, RequestID: requestID(c)},
	})
}

// resolveInstant accepts either a Julian day or a civil datetime, not both.
func resolveInstant(field string, jd *float64, datetime, tz string) (domain.TimeInstant, error) {
	switch {
	case jd != nil && datetime != "":
		return domain.TimeInstant{}, domain.InvalidInput("instant", domain.ErrInvalidTime, "set either %s or a datetime, not both", field)
	case jd != nil:
		return domain.InstantFromJulianDay(*jd)
	case datetime != "":
		return domain.ParseCivilTime(datetime, tz)
	default:
		return domain.TimeInstant{}, domain.InvalidInput("instant", domain.ErrInvalidTime, "%s or a datetime is required", field)
	}
}

func formatUTC(t domain.TimeInstant) string {
	return t.Time().Format(time.RFC3339Nano)
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func requestID(c echo.Context) string {
	id, _ := c.Get(ctxKeyRequestID).(string)
	return id
}

func badBody(c echo.Context, err error) error {
	msg := "request body must be valid JSON"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	}
	return writeError(c, http.StatusBadRequest, "bad_request", msg, nil)
}

func writeError(c echo.Context, status int, code, message string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return c.JSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func mapError(c echo.Context, err error, details map[string]any) error {
	rid := requestID(c)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// Checked first: a remote oracle wraps an expired deadline as upstream.
		slog.Warn("request aborted", "request_id", rid, "error", err)
		return writeError(c, http.StatusGatewayTimeout, "timeout", "calculation did not finish in time", nil)
	case errors.Is(err, domain.ErrUpstreamOracle):
		slog.Error("upstream ephemeris failure", "request_id", rid, "error", err)
		return writeError(c, http.StatusBadGateway, "upstream_error", "upstream ephemeris failure", nil)
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return writeError(c, http.StatusBadRequest, invalidInputCode(err), err.Error(), details)
	case domain.KindEphemerisUnavailable:
		slog.Warn("ephemeris unavailable", "request_id", rid, "error", err)
		return writeError(c, http.StatusUnprocessableEntity, "ephemeris_unavailable", err.Error(), details)
	case domain.KindBracketNotFound:
		return writeError(c, http.StatusUnprocessableEntity, "bracket_not_found", err.Error(), details)
	case domain.KindNotConverged:
		return writeError(c, http.StatusUnprocessableEntity, "no_convergence", "failed to find design time within tolerance", details)
	default:
		slog.Error("internal error", "request_id", rid, "error", err)
		return writeError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func invalidInputCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidBody):
		return "invalid_body"
	case errors.Is(err, domain.ErrUnsupportedHouseSystem):
		return "invalid_house_system"
	case errors.Is(err, domain.ErrInvalidLocation):
		return "invalid_location"
	default:
		return "bad_request"
	}
}
