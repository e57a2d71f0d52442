// Package remote implements ports.Ephemeris by calling another deployment
// of this API, typically one backed by a full numerical ephemeris.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

const EngineName = "remote"

// Client implements ports.Ephemeris over the /v1/positions and /v1/houses
// endpoints of an upstream service.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

func (c *Client) EngineName() string { return EngineName }

type positionsFlags struct {
	Sidereal     bool `json:"sidereal"`
	Ayanamsa     *int `json:"ayanamsa,omitempty"`
	IncludeSpeed bool `json:"include_speed"`
	Heliocentric bool `json:"heliocentric"`
	TruePosition bool `json:"true_position"`
}

type positionsRequest struct {
	JDUT   float64        `json:"jd_ut"`
	Bodies []string       `json:"bodies"`
	Flags  positionsFlags `json:"flags"`
}

type positionsResponse struct {
	Positions map[string]float64 `json:"positions"`
	Bodies    []struct {
		Body  string   `json:"body"`
		Lon   float64  `json:"lon"`
		Lat   float64  `json:"lat"`
		Dist  float64  `json:"dist"`
		Speed *float64 `json:"speed"`
	} `json:"bodies"`
}

type housesRequest struct {
	JDUT        float64 `json:"jd_ut"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Alt         float64 `json:"alt"`
	HouseSystem string  `json:"house_system"`
}

type housesResponse struct {
	Cusps  []float64 `json:"cusps"`
	Angles struct {
		Asc       float64  `json:"asc"`
		MC        float64  `json:"mc"`
		ARMC      *float64 `json:"armc"`
		EastPoint *float64 `json:"east_point"`
	} `json:"angles"`
}

// errorEnvelope accepts both {"error": {...}} and {"detail": {"error": {...}}}.
type errorEnvelope struct {
	Error  *errorBody `json:"error"`
	Detail *struct {
		Error *errorBody `json:"error"`
	} `json:"detail"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) BodyPosition(ctx context.Context, t domain.TimeInstant, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error) {
	const op = "remote positions"

	req := positionsRequest{
		JDUT:   t.JulianDayUT(),
		Bodies: []string{string(body)},
		Flags: positionsFlags{
			Sidereal:     frame.Sidereal,
			IncludeSpeed: frame.IncludeSpeed,
			Heliocentric: frame.Heliocentric,
			TruePosition: frame.TruePosition,
		},
	}
	if frame.Sidereal {
		code := int(frame.Ayanamsa)
		req.Flags.Ayanamsa = &code
	}

	var resp positionsResponse
	if err := c.post(ctx, op, "/v1/positions", req, &resp); err != nil {
		return domain.EclipticPosition{}, err
	}

	for _, b := range resp.Bodies {
		if b.Body != string(body) {
			continue
		}
		pos := domain.EclipticPosition{Longitude: b.Lon, Latitude: b.Lat, Distance: b.Dist}
		if b.Speed != nil {
			pos.SpeedLongitude, pos.HasSpeed = *b.Speed, true
		}
		return pos, nil
	}
	// Older deployments only return the longitude map.
	if lon, ok := resp.Positions[string(body)]; ok {
		return domain.EclipticPosition{Longitude: lon}, nil
	}
	return domain.EclipticPosition{}, fmt.Errorf("%w: %s missing from upstream response", domain.ErrUpstreamOracle, body)
}

func (c *Client) HouseCusps(ctx context.Context, t domain.TimeInstant, loc domain.GeoLocation, system domain.HouseSystem) (domain.ChartHouses, error) {
	const op = "remote houses"

	req := housesRequest{
		JDUT:        t.JulianDayUT(),
		Lat:         loc.Latitude,
		Lon:         loc.Longitude,
		Alt:         loc.Altitude,
		HouseSystem: system.String(),
	}
	var resp housesResponse
	if err := c.post(ctx, op, "/v1/houses", req, &resp); err != nil {
		return domain.ChartHouses{}, err
	}

	cusps := resp.Cusps
	if len(cusps) == 13 {
		cusps = cusps[1:]
	}
	if len(cusps) != 12 {
		return domain.ChartHouses{}, fmt.Errorf("%w: expected 12 or 13 cusps, got %d", domain.ErrUpstreamOracle, len(resp.Cusps))
	}

	ch := domain.ChartHouses{System: system, Ascendant: resp.Angles.Asc, MC: resp.Angles.MC}
	copy(ch.Cusps[:], cusps)
	if resp.Angles.ARMC != nil {
		ch.ARMC = *resp.Angles.ARMC
	}
	if resp.Angles.EastPoint != nil {
		ch.EastPoint = *resp.Angles.EastPoint
	}
	return ch, nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "upstream ephemeris call failed", "path", path, "error", err)
		return fmt.Errorf("%w: http call: %w", domain.ErrUpstreamOracle, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrUpstreamOracle, err)
	}

	if resp.StatusCode != http.StatusOK {
		err := statusError(op, resp.StatusCode, respBody)
		c.logger.WarnContext(ctx, "upstream ephemeris rejected request", "path", path, "status", resp.StatusCode, "error", err)
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrUpstreamOracle, err)
	}
	return nil
}

// statusError maps an upstream error response onto the local error kinds so
// a remote rejection reads the same as a local one.
func statusError(op string, status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	e := env.Error
	if e == nil && env.Detail != nil {
		e = env.Detail.Error
	}
	if e == nil {
		e = &errorBody{Message: strings.TrimSpace(string(body))}
	}

	switch {
	case status == http.StatusBadRequest:
		return domain.InvalidInput(op, invalidInputSentinel(e.Code), "%s", e.Message)
	case status == http.StatusUnprocessableEntity && e.Code == "ephemeris_unavailable":
		return fmt.Errorf("%w: %s", domain.ErrEphemerisUnavailable, e.Message)
	default:
		return fmt.Errorf("%w: upstream status %d: %s", domain.ErrUpstreamOracle, status, e.Message)
	}
}

func invalidInputSentinel(code string) error {
	switch code {
	case "invalid_body", "unsupported_body":
		return domain.ErrInvalidBody
	case "invalid_house_system":
		return domain.ErrUnsupportedHouseSystem
	case "invalid_location":
		return domain.ErrInvalidLocation
	default:
		return domain.ErrInvalidRequest
	}
}
