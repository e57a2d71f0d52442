package http

import "github.com/rapaev95/ephemeris-agpl-service/internal/domain"

// PositionsRequest is the JSON body of POST /v1/positions. Exactly one of
// jd_ut and datetime must be set.
type PositionsRequest struct {
	JDUT         *float64        `json:"jd_ut"`
	Datetime     string          `json:"datetime"`
	TZ           string          `json:"tz"`
	Bodies       []string        `json:"bodies"`
	Flags        *PositionsFlags `json:"flags"`
	IncludeSpeed bool            `json:"include_speed"`
}

type PositionsFlags struct {
	Sidereal     bool `json:"sidereal"`
	Ayanamsa     *int `json:"ayanamsa"`
	IncludeSpeed bool `json:"include_speed"`
	Heliocentric bool `json:"heliocentric"`
	TruePosition bool `json:"true_position"`
}

type PositionsResponse struct {
	JDUT      float64            `json:"jd_ut"`
	UTC       string             `json:"utc"`
	Positions map[string]float64 `json:"positions"`
	Bodies    []BodyResponse     `json:"bodies"`
	Meta      PositionsMeta      `json:"meta"`
}

type BodyResponse struct {
	Body   string     `json:"body"`
	Lon    float64    `json:"lon"`
	LonDMS domain.DMS `json:"lon_dms"`
	Lat    float64    `json:"lat"`
	Dist   float64    `json:"dist"`
	Speed  *float64   `json:"speed,omitempty"`
}

type PositionsMeta struct {
	Engine       string `json:"engine"`
	Sidereal     bool   `json:"sidereal"`
	Ayanamsa     *int   `json:"ayanamsa,omitempty"`
	AyanamsaName string `json:"ayanamsa_name,omitempty"`
	Heliocentric bool   `json:"heliocentric"`
	TruePosition bool   `json:"true_position"`
	RequestID    string `json:"request_id"`
}

// HousesRequest is the JSON body of POST /v1/houses.
type HousesRequest struct {
	JDUT        *float64 `json:"jd_ut"`
	Datetime    string   `json:"datetime"`
	TZ          string   `json:"tz"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Alt         float64  `json:"alt"`
	HouseSystem string   `json:"house_system"`
}

type HousesResponse struct {
	JDUT            float64      `json:"jd_ut"`
	HouseSystem     string       `json:"house_system"`
	HouseSystemName string       `json:"house_system_name"`
	Cusps           []float64    `json:"cusps"`
	Angles          AnglesResp   `json:"angles"`
	Meta            ResponseMeta `json:"meta"`
}

type AnglesResp struct {
	Asc       float64 `json:"asc"`
	MC        float64 `json:"mc"`
	ARMC      float64 `json:"armc"`
	EastPoint float64 `json:"east_point"`
}

// DesignTimeRequest is the JSON body of POST /v1/design-time. Omitted
// numeric fields take the search defaults.
type DesignTimeRequest struct {
	BirthJDUT        *float64          `json:"birth_jd_ut"`
	BirthDatetime    string            `json:"birth_datetime"`
	TZ               string            `json:"tz"`
	SunOffsetDeg     *float64          `json:"sun_offset_deg"`
	SearchWindowDays *SearchWindowDays `json:"search_window_days"`
	ToleranceDeg     *float64          `json:"tolerance_deg"`
	MaxIter          *int              `json:"max_iter"`
}

type SearchWindowDays struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type DesignTimeResponse struct {
	BirthJDUT         float64      `json:"birth_jd_ut"`
	BirthUTC          string       `json:"birth_utc"`
	DesignJDUT        float64      `json:"design_jd_ut"`
	DesignUTC         string       `json:"design_utc"`
	BirthSunLon       float64      `json:"birth_sun_lon"`
	TargetSunLon      float64      `json:"target_sun_lon"`
	AchievedSunLon    float64      `json:"achieved_sun_lon"`
	AchievedOffsetDeg float64      `json:"achieved_offset_deg"`
	DeltaDeg          float64      `json:"delta_deg"`
	Iterations        int          `json:"iterations"`
	Converged         bool         `json:"converged"`
	Meta              ResponseMeta `json:"meta"`
}

type ResponseMeta struct {
	Engine    string `json:"engine"`
	RequestID string `json:"request_id"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type VersionResponse struct {
	Service      string `json:"service"`
	APIVersion   string `json:"api_version"`
	GitCommit    string `json:"git_commit"`
	BuildTag     string `json:"build_tag"`
	BuildTimeUTC string `json:"build_time_utc"`
}

type SourceResponse struct {
	License        string `json:"license"`
	Repo           string `json:"repo"`
	Tag            string `json:"tag"`
	Commit         string `json:"commit"`
	HowToGetSource string `json:"how_to_get_source"`
}

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
