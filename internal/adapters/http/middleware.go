package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

const (
	headerRequestID  = "X-Request-Id"
	headerAGPLSource = "X-AGPL-Source"
	ctxKeyRequestID  = "request_id"
)

// NewServer builds the echo instance with the middleware chain and routes.
func NewServer(h *Handler, authz ports.Authorizer, corsOrigins []string, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  corsOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, headerRequestID},
		ExposeHeaders: []string{headerRequestID, headerAGPLSource},
	}))

	h.Register(e, authz)
	return e
}

// RequestIDMiddleware ensures every request has a unique X-Request-Id.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set(ctxKeyRequestID, id)
			return next(c)
		}
	}
}

// LoggingMiddleware logs each request with structured fields.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Commit the response so the logged status is the real one.
				c.Error(err)
			}
			logger.Info("request",
				"request_id", c.Get(ctxKeyRequestID),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

// BearerAuthMiddleware requires "Authorization: Bearer <token>" and asks
// authz whether the token may call the API.
func BearerAuthMiddleware(authz ports.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return writeError(c, http.StatusUnauthorized, "unauthorized", "missing authorization header", nil)
			}
			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return writeError(c, http.StatusUnauthorized, "unauthorized", "authorization header must be a bearer token", nil)
			}
			if !authz.Authorize(token) {
				return writeError(c, http.StatusUnauthorized, "unauthorized", "invalid authorization token", nil)
			}
			return next(c)
		}
	}
}

// SourceHeaderMiddleware stamps X-AGPL-Source on every response it wraps.
func SourceHeaderMiddleware(build buildinfo.Info) echo.MiddlewareFunc {
	value := build.SourceHeader()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(headerAGPLSource, value)
			return next(c)
		}
	}
}

// ErrorHandler renders errors that escape handlers (routing misses, panics
// caught by Recover) in the API error envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, code, msg := http.StatusInternalServerError, "internal_error", "internal error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
		switch status {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case http.StatusUnauthorized:
			code = "unauthorized"
		case http.StatusBadRequest:
			code = "bad_request"
		default:
			if status < http.StatusInternalServerError {
				code = "bad_request"
			}
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("unhandled error", "request_id", c.Get(ctxKeyRequestID), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = writeError(c, status, code, msg, nil)
}
