// Package ephemeris holds oracle wrappers shared by the engine adapters.
package ephemeris

import (
	"context"
	"sync"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

// Serialized funnels every call to an oracle through one mutex, for engines
// that keep global state between calls.
type Serialized struct {
	mu    sync.Mutex
	inner ports.Ephemeris
}

func NewSerialized(inner ports.Ephemeris) *Serialized {
	return &Serialized{inner: inner}
}

func (s *Serialized) BodyPosition(ctx context.Context, t domain.TimeInstant, body domain.BodyID, frame domain.Frame) (domain.EclipticPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.BodyPosition(ctx, t, body, frame)
}

func (s *Serialized) HouseCusps(ctx context.Context, t domain.TimeInstant, loc domain.GeoLocation, system domain.HouseSystem) (domain.ChartHouses, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.HouseCusps(ctx, t, loc, system)
}

// EngineName reports the wrapped engine's name.
func (s *Serialized) EngineName() string {
	return EngineName(s.inner)
}

// EngineName returns the engine name of o, or "unknown".
func EngineName(o ports.Ephemeris) string {
	if n, ok := o.(ports.EngineNamer); ok {
		return n.EngineName()
	}
	return "unknown"
}
