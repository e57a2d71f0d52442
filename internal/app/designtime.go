package app

import (
	"context"

	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

// DesignTimeRequest parameterises the backward search. Zero values take the
// domain defaults.
type DesignTimeRequest struct {
	Reference     domain.TimeInstant
	Body          domain.BodyID
	Offset        float64
	Tolerance     float64
	MaxIterations int
	Window        *domain.SearchWindow
}

// DesignTimeService runs FindPriorCrossing against the oracle's apparent
// geocentric tropical longitude.
type DesignTimeService struct {
	oracle ports.Ephemeris
}

func NewDesignTimeService(oracle ports.Ephemeris) *DesignTimeService {
	return &DesignTimeService{oracle: oracle}
}

// DesignTime returns the search result. When the iteration budget runs out
// the best estimate is returned together with a not_converged error.
func (s *DesignTimeService) DesignTime(ctx context.Context, req DesignTimeRequest) (domain.DesignResult, error) {
	q := domain.NewDesignQuery(req.Reference)
	if req.Body != "" && req.Body != q.Body {
		q.Body = req.Body
		q.Rate = 0
	}
	if req.Offset != 0 {
		q.Offset = req.Offset
	}
	if req.Tolerance != 0 {
		q.Tolerance = req.Tolerance
	}
	if req.MaxIterations != 0 {
		q.MaxIterations = req.MaxIterations
	}
	q.Window = req.Window

	lon := func(t domain.TimeInstant) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		pos, err := s.oracle.BodyPosition(ctx, t, q.Body, domain.Frame{})
		if err != nil {
			return 0, err
		}
		return pos.Longitude, nil
	}

	res, err := domain.FindPriorCrossing(lon, q)
	if err != nil {
		return domain.DesignResult{}, err
	}
	if !res.Converged {
		return res, &domain.Error{Op: "design time", Kind: domain.KindNotConverged, Err: domain.ErrNotConverged}
	}
	return res, nil
}
