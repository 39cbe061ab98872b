package geo

import (
	"context"
	"errors"

	"fieldtriage/internal/bootstrap/config"
	"fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/ports"
)

// StaticProvider serves an operator-supplied fix from configuration. It
// stands in for real positioning hardware: with no fix configured it behaves
// exactly like an absent capability.
type StaticProvider struct {
	hasFix bool
	fix    triage.Coordinates
}

var _ ports.LocationProvider = (*StaticProvider)(nil)

func NewStaticProvider(cfg config.LocationConfig) *StaticProvider {
	return &StaticProvider{
		hasFix: cfg.HasFix,
		fix:    triage.Coordinates{Lat: cfg.Lat, Lng: cfg.Lng},
	}
}

func (p *StaticProvider) CurrentFix(ctx context.Context) (triage.Coordinates, error) {
	if ctx == nil {
		return triage.Coordinates{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return triage.Coordinates{}, errs.Wrap(err, "check context")
	}

	if !p.hasFix {
		return triage.Coordinates{}, ports.ErrLocationUnavailable
	}
	return p.fix, nil
}
