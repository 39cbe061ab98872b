package triage

import (
	"context"
	"errors"
	"log/slog"

	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/ports"
)

// ResolveLocation makes a single bounded attempt against the location
// provider. Any failure — absent capability, denial, timeout — yields nil:
// absence of a fix is a normal outcome, never an error to the caller.
//
// The attempt runs in its own goroutine with a buffered result channel, so
// a caller that times out or abandons the lookup leaves nothing blocked.
func (s *Service) ResolveLocation(ctx context.Context) *domaintriage.Coordinates {
	if ctx == nil {
		ctx = context.Background()
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	if s.locator == nil {
		return nil
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.locationTimeout)
	defer cancel()

	type fixResult struct {
		coords domaintriage.Coordinates
		err    error
	}
	resultCh := make(chan fixResult, 1)

	go func() {
		coords, err := s.locator.CurrentFix(attemptCtx)
		resultCh <- fixResult{coords: coords, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			if errors.Is(result.err, ports.ErrLocationUnavailable) {
				logging.Info(logCtx, "location unavailable")
			} else {
				logging.Warn(logCtx, "location lookup failed",
					slog.Any("err", errs.Loggable(result.err)))
			}
			return nil
		}
		coords := result.coords
		return &coords
	case <-attemptCtx.Done():
		logging.Warn(logCtx, "location lookup timed out",
			slog.Duration("timeout", s.locationTimeout))
		return nil
	}
}
