package ports

import (
	"context"
	"errors"

	"fieldtriage/internal/domain/triage"
)

// ErrLocationUnavailable reports that no fix could be produced (capability
// absent, permission denied, or no known position). Callers treat it as a
// normal outcome, not a failure.
var ErrLocationUnavailable = errors.New("location unavailable")

// LocationProvider is the device geolocation capability. A single call makes
// a single low-accuracy attempt; cancellation of ctx abandons the attempt.
type LocationProvider interface {
	CurrentFix(ctx context.Context) (triage.Coordinates, error)
}
