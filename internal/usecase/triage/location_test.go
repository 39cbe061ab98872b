package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/ports"
)

func TestResolveLocationReturnsFix(t *testing.T) {
	eng := newTestEngine(t, &fakeLocator{coords: domaintriage.Coordinates{Lat: 31.5, Lng: 34.47}})

	coords := eng.svc.ResolveLocation(context.Background())
	if coords == nil {
		t.Fatalf("ResolveLocation() = nil, want fix")
	}
	if coords.Lat != 31.5 || coords.Lng != 34.47 {
		t.Fatalf("ResolveLocation() = %#v", coords)
	}
}

func TestResolveLocationUnavailable(t *testing.T) {
	eng := newTestEngine(t, &fakeLocator{err: ports.ErrLocationUnavailable})

	if coords := eng.svc.ResolveLocation(context.Background()); coords != nil {
		t.Fatalf("ResolveLocation() = %#v, want nil", coords)
	}
}

func TestResolveLocationTimeout(t *testing.T) {
	// Provider far slower than the 50ms test timeout.
	eng := newTestEngine(t, &fakeLocator{
		coords: domaintriage.Coordinates{Lat: 1, Lng: 1},
		delay:  2 * time.Second,
	})

	start := time.Now()
	coords := eng.svc.ResolveLocation(context.Background())
	elapsed := time.Since(start)

	if coords != nil {
		t.Fatalf("ResolveLocation() = %#v, want nil on timeout", coords)
	}
	if elapsed > time.Second {
		t.Fatalf("ResolveLocation() blocked %v, want prompt timeout", elapsed)
	}
}

func TestResolveLocationNoProvider(t *testing.T) {
	eng := newTestEngine(t, nil)

	if coords := eng.svc.ResolveLocation(context.Background()); coords != nil {
		t.Fatalf("ResolveLocation() = %#v, want nil without provider", coords)
	}
}

func TestResolveLocationProviderError(t *testing.T) {
	eng := newTestEngine(t, &fakeLocator{err: errors.New("gps hardware fault")})

	if coords := eng.svc.ResolveLocation(context.Background()); coords != nil {
		t.Fatalf("ResolveLocation() = %#v, want nil on provider failure", coords)
	}
}
