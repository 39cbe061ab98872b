package triage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/ports"
)

const defaultLocationTimeout = 5 * time.Second

// Service is the case lifecycle engine: the authoritative in-memory case
// collection, the consult queue, and the broadcast controller, all hydrated
// from and flushed to the snapshot store.
//
// Every mutation runs under one mutex, which gives the same serialization
// the single UI thread gave the original engine. Location lookups run
// outside the lock and may interleave between two submissions.
type Service struct {
	store   ports.CaseSnapshotStore
	uow     ports.UnitOfWork
	cache   ports.Cache
	locator ports.LocationProvider

	protocol        domaintriage.Protocol
	locationTimeout time.Duration
	now             func() time.Time
	newID           func() string

	mu           sync.Mutex
	cases        []domaintriage.Case
	caseIndex    map[string]int
	consultQueue []string

	// Broadcast controller: empty broadcastID means Idle.
	broadcastID        string
	broadcastStartedAt time.Time
}

// Options carries engine tunables; zero values select defaults.
type Options struct {
	LocationTimeout time.Duration
	Now             func() time.Time
	NewID           func() string
}

// NewService wires the engine with its collaborators. Call Hydrate before
// serving operations.
func NewService(
	store ports.CaseSnapshotStore,
	uow ports.UnitOfWork,
	cache ports.Cache,
	locator ports.LocationProvider,
	protocol domaintriage.Protocol,
	opts Options,
) *Service {
	if opts.LocationTimeout <= 0 {
		opts.LocationTimeout = defaultLocationTimeout
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Service{
		store:           store,
		uow:             uow,
		cache:           cache,
		locator:         locator,
		protocol:        protocol,
		locationTimeout: opts.LocationTimeout,
		now:             opts.Now,
		newID:           opts.NewID,
		cases:           []domaintriage.Case{},
		caseIndex:       map[string]int{},
		consultQueue:    []string{},
	}
}

// Protocol returns the classification protocol in effect.
func (s *Service) Protocol() domaintriage.Protocol {
	return s.protocol
}

// viewOf returns a copy of the case at position idx with the derived
// broadcast flag applied. Caller holds s.mu.
func (s *Service) viewOf(idx int) domaintriage.Case {
	c := s.cases[idx]
	c.Broadcasting = c.ID == s.broadcastID
	c.SymptomTags = cloneStrings(c.SymptomTags)
	c.SupplyTags = cloneStrings(c.SupplyTags)
	if c.Coordinates != nil {
		coords := *c.Coordinates
		c.Coordinates = &coords
	}
	if c.BroadcastStartedAt != nil {
		started := *c.BroadcastStartedAt
		c.BroadcastStartedAt = &started
	}
	return c
}

// snapshotCases materializes the full collection as persisted and listed:
// insertion order, derived broadcast flags. Caller holds s.mu.
func (s *Service) snapshotCases() []domaintriage.Case {
	out := make([]domaintriage.Case, 0, len(s.cases))
	for idx := range s.cases {
		out = append(out, s.viewOf(idx))
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
