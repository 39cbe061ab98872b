package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/ports"
)

type fakeStore struct {
	mu         sync.Mutex
	cases      []domaintriage.Case
	queue      []string
	failSaves  bool
	failLoads  bool
	casesSaves int
	queueSaves int
}

func (f *fakeStore) LoadCases(_ context.Context) ([]domaintriage.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoads {
		return nil, errors.New("store unreadable")
	}
	out := make([]domaintriage.Case, len(f.cases))
	copy(out, f.cases)
	return out, nil
}

func (f *fakeStore) SaveCases(_ context.Context, cases []domaintriage.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves {
		return errors.New("store write failed")
	}
	f.cases = make([]domaintriage.Case, len(cases))
	copy(f.cases, cases)
	f.casesSaves++
	return nil
}

func (f *fakeStore) LoadConsultQueue(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoads {
		return nil, errors.New("store unreadable")
	}
	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out, nil
}

func (f *fakeStore) SaveConsultQueue(_ context.Context, caseIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves {
		return errors.New("store write failed")
	}
	f.queue = make([]string, len(caseIDs))
	copy(f.queue, caseIDs)
	f.queueSaves++
	return nil
}

type fakeUOW struct{}

func (fakeUOW) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

type fakeLocator struct {
	coords domaintriage.Coordinates
	err    error
	delay  time.Duration
}

func (f *fakeLocator) CurrentFix(ctx context.Context) (domaintriage.Coordinates, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domaintriage.Coordinates{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domaintriage.Coordinates{}, f.err
	}
	return f.coords, nil
}

type testEngine struct {
	svc   *Service
	store *fakeStore
	cache *fakeCache
}

func newTestEngine(t *testing.T, locator *fakeLocator) testEngine {
	t.Helper()

	store := &fakeStore{}
	cache := newFakeCache()

	// A nil *fakeLocator must become a nil interface, not a typed nil.
	var provider ports.LocationProvider
	if locator != nil {
		provider = locator
	}

	seq := 0
	clock := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(store, fakeUOW{}, cache, provider, domaintriage.DefaultProtocol(), Options{
		LocationTimeout: 50 * time.Millisecond,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("case-%04d", seq)
		},
	})
	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	return testEngine{svc: svc, store: store, cache: cache}
}

func TestCreateCasePublicSevereBleeding(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	created, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category:    domaintriage.CategoryPublic,
		SymptomTags: []string{"severeBleeding"},
	})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if created.Priority != domaintriage.PriorityRed {
		t.Fatalf("CreateCase() priority = %q, want red", created.Priority)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("CreateCase() id/createdAt not stamped: %#v", created)
	}
	if !created.Broadcasting {
		t.Fatalf("CreateCase() expected auto-broadcast for red public case")
	}

	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current == nil || current.ID != created.ID {
		t.Fatalf("CurrentBroadcast() = %#v, want case %s", current, created.ID)
	}

	eng.store.mu.Lock()
	persisted := len(eng.store.cases)
	eng.store.mu.Unlock()
	if persisted != 1 {
		t.Fatalf("persisted cases = %d, want 1", persisted)
	}

	if err := eng.svc.ResolveCase(ctx, created.ID); err != nil {
		t.Fatalf("ResolveCase() error = %v", err)
	}
	current, err = eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current != nil {
		t.Fatalf("CurrentBroadcast() after resolve = %#v, want none", current)
	}

	listed, err := eng.svc.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(listed) != 1 || !listed[0].Resolved {
		t.Fatalf("ListCases() = %#v, want one resolved case", listed)
	}
}

func TestCreateCaseIDsUnique(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, fakeUOW{}, newFakeCache(), nil, domaintriage.DefaultProtocol(), Options{})
	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		created, err := svc.CreateCase(ctx, CreateCaseInput{Category: domaintriage.CategoryPublic})
		if err != nil {
			t.Fatalf("CreateCase() error = %v", err)
		}
		if _, dup := seen[created.ID]; dup {
			t.Fatalf("duplicate case id %q", created.ID)
		}
		seen[created.ID] = struct{}{}
	}
}

func TestSupplyCaseFixedBlueNoBroadcast(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	created, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category:               domaintriage.CategorySupply,
		SymptomTags:            []string{"notBreathing"}, // ignored for supply
		SupplyTags:             []string{"water", "water", "other"},
		OtherSupplyDescription: "generator fuel",
	})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if created.Priority != domaintriage.PriorityBlue {
		t.Fatalf("CreateCase() supply priority = %q, want blue", created.Priority)
	}
	if len(created.SymptomTags) != 0 {
		t.Fatalf("CreateCase() supply symptoms = %#v, want none", created.SymptomTags)
	}
	if len(created.SupplyTags) != 2 {
		t.Fatalf("CreateCase() supply tags = %#v, want deduped pair", created.SupplyTags)
	}
	if created.Broadcasting {
		t.Fatalf("CreateCase() supply case must not auto-broadcast")
	}

	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current != nil {
		t.Fatalf("CurrentBroadcast() = %#v, want none", current)
	}
}

func TestMedicBlueAutoBroadcastsGreenDoesNot(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	blue, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category:    domaintriage.CategoryMedic,
		SymptomTags: []string{"chestPain"},
	})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if blue.Priority != domaintriage.PriorityBlue || !blue.Broadcasting {
		t.Fatalf("CreateCase() medic blue = %#v, want broadcasting blue", blue)
	}

	green, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category:    domaintriage.CategoryPublic,
		SymptomTags: []string{"bruise"},
	})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if green.Priority != domaintriage.PriorityGreen {
		t.Fatalf("CreateCase() priority = %q, want green", green.Priority)
	}
	if green.Broadcasting {
		t.Fatalf("CreateCase() green case must not auto-broadcast")
	}

	// The green submission must not have disturbed the blue broadcast.
	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current == nil || current.ID != blue.ID {
		t.Fatalf("CurrentBroadcast() = %#v, want %s", current, blue.ID)
	}
}

func TestResolveUnknownCaseIsNoop(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if err := eng.svc.ResolveCase(ctx, "never-created"); err != nil {
		t.Fatalf("ResolveCase() error = %v", err)
	}

	listed, err := eng.svc.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("ListCases() = %#v, want empty", listed)
	}
}

func TestCreateCaseSurvivesStoreFailure(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.store.mu.Lock()
	eng.store.failSaves = true
	eng.store.mu.Unlock()
	ctx := context.Background()

	created, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category:    domaintriage.CategoryMedic,
		SymptomTags: []string{"unconscious"},
	})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	listed, err := eng.svc.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("ListCases() = %#v, want the created case despite flush failure", listed)
	}
}

func TestListCasesFilteredProjections(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	red, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryMedic, SymptomTags: []string{"unconscious"},
	})
	blue, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryPublic, SymptomTags: []string{"headInjury"},
	})
	green, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryPublic, SymptomTags: []string{"fever"},
	})
	if err := eng.svc.ResolveCase(ctx, green.ID); err != nil {
		t.Fatalf("ResolveCase() error = %v", err)
	}

	unresolvedRed, err := eng.svc.ListCasesFiltered(ctx, CaseFilter{
		Priority: domaintriage.PriorityRed, Unresolved: true,
	})
	if err != nil {
		t.Fatalf("ListCasesFiltered() error = %v", err)
	}
	if len(unresolvedRed) != 1 || unresolvedRed[0].ID != red.ID {
		t.Fatalf("unresolved red = %#v", unresolvedRed)
	}

	unresolvedBlue, err := eng.svc.ListCasesFiltered(ctx, CaseFilter{
		Priority: domaintriage.PriorityBlue, Unresolved: true,
	})
	if err != nil {
		t.Fatalf("ListCasesFiltered() error = %v", err)
	}
	if len(unresolvedBlue) != 1 || unresolvedBlue[0].ID != blue.ID {
		t.Fatalf("unresolved blue = %#v", unresolvedBlue)
	}

	resolved, err := eng.svc.ListCasesFiltered(ctx, CaseFilter{Resolved: true})
	if err != nil {
		t.Fatalf("ListCasesFiltered() error = %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != green.ID {
		t.Fatalf("resolved = %#v", resolved)
	}
}

func TestHydrateRepairsStaleState(t *testing.T) {
	store := &fakeStore{}
	started := time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC)
	store.cases = []domaintriage.Case{
		{ID: "case-a", Category: domaintriage.CategoryMedic, Priority: domaintriage.PriorityRed,
			Broadcasting: true, BroadcastStartedAt: &started},
	}
	store.queue = []string{"case-a", "gone-case"}

	svc := NewService(store, fakeUOW{}, newFakeCache(), nil, domaintriage.DefaultProtocol(), Options{})
	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	ctx := context.Background()

	current, err := svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current != nil {
		t.Fatalf("CurrentBroadcast() after restart = %#v, want none", current)
	}

	listed, err := svc.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(listed) != 1 || listed[0].Broadcasting {
		t.Fatalf("ListCases() = %#v, want stale broadcast flag cleared", listed)
	}
	if listed[0].BroadcastStartedAt == nil {
		t.Fatalf("ListCases() lost the historical broadcast start stamp")
	}

	queued, err := svc.ListConsultQueue(ctx)
	if err != nil {
		t.Fatalf("ListConsultQueue() error = %v", err)
	}
	if len(queued) != 1 || queued[0].ID != "case-a" {
		t.Fatalf("ListConsultQueue() = %#v, want only case-a", queued)
	}

	store.mu.Lock()
	repairedQueue := make([]string, len(store.queue))
	copy(repairedQueue, store.queue)
	repairedFlag := store.cases[0].Broadcasting
	store.mu.Unlock()
	if len(repairedQueue) != 1 || repairedQueue[0] != "case-a" {
		t.Fatalf("repaired queue record = %#v", repairedQueue)
	}
	if repairedFlag {
		t.Fatalf("repaired cases record still flags a broadcast")
	}
}

func TestHydrateUnreadableStoreStartsEmpty(t *testing.T) {
	store := &fakeStore{failLoads: true}
	svc := NewService(store, fakeUOW{}, newFakeCache(), nil, domaintriage.DefaultProtocol(), Options{})

	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	listed, err := svc.ListCases(context.Background())
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("ListCases() = %#v, want empty", listed)
	}
}
