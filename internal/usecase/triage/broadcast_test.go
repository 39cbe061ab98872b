package triage

import (
	"context"
	"testing"

	domaintriage "fieldtriage/internal/domain/triage"
)

func TestStartBroadcastMovesSingletonPointer(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	caseA, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryPublic, SymptomTags: []string{"fever"},
	})
	caseB, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryPublic, SymptomTags: []string{"bruise"},
	})

	if err := eng.svc.StartBroadcast(ctx, caseA.ID); err != nil {
		t.Fatalf("StartBroadcast(A) error = %v", err)
	}
	if err := eng.svc.StartBroadcast(ctx, caseB.ID); err != nil {
		t.Fatalf("StartBroadcast(B) error = %v", err)
	}

	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current == nil || current.ID != caseB.ID {
		t.Fatalf("CurrentBroadcast() = %#v, want %s", current, caseB.ID)
	}

	// At most one case reads as broadcasting, since the flag derives from
	// the controller pointer.
	listed, err := eng.svc.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	broadcasting := 0
	for _, c := range listed {
		if c.Broadcasting {
			broadcasting++
			if c.ID != caseB.ID {
				t.Fatalf("case %s reads as broadcasting, want only %s", c.ID, caseB.ID)
			}
		}
	}
	if broadcasting != 1 {
		t.Fatalf("broadcasting cases = %d, want 1", broadcasting)
	}

	// A keeps its historical start stamp even though its broadcast ended.
	viewA, found, err := eng.svc.CaseByID(ctx, caseA.ID)
	if err != nil || !found {
		t.Fatalf("CaseByID(A) = %v, %v", found, err)
	}
	if viewA.Broadcasting {
		t.Fatalf("case A still reads as broadcasting")
	}
	if viewA.BroadcastStartedAt == nil {
		t.Fatalf("case A lost its historical broadcast start stamp")
	}
}

func TestStartBroadcastUnknownCaseIgnored(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if err := eng.svc.StartBroadcast(ctx, "missing"); err != nil {
		t.Fatalf("StartBroadcast() error = %v", err)
	}

	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current != nil {
		t.Fatalf("CurrentBroadcast() = %#v, want none", current)
	}
}

func TestStopBroadcastIdempotent(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if err := eng.svc.StopBroadcast(ctx); err != nil {
		t.Fatalf("StopBroadcast() on idle error = %v", err)
	}

	created, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryMedic, SymptomTags: []string{"severePain"},
	})
	if err := eng.svc.StopBroadcast(ctx); err != nil {
		t.Fatalf("StopBroadcast() error = %v", err)
	}
	if err := eng.svc.StopBroadcast(ctx); err != nil {
		t.Fatalf("StopBroadcast() repeated error = %v", err)
	}

	view, found, err := eng.svc.CaseByID(ctx, created.ID)
	if err != nil || !found {
		t.Fatalf("CaseByID() = %v, %v", found, err)
	}
	if view.Broadcasting {
		t.Fatalf("case still broadcasting after stop")
	}
	if view.BroadcastStartedAt == nil {
		t.Fatalf("stop cleared the historical broadcast start stamp")
	}
}

func TestResolveOtherCaseKeepsBroadcast(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	broadcasting, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryMedic, SymptomTags: []string{"notBreathing"},
	})
	other, _ := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryPublic, SymptomTags: []string{"fever"},
	})

	// Creating the green case did not move the pointer; re-point explicitly
	// in case a later red case stole it.
	if err := eng.svc.StartBroadcast(ctx, broadcasting.ID); err != nil {
		t.Fatalf("StartBroadcast() error = %v", err)
	}
	if err := eng.svc.ResolveCase(ctx, other.ID); err != nil {
		t.Fatalf("ResolveCase() error = %v", err)
	}

	current, err := eng.svc.CurrentBroadcast(ctx)
	if err != nil {
		t.Fatalf("CurrentBroadcast() error = %v", err)
	}
	if current == nil || current.ID != broadcasting.ID {
		t.Fatalf("CurrentBroadcast() = %#v, want %s", current, broadcasting.ID)
	}
}

func TestBroadcastElapsed(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	if _, running, err := eng.svc.BroadcastElapsed(ctx); err != nil || running {
		t.Fatalf("BroadcastElapsed() idle = running=%v err=%v", running, err)
	}

	if _, err := eng.svc.CreateCase(ctx, CreateCaseInput{
		Category: domaintriage.CategoryMedic, SymptomTags: []string{"unconscious"},
	}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	elapsed, running, err := eng.svc.BroadcastElapsed(ctx)
	if err != nil {
		t.Fatalf("BroadcastElapsed() error = %v", err)
	}
	if !running || elapsed <= 0 {
		t.Fatalf("BroadcastElapsed() = %v running=%v", elapsed, running)
	}
}
