package triage

import (
	"context"
	"errors"

	domaintriage "fieldtriage/internal/domain/triage"
)

// CaseFilter selects a projection of the case collection. Zero value selects
// everything. Unresolved and Resolved are mutually exclusive switches; when
// both are set, Unresolved wins.
type CaseFilter struct {
	Priority   domaintriage.Priority
	Category   domaintriage.Category
	Unresolved bool
	Resolved   bool
}

// ListCases returns a copy of the collection in insertion order, with the
// derived broadcast flag applied.
func (s *Service) ListCases(ctx context.Context) ([]domaintriage.Case, error) {
	return s.ListCasesFiltered(ctx, CaseFilter{})
}

// ListCasesFiltered returns the projection the saved-cases views are built
// from: unresolved red, unresolved blue, resolved, per-category slices.
func (s *Service) ListCasesFiltered(ctx context.Context, filter CaseFilter) ([]domaintriage.Case, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domaintriage.Case, 0, len(s.cases))
	for idx := range s.cases {
		view := s.viewOf(idx)
		if filter.Priority != "" && view.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && view.Category != filter.Category {
			continue
		}
		if filter.Unresolved && view.Resolved {
			continue
		}
		if !filter.Unresolved && filter.Resolved && !view.Resolved {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

// CaseByID returns a view of one case; found=false for unknown ids.
func (s *Service) CaseByID(ctx context.Context, caseID string) (domaintriage.Case, bool, error) {
	if ctx == nil {
		return domaintriage.Case{}, false, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.caseIndex[caseID]
	if !ok {
		return domaintriage.Case{}, false, nil
	}
	return s.viewOf(idx), true, nil
}
