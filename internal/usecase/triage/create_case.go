package triage

import (
	"context"
	"errors"
	"log/slog"

	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
)

// CreateCaseInput carries the intake form fields. The engine performs no
// validation; an empty input still produces a case (green, public).
type CreateCaseInput struct {
	Category               domaintriage.Category
	SymptomTags            []string
	SupplyTags             []string
	OtherSupplyDescription string

	SubjectName   string
	Age           string
	LocationLabel string
	Coordinates   *domaintriage.Coordinates
	IsAnonymous   bool
	PhotoRef      string
}

// CreateCase records a new case: fresh id, creation stamp, classified
// priority (supply requests are fixed to blue and carry no symptoms), then
// appends it to the collection and flushes the snapshot. Red and blue cases
// from the public and medic workflows auto-start the escalation broadcast;
// supply requests never do.
//
// The returned case is the caller's handle for every later operation.
func (s *Service) CreateCase(ctx context.Context, input CreateCaseInput) (domaintriage.Case, error) {
	if ctx == nil {
		return domaintriage.Case{}, errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	category := input.Category
	if category != domaintriage.CategoryMedic && category != domaintriage.CategorySupply {
		category = domaintriage.CategoryPublic
	}

	newCase := domaintriage.Case{
		ID:            s.newID(),
		Category:      category,
		CreatedAt:     s.now(),
		SubjectName:   input.SubjectName,
		Age:           input.Age,
		LocationLabel: input.LocationLabel,
		IsAnonymous:   input.IsAnonymous,
		PhotoRef:      input.PhotoRef,
	}
	if input.Coordinates != nil {
		coords := *input.Coordinates
		newCase.Coordinates = &coords
	}

	if category == domaintriage.CategorySupply {
		newCase.Priority = domaintriage.SupplyPriority
		newCase.SupplyTags = domaintriage.NormalizeTags(input.SupplyTags)
		newCase.OtherSupplyDescription = input.OtherSupplyDescription
	} else {
		newCase.SymptomTags = domaintriage.NormalizeTags(input.SymptomTags)
		newCase.Priority = s.protocol.Classify(newCase.SymptomTags)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = append(s.cases, newCase)
	s.caseIndex[newCase.ID] = len(s.cases) - 1

	escalate := category != domaintriage.CategorySupply &&
		(newCase.Priority == domaintriage.PriorityRed || newCase.Priority == domaintriage.PriorityBlue)
	if escalate {
		s.startBroadcastLocked(logCtx, newCase.ID)
	}

	s.flushCasesLocked(logCtx)

	logging.Info(logCtx, "case created",
		slog.String("case_id", newCase.ID),
		slog.String("category", string(newCase.Category)),
		slog.String("priority", string(newCase.Priority)),
		slog.Bool("broadcasting", escalate))

	return s.viewOf(s.caseIndex[newCase.ID]), nil
}

// ResolveCase marks a case resolved. Unknown ids are a no-op, not an error.
// Resolving the broadcasting case also stops the broadcast.
func (s *Service) ResolveCase(ctx context.Context, caseID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.caseIndex[caseID]
	if !ok {
		logging.Warn(logCtx, "resolve for unknown case ignored", slog.String("case_id", caseID))
		return nil
	}

	s.cases[idx].Resolved = true
	if s.broadcastID == caseID {
		s.stopBroadcastLocked(logCtx)
	}

	s.flushCasesLocked(logCtx)

	logging.Info(logCtx, "case resolved", slog.String("case_id", caseID))
	return nil
}
