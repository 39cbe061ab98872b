package triage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
)

// StartBroadcast points the controller at the given case and stamps the
// start time. Unknown ids are ignored. Starting over an active broadcast
// simply moves the pointer; the previous case stops reading as broadcasting
// because the flag is derived from the pointer, never stored.
//
// Only the logical broadcast state lives here. Real short-range radio I/O
// sits behind the presentation layer and is stubbed.
func (s *Service) StartBroadcast(ctx context.Context, caseID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caseIndex[caseID]; !ok {
		logging.Warn(logCtx, "broadcast start for unknown case ignored", slog.String("case_id", caseID))
		return nil
	}

	s.startBroadcastLocked(logCtx, caseID)
	s.flushCasesLocked(logCtx)
	return nil
}

// StopBroadcast returns the controller to idle. No-op when already idle.
func (s *Service) StopBroadcast(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broadcastID == "" {
		return nil
	}

	s.stopBroadcastLocked(logCtx)
	s.flushCasesLocked(logCtx)
	return nil
}

// CurrentBroadcast returns the broadcasting case, or nil when idle.
func (s *Service) CurrentBroadcast(ctx context.Context) (*domaintriage.Case, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broadcastID == "" {
		return nil, nil
	}

	idx, ok := s.caseIndex[s.broadcastID]
	if !ok {
		return nil, nil
	}
	view := s.viewOf(idx)
	return &view, nil
}

// BroadcastElapsed reports how long the current broadcast has been running.
func (s *Service) BroadcastElapsed(ctx context.Context) (time.Duration, bool, error) {
	if ctx == nil {
		return 0, false, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broadcastID == "" {
		return 0, false, nil
	}
	return s.now().Sub(s.broadcastStartedAt), true, nil
}

// startBroadcastLocked moves the controller pointer. The case keeps the
// start stamp as a historical field even after the broadcast ends.
// Caller holds s.mu and has checked the id exists.
func (s *Service) startBroadcastLocked(ctx context.Context, caseID string) {
	startedAt := s.now()
	s.broadcastID = caseID
	s.broadcastStartedAt = startedAt

	idx := s.caseIndex[caseID]
	s.cases[idx].BroadcastStartedAt = &startedAt

	logging.Info(ctx, "broadcast started", slog.String("case_id", caseID))
}

// stopBroadcastLocked clears the pointer. Caller holds s.mu.
func (s *Service) stopBroadcastLocked(ctx context.Context) {
	logging.Info(ctx, "broadcast stopped", slog.String("case_id", s.broadcastID))
	s.broadcastID = ""
	s.broadcastStartedAt = time.Time{}
}
