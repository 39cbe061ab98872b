package triage

import (
	"context"
	"errors"
	"log/slog"

	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
)

// Hydrate loads both snapshot records into memory. Failures never block
// startup: an unreadable store leaves the engine with empty collections.
//
// Hydration also repairs what a crash can leave behind: broadcast flags
// persisted mid-broadcast (the controller pointer is not durable, so after a
// restart no case is broadcasting) and consult queue entries whose case no
// longer decodes. Repairs are flushed back as one transaction so the two
// records stay mutually consistent on disk.
func (s *Service) Hydrate(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	cases, err := s.store.LoadCases(logCtx)
	if err != nil {
		logging.Warn(logCtx, "cases record unreadable, starting empty",
			slog.Any("err", errs.Loggable(err)))
		cases = nil
	}

	queuedIDs, err := s.store.LoadConsultQueue(logCtx)
	if err != nil {
		logging.Warn(logCtx, "consult queue record unreadable, starting empty",
			slog.Any("err", errs.Loggable(err)))
		queuedIDs = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = cases
	if s.cases == nil {
		s.cases = []domaintriage.Case{}
	}
	s.caseIndex = make(map[string]int, len(s.cases))

	staleBroadcasts := 0
	for idx := range s.cases {
		s.caseIndex[s.cases[idx].ID] = idx
		if s.cases[idx].Broadcasting {
			s.cases[idx].Broadcasting = false
			staleBroadcasts++
		}
	}

	s.consultQueue = make([]string, 0, len(queuedIDs))
	droppedQueueIDs := 0
	for _, id := range queuedIDs {
		if _, ok := s.caseIndex[id]; !ok {
			droppedQueueIDs++
			continue
		}
		s.consultQueue = append(s.consultQueue, id)
	}

	s.broadcastID = ""

	if staleBroadcasts > 0 || droppedQueueIDs > 0 {
		logging.Warn(logCtx, "repairing persisted engine state",
			slog.Int("stale_broadcast_flags", staleBroadcasts),
			slog.Int("dropped_queue_entries", droppedQueueIDs))
		s.flushAllLocked(logCtx)
	}

	logging.Info(logCtx, "engine hydrated",
		slog.Int("cases", len(s.cases)),
		slog.Int("consult_queue", len(s.consultQueue)))
	return nil
}

// flushAllLocked writes both records inside one transaction. Best effort:
// a failed flush is logged and memory stays authoritative. Caller holds s.mu.
func (s *Service) flushAllLocked(ctx context.Context) {
	snapshot := s.snapshotCases()
	queue := cloneStrings(s.consultQueue)

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.store.SaveCases(txCtx, snapshot); err != nil {
			return err
		}
		return s.store.SaveConsultQueue(txCtx, queue)
	})
	if err != nil {
		logging.Error(ctx, "flush engine snapshots failed",
			slog.Any("err", errs.Loggable(err)))
	}
}

// flushCasesLocked overwrites the cases record. Best effort. Caller holds s.mu.
func (s *Service) flushCasesLocked(ctx context.Context) {
	if err := s.store.SaveCases(ctx, s.snapshotCases()); err != nil {
		logging.Error(ctx, "flush cases record failed",
			slog.Any("err", errs.Loggable(err)))
	}
}

// flushConsultQueueLocked overwrites the consult queue record. Best effort.
// Caller holds s.mu.
func (s *Service) flushConsultQueueLocked(ctx context.Context) {
	if err := s.store.SaveConsultQueue(ctx, cloneStrings(s.consultQueue)); err != nil {
		logging.Error(ctx, "flush consult queue record failed",
			slog.Any("err", errs.Loggable(err)))
	}
}
