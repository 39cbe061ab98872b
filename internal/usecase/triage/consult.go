package triage

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
)

const (
	cacheKeyLastUploadAt    = "consult:last_upload_at"
	cacheKeyLastUploadCount = "consult:last_upload_count"
)

// EnqueueConsult adds a case to the remote-consultation queue. Idempotent:
// a case already queued, or an unknown id, is a no-op. The queue holds ids
// only; reads join against the case collection so entries never go stale.
func (s *Service) EnqueueConsult(ctx context.Context, caseID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caseIndex[caseID]; !ok {
		logging.Warn(logCtx, "consult enqueue for unknown case ignored", slog.String("case_id", caseID))
		return nil
	}
	for _, queued := range s.consultQueue {
		if queued == caseID {
			return nil
		}
	}

	s.consultQueue = append(s.consultQueue, caseID)
	s.flushConsultQueueLocked(logCtx)

	logging.Info(logCtx, "consult queued", slog.String("case_id", caseID))
	return nil
}

// DequeueConsult removes a case from the queue; no-op if absent.
func (s *Service) DequeueConsult(ctx context.Context, caseID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dequeueConsultLocked(caseID) {
		return nil
	}
	s.flushConsultQueueLocked(logCtx)

	logging.Info(logCtx, "consult dequeued", slog.String("case_id", caseID))
	return nil
}

// ListConsultQueue resolves each queued id against the collection at read
// time, in insertion order.
func (s *Service) ListConsultQueue(ctx context.Context) ([]domaintriage.Case, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domaintriage.Case, 0, len(s.consultQueue))
	for _, caseID := range s.consultQueue {
		idx, ok := s.caseIndex[caseID]
		if !ok {
			continue
		}
		out = append(out, s.viewOf(idx))
	}
	return out, nil
}

// TransferFunc hands one case to an external transport. The engine itself
// has no network logic; the CLI injects a simulated transfer.
type TransferFunc func(ctx context.Context, c domaintriage.Case) error

// UploadConsults drains the queue through transfer: every entry that
// transfers successfully is dequeued, failures stay queued for the next
// attempt. Returns how many entries were uploaded.
func (s *Service) UploadConsults(ctx context.Context, transfer TransferFunc) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if transfer == nil {
		return 0, errors.New("transfer func is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "triage.engine"))

	pending, err := s.ListConsultQueue(ctx)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	var firstErr error
	for _, c := range pending {
		if err := transfer(ctx, c); err != nil {
			logging.Warn(logCtx, "consult transfer failed, entry stays queued",
				slog.String("case_id", c.ID),
				slog.Any("err", errs.Loggable(err)))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.DequeueConsult(ctx, c.ID); err != nil {
			return uploaded, err
		}
		uploaded++
	}

	if uploaded > 0 {
		s.markUpload(logCtx, uploaded)
	}

	logging.Info(logCtx, "consult upload finished",
		slog.Int("uploaded", uploaded),
		slog.Int("remaining", len(pending)-uploaded))
	return uploaded, firstErr
}

// LastUploadMark reports when the last successful upload ran and how many
// entries it moved; ok=false when no upload has happened yet.
func (s *Service) LastUploadMark(ctx context.Context) (at time.Time, count int, ok bool, err error) {
	if ctx == nil {
		return time.Time{}, 0, false, errors.New("context is required")
	}
	if s.cache == nil {
		return time.Time{}, 0, false, nil
	}

	rawAt, found, err := s.cache.Get(ctx, cacheKeyLastUploadAt)
	if err != nil || !found {
		return time.Time{}, 0, false, err
	}
	parsedAt, err := time.Parse(time.RFC3339Nano, rawAt)
	if err != nil {
		return time.Time{}, 0, false, nil
	}

	rawCount, found, err := s.cache.Get(ctx, cacheKeyLastUploadCount)
	if err != nil {
		return time.Time{}, 0, false, err
	}
	parsedCount := 0
	if found {
		parsedCount, _ = strconv.Atoi(rawCount)
	}
	return parsedAt, parsedCount, true, nil
}

// markUpload leaves an operational breadcrumb. Best effort.
func (s *Service) markUpload(ctx context.Context, count int) {
	if s.cache == nil {
		return
	}
	stamp := s.now().Format(time.RFC3339Nano)
	if err := s.cache.Set(ctx, cacheKeyLastUploadAt, stamp, 0); err != nil {
		logging.Warn(ctx, "record upload mark failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := s.cache.Set(ctx, cacheKeyLastUploadCount, strconv.Itoa(count), 0); err != nil {
		logging.Warn(ctx, "record upload count failed", slog.Any("err", errs.Loggable(err)))
	}
}

// dequeueConsultLocked removes the id, reporting whether it was present.
// Caller holds s.mu.
func (s *Service) dequeueConsultLocked(caseID string) bool {
	for i, queued := range s.consultQueue {
		if queued == caseID {
			s.consultQueue = append(s.consultQueue[:i], s.consultQueue[i+1:]...)
			return true
		}
	}
	return false
}
