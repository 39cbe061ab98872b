package ports

import (
	"context"

	"fieldtriage/internal/domain/triage"
)

// CaseSnapshotStore persists the two durable engine records: the full case
// collection and the consult queue (case ids). Each save fully overwrites
// its record with a complete, self-consistent snapshot.
//
// Load is lenient by contract: a missing or undecodable record yields an
// empty slice and a nil error. Only real storage failures surface as errors,
// and callers are expected to absorb those too — a corrupt or unreachable
// store must never block startup.
type CaseSnapshotStore interface {
	LoadCases(ctx context.Context) ([]triage.Case, error)
	SaveCases(ctx context.Context, cases []triage.Case) error
	LoadConsultQueue(ctx context.Context) ([]string, error)
	SaveConsultQueue(ctx context.Context, caseIDs []string) error
}
