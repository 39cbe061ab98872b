package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldtriage/internal/bootstrap/logging"
	"fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/infrastructure/persistence/sqlite/model"
	"fieldtriage/internal/ports"
)

const (
	casesRecordKey        = "cases"
	consultQueueRecordKey = "consult_queue"
)

// CaseStore persists the engine's two snapshot records in a sqlite KV table.
type CaseStore struct {
	db *gorm.DB
}

var _ ports.CaseSnapshotStore = (*CaseStore)(nil)

func NewCaseStore(db *gorm.DB) *CaseStore {
	return &CaseStore{db: db}
}

func (s *CaseStore) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return s.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (s *CaseStore) LoadCases(ctx context.Context) ([]triage.Case, error) {
	raw, found, err := s.loadRecord(ctx, casesRecordKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []triage.Case{}, nil
	}

	var cases []triage.Case
	if err := json.Unmarshal([]byte(raw), &cases); err != nil {
		// A corrupt record must never block startup; start from empty.
		logging.Warn(ctx, "cases record undecodable, starting empty",
			slog.Any("err", errs.Loggable(err)))
		return []triage.Case{}, nil
	}
	if cases == nil {
		cases = []triage.Case{}
	}
	return cases, nil
}

func (s *CaseStore) SaveCases(ctx context.Context, cases []triage.Case) error {
	if cases == nil {
		cases = []triage.Case{}
	}
	encoded, err := json.Marshal(cases)
	if err != nil {
		return errs.Wrap(err, "encode cases record")
	}
	return s.saveRecord(ctx, casesRecordKey, string(encoded))
}

// LoadConsultQueue reads the queued case ids. The current shape is a JSON
// array of id strings; earlier deployments persisted full case objects, so
// decoding also accepts an object array and keeps just the ids.
func (s *CaseStore) LoadConsultQueue(ctx context.Context) ([]string, error) {
	raw, found, err := s.loadRecord(ctx, consultQueueRecordKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []string{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logging.Warn(ctx, "consult queue record undecodable, starting empty",
			slog.Any("err", errs.Loggable(err)))
		return []string{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		var id string
		if err := json.Unmarshal(entry, &id); err == nil && id != "" {
			ids = append(ids, id)
			continue
		}

		var legacy struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(entry, &legacy); err == nil && legacy.ID != "" {
			ids = append(ids, legacy.ID)
			continue
		}

		logging.Warn(ctx, "skipping undecodable consult queue entry")
	}
	return ids, nil
}

func (s *CaseStore) SaveConsultQueue(ctx context.Context, caseIDs []string) error {
	if caseIDs == nil {
		caseIDs = []string{}
	}
	encoded, err := json.Marshal(caseIDs)
	if err != nil {
		return errs.Wrap(err, "encode consult queue record")
	}
	return s.saveRecord(ctx, consultQueueRecordKey, string(encoded))
}

func (s *CaseStore) loadRecord(ctx context.Context, key string) (string, bool, error) {
	db, err := s.dbFromContext(ctx)
	if err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, errs.Wrap(err, "check context")
	}

	var row model.SnapshotRecord
	if err := db.Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrapf(err, "query snapshot record %q", key)
	}
	return row.Value, true, nil
}

func (s *CaseStore) saveRecord(ctx context.Context, key string, value string) error {
	db, err := s.dbFromContext(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	row := model.SnapshotRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "upsert snapshot record %q", key)
	}

	return nil
}
