package store

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"fieldtriage/internal/domain/triage"
	"fieldtriage/internal/infrastructure/persistence/sqlite/model"
)

func setupCaseStore(t *testing.T) *CaseStore {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.SnapshotRecord{}); err != nil {
		t.Fatalf("auto migrate case_snapshots: %v", err)
	}

	// The shared in-memory db outlives a single test.
	if err := db.Exec("DELETE FROM case_snapshots").Error; err != nil {
		t.Fatalf("reset case_snapshots: %v", err)
	}

	return NewCaseStore(db)
}

func TestCasesRoundTrip(t *testing.T) {
	s := setupCaseStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	started := created.Add(30 * time.Second)
	cases := []triage.Case{
		{
			ID:                 "case-1",
			Category:           triage.CategoryMedic,
			CreatedAt:          created,
			Priority:           triage.PriorityRed,
			SymptomTags:        []string{"notBreathing"},
			SubjectName:        "A. Haddad",
			Age:                "34",
			LocationLabel:      "north clinic",
			Coordinates:        &triage.Coordinates{Lat: 31.52, Lng: 34.45},
			Broadcasting:       true,
			BroadcastStartedAt: &started,
		},
		{
			ID:                     "case-2",
			Category:               triage.CategorySupply,
			CreatedAt:              created.Add(time.Minute),
			Priority:               triage.PriorityBlue,
			SupplyTags:             []string{"water", "other"},
			OtherSupplyDescription: "water purification tablets",
			IsAnonymous:            true,
			Resolved:               true,
		},
	}

	if err := s.SaveCases(ctx, cases); err != nil {
		t.Fatalf("SaveCases() error = %v", err)
	}

	loaded, err := s.LoadCases(ctx)
	if err != nil {
		t.Fatalf("LoadCases() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadCases() len = %d", len(loaded))
	}
	if loaded[0].ID != "case-1" || loaded[1].ID != "case-2" {
		t.Fatalf("LoadCases() order = %q, %q", loaded[0].ID, loaded[1].ID)
	}
	if !loaded[0].CreatedAt.Equal(created) {
		t.Fatalf("LoadCases() createdAt = %v", loaded[0].CreatedAt)
	}
	if loaded[0].Coordinates == nil || loaded[0].Coordinates.Lat != 31.52 {
		t.Fatalf("LoadCases() coordinates = %#v", loaded[0].Coordinates)
	}
	if loaded[0].BroadcastStartedAt == nil || !loaded[0].BroadcastStartedAt.Equal(started) {
		t.Fatalf("LoadCases() broadcastStartedAt = %v", loaded[0].BroadcastStartedAt)
	}
	if !loaded[1].Resolved || loaded[1].OtherSupplyDescription != "water purification tablets" {
		t.Fatalf("LoadCases() second case = %#v", loaded[1])
	}
}

func TestLoadCasesMissingRecord(t *testing.T) {
	s := setupCaseStore(t)

	loaded, err := s.LoadCases(context.Background())
	if err != nil {
		t.Fatalf("LoadCases() error = %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Fatalf("LoadCases() = %#v, want empty", loaded)
	}
}

func TestLoadCasesCorruptRecordYieldsEmpty(t *testing.T) {
	s := setupCaseStore(t)
	ctx := context.Background()

	if err := s.saveRecord(ctx, casesRecordKey, "{not json"); err != nil {
		t.Fatalf("saveRecord() error = %v", err)
	}

	loaded, err := s.LoadCases(ctx)
	if err != nil {
		t.Fatalf("LoadCases() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("LoadCases() = %#v, want empty", loaded)
	}
}

func TestConsultQueueRoundTrip(t *testing.T) {
	s := setupCaseStore(t)
	ctx := context.Background()

	if err := s.SaveConsultQueue(ctx, []string{"case-9", "case-3"}); err != nil {
		t.Fatalf("SaveConsultQueue() error = %v", err)
	}

	ids, err := s.LoadConsultQueue(ctx)
	if err != nil {
		t.Fatalf("LoadConsultQueue() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "case-9" || ids[1] != "case-3" {
		t.Fatalf("LoadConsultQueue() = %#v", ids)
	}
}

func TestConsultQueueLegacyObjectEntries(t *testing.T) {
	s := setupCaseStore(t)
	ctx := context.Background()

	legacy := `[{"id":"case-7","priority":"red"},{"id":"case-8"}]`
	if err := s.saveRecord(ctx, consultQueueRecordKey, legacy); err != nil {
		t.Fatalf("saveRecord() error = %v", err)
	}

	ids, err := s.LoadConsultQueue(ctx)
	if err != nil {
		t.Fatalf("LoadConsultQueue() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "case-7" || ids[1] != "case-8" {
		t.Fatalf("LoadConsultQueue() legacy = %#v", ids)
	}
}

func TestConsultQueueCorruptRecordYieldsEmpty(t *testing.T) {
	s := setupCaseStore(t)
	ctx := context.Background()

	if err := s.saveRecord(ctx, consultQueueRecordKey, "oops"); err != nil {
		t.Fatalf("saveRecord() error = %v", err)
	}

	ids, err := s.LoadConsultQueue(ctx)
	if err != nil {
		t.Fatalf("LoadConsultQueue() error = %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("LoadConsultQueue() = %#v, want empty", ids)
	}
}
