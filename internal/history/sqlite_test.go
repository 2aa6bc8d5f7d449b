package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(id, source string, overall float64, createdAt time.Time) *quality.AssessmentReport {
	return &quality.AssessmentReport{
		ID:           id,
		OverallScore: overall,
		Readiness:    quality.DefaultBands().Classify(overall),
		SourceName:   source,
		SourceType:   "file",
		Mode:         quality.ModeDiscovery,
		Dimensions: map[quality.Dimension]quality.DimensionResult{
			quality.DimensionValidity:     {Dimension: quality.DimensionValidity, Score: 16, MaxScore: 20},
			quality.DimensionCompleteness: {Dimension: quality.DimensionCompleteness, Score: 18, MaxScore: 20},
		},
		CreatedAt: createdAt,
		Version:   quality.ReportVersion,
	}
}

func TestOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to read migration version: %v", err)
	}
	if version < 1 {
		t.Errorf("migration version = %d, want >= 1", version)
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleReport("r1", "orders.csv", 72.5, created)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	entry, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if entry.SourceName != "orders.csv" {
		t.Errorf("source name = %q, want orders.csv", entry.SourceName)
	}
	if entry.OverallScore != 72.5 {
		t.Errorf("overall score = %v, want 72.5", entry.OverallScore)
	}
	if entry.Readiness != string(quality.ReadinessGood) {
		t.Errorf("readiness = %q, want %q", entry.Readiness, quality.ReadinessGood)
	}
	if got := entry.Scores[quality.DimensionValidity]; got != 16 {
		t.Errorf("validity score = %v, want 16", got)
	}
	// Unassessed dimensions stay absent rather than defaulting to zero.
	if _, ok := entry.Scores[quality.DimensionFreshness]; ok {
		t.Error("freshness score present, want absent")
	}
	if !entry.CreatedAt.Equal(created) {
		t.Errorf("created at = %v, want %v", entry.CreatedAt, created)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		report := sampleReport(id, "orders.csv", 70, base.Add(time.Duration(i)*time.Hour))
		if err := store.Record(ctx, report); err != nil {
			t.Fatalf("failed to record %s: %v", id, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "r3" || entries[1].ID != "r2" {
		t.Errorf("order = %s, %s; want r3, r2", entries[0].ID, entries[1].ID)
	}
}

func TestListSource(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Record(ctx, sampleReport("r1", "orders.csv", 70, now)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, sampleReport("r2", "billing.csv", 80, now)); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ListSource(ctx, "orders.csv", 10)
	if err != nil {
		t.Fatalf("failed to list source: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "r1" {
		t.Errorf("got %d entries, want one entry r1", len(entries))
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Record(ctx, sampleReport("old", "orders.csv", 70, now.Add(-90*24*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, sampleReport("new", "orders.csv", 70, now)); err != nil {
		t.Fatal(err)
	}

	pruned, err := store.Prune(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Errorf("got %d entries after prune, want only new", len(entries))
	}
}

func TestNotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	if err := store.Record(ctx, sampleReport("r1", "orders.csv", 70, time.Now())); err == nil {
		t.Error("Record on unopened store should fail")
	}
	if _, err := store.Get(ctx, "r1"); err == nil {
		t.Error("Get on unopened store should fail")
	}
	if _, err := store.List(ctx, 10); err == nil {
		t.Error("List on unopened store should fail")
	}
	if _, err := store.Prune(ctx, time.Now()); err == nil {
		t.Error("Prune on unopened store should fail")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on unopened store: %v", err)
	}
}

func TestRecordNilReport(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), nil); err == nil {
		t.Error("Record(nil) should fail")
	}
}

func TestRecordDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO assessments").WillReturnError(context.DeadlineExceeded)

	store := &SQLiteStore{db: db}
	err = store.Record(context.Background(), sampleReport("r1", "orders.csv", 70, time.Now()))
	if err == nil {
		t.Fatal("expected record error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	report := sampleReport("r1", "orders.csv", 70, time.Now().UTC())

	if err := store.Record(ctx, report); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, report); err == nil {
		t.Error("duplicate report ID should violate the primary key")
	}
}
