package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jlonij/dac-web/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRun(id, dataset string, startedAt time.Time, correct int) *model.EvaluationRun {
	run := model.NewEvaluationRun(id, dataset)
	run.StartedAt = startedAt
	run.Duration = 1500 * time.Millisecond
	run.Counts = model.Counts{Instances: 4, CorrectInstances: correct, LinkInstances: 3, CorrectLinks: correct - 1}
	run.Records = []model.EvaluationRecord{
		{Position: 0, InstanceID: 7, Entity: "Amsterdam", Gold: "http://nl.dbpedia.org/resource/Amsterdam", Prediction: "http://nl.dbpedia.org/resource/Amsterdam", Correct: true},
		{Position: 1, InstanceID: 9, Entity: "Drees", Gold: model.NoLink, Prediction: "Too ambiguous", Correct: true},
	}
	return run
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := newRun("run-1", "test", started, 3)
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.Dataset != "test" || !got.StartedAt.Equal(started) || got.Duration != 1500*time.Millisecond {
		t.Errorf("metadata = %+v", got)
	}
	if got.Counts != run.Counts {
		t.Errorf("counts = %+v, expected %+v", got.Counts, run.Counts)
	}
	if !reflect.DeepEqual(got.Records, run.Records) {
		t.Errorf("records = %+v, expected %+v", got.Records, run.Records)
	}

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := db.GetRun(ctx, "missing")
		if err != nil || got != nil {
			t.Errorf("GetRun(missing) = %v, %v; expected nil, nil", got, err)
		}
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		if err := db.SaveRun(ctx, run); err == nil {
			t.Error("expected error for duplicate id")
		}
	})

	t.Run("empty id fails", func(t *testing.T) {
		if err := db.SaveRun(ctx, newRun("", "test", started, 3)); err == nil {
			t.Error("expected error for empty id")
		}
	})
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, r := range []*model.EvaluationRun{
		newRun("a", "test", base, 2),
		newRun("b", "test", base.Add(time.Hour), 3),
		newRun("c", "train", base.Add(2*time.Hour), 4),
		newRun("d", "test", base.Add(3*time.Hour), 4),
	} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%d) error: %v", i, err)
		}
	}

	history, err := db.GetRunHistory(ctx, "test")
	if err != nil {
		t.Fatalf("GetRunHistory() error: %v", err)
	}
	var ids []string
	for _, m := range history {
		ids = append(ids, m.ID)
	}
	if !reflect.DeepEqual(ids, []string{"d", "b", "a"}) {
		t.Errorf("history order = %v, expected [d b a]", ids)
	}
	if history[0].Counts.CorrectInstances != 4 {
		t.Errorf("latest counts = %+v", history[0].Counts)
	}

	latest, err := db.GetLatestRuns(ctx, "test", 2)
	if err != nil {
		t.Fatalf("GetLatestRuns() error: %v", err)
	}
	if len(latest) != 2 || latest[0].ID != "d" || latest[1].ID != "b" {
		t.Errorf("latest runs = %v", latest)
	}
	if len(latest[0].Records) != 2 {
		t.Errorf("expected records loaded, got %d", len(latest[0].Records))
	}

	datasets, err := db.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets() error: %v", err)
	}
	if !reflect.DeepEqual(datasets, []string{"test", "train"}) {
		t.Errorf("datasets = %v, expected [test train]", datasets)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []string{"2026-03-01 10:00:00.000000000", "2026-03-01 10:00:00", "2026-03-01T10:00:00Z"} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v", s, got)
		}
	}
	if !parseTimestamp("yesterday").IsZero() {
		t.Error("expected zero time for unparsable input")
	}
}
