package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "store_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tempDir)
	})
	return db
}

func TestDB_RunsAndDetections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	run := Run{ID: "run-1", Source: "Image", StartedAt: time.Now().Truncate(time.Second)}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	dets := []Detection{
		{RunID: "run-1", Frame: "a.png", Pattern: "Square", Color: "Red", Confidence: "High", X: 30, Y: 30, Width: 40, Height: 40, Area: 1521},
		{RunID: "run-1", Frame: "a.png", Pattern: "Circle", Color: "Unknown", Confidence: "Medium", Area: 700},
		{RunID: "run-1", Frame: "b.png", Pattern: "Square", Color: "Blue", Confidence: "High", Area: 900},
	}
	if err := db.InsertDetections(ctx, dets); err != nil {
		t.Fatalf("InsertDetections failed: %v", err)
	}

	got, err := db.Detections(ctx, "run-1")
	if err != nil {
		t.Fatalf("Detections failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d detections, want 3", len(got))
	}
	if got[0].Pattern != "Square" || got[0].Width != 40 || got[0].Area != 1521 {
		t.Errorf("first detection = %+v", got[0])
	}
	if got[0].ID <= 0 {
		t.Errorf("expected positive ID, got %d", got[0].ID)
	}

	counts, err := db.CountByPattern(ctx, "run-1")
	if err != nil {
		t.Fatalf("CountByPattern failed: %v", err)
	}
	if counts["Square"] != 2 || counts["Circle"] != 1 {
		t.Errorf("CountByPattern() = %v", counts)
	}

	runs, err := db.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Source != "Image" {
		t.Errorf("Runs() = %+v", runs)
	}
}

func TestDB_DuplicateRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	run := Run{ID: "dup", Source: "Camera", StartedAt: time.Now()}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatalf("first InsertRun failed: %v", err)
	}
	if err := db.InsertRun(ctx, run); err == nil {
		t.Error("expected error for duplicate run id")
	}
}

func TestDB_ForeignKey(t *testing.T) {
	db := setupTestDB(t)

	err := db.InsertDetections(context.Background(), []Detection{{RunID: "missing", Frame: "f", Pattern: "Square", Color: "Red", Confidence: "High"}})
	if err == nil {
		t.Error("expected foreign key error for unknown run")
	}
}

func TestDB_EmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	if err := db.InsertDetections(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op: %v", err)
	}
	got, err := db.Detections(context.Background(), "none")
	if err != nil || len(got) != 0 {
		t.Errorf("Detections(none) = %v, %v", got, err)
	}
}

func TestDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun(ctx, Run{ID: "keep", Source: "Image", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	runs, err := db.Runs(ctx)
	if err != nil || len(runs) != 1 {
		t.Errorf("Runs after reopen = %v, %v", runs, err)
	}
}
