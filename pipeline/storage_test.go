package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"eduguard/student"
)

func newTestStore(t *testing.T) *DatasetStore {
	t.Helper()
	store, err := NewDatasetStore(StorageConfig{
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		EnableWAL: true,
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReplaceDatasetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []student.Record{
		makeRecord("S001", 85),
		makeRecord("S002", 45),
	}
	records[0].StudentName = "Alice"
	records[1].Dropout = 1

	version, err := store.ReplaceDataset(ctx, records)
	if err != nil {
		t.Fatalf("replace dataset: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	loaded, err := store.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	if loaded[0].StudentID != "S001" || loaded[0].StudentName != "Alice" {
		t.Errorf("unexpected first record: %+v", loaded[0])
	}
	if loaded[1].Dropout != 1 {
		t.Errorf("label not persisted: %+v", loaded[1])
	}
}

func TestReplaceDatasetSupersedesOldVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.ReplaceDataset(ctx, []student.Record{makeRecord("S001", 85)}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	version, err := store.ReplaceDataset(ctx, []student.Record{
		makeRecord("S010", 60),
		makeRecord("S011", 70),
		makeRecord("S012", 80),
	})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 records after replacement, got %d", count)
	}
}

func TestReplaceDatasetFailureKeepsPreviousDataset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.ReplaceDataset(ctx, []student.Record{
		makeRecord("S001", 85),
		makeRecord("S002", 45),
	}); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.ReplaceDataset(canceled, []student.Record{makeRecord("S010", 60)}); err == nil {
		t.Fatal("expected error for canceled upload")
	}

	if version := store.CurrentVersion(); version != 1 {
		t.Fatalf("failed upload advanced version to %d", version)
	}
	loaded, err := store.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(loaded) != 2 || loaded[0].StudentID != "S001" {
		t.Fatalf("previous dataset lost after failed upload: %+v", loaded)
	}

	// 后续上传照常推进版本
	version, err := store.ReplaceDataset(ctx, []student.Record{makeRecord("S020", 70)})
	if err != nil {
		t.Fatalf("replace after failure: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}
}

func TestReplaceDatasetEmpty(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.ReplaceDataset(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}
