package storage

import (
	"path/filepath"
	"testing"

	"emberfall-server/pkg/api"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := NewLevelService(t.TempDir())

	rec := api.LevelRecord{
		ID:         "abc123",
		Name:       "catacombs",
		Date:       "2026-08-29T12:00:00Z",
		Difficulty: 2.5,
		Entities: []api.EntityRecord{
			{ID: "e1", Name: "hero", EntityType: "player", Position: [3]float64{1, 0, 2}},
			{ID: "e2", Name: "crate", EntityType: "entity"},
		},
	}

	if err := svc.Save(rec); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := svc.Load("abc123")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got.Name != rec.Name || got.Difficulty != rec.Difficulty || got.Date != rec.Date {
		t.Errorf("Load() = %+v, want %+v", got, rec)
	}
	if len(got.Entities) != 2 || got.Entities[0].ID != "e1" || got.Entities[1].ID != "e2" {
		t.Errorf("Load() entities = %+v", got.Entities)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	svc := NewLevelService(t.TempDir())

	if _, err := svc.Load("no-such-level"); err == nil {
		t.Error("Load() of missing snapshot succeeded, want error")
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewLevelService(dir)

	if err := svc.Save(api.LevelRecord{ID: "lvl"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
