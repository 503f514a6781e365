package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_LoadMissing(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "workflows.json"))
	if fs.Exists() {
		t.Fatal("expected no blob yet")
	}
	if _, err := fs.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "workflows.json")
	fs := NewFileStore(path)

	if err := fs.Save([]byte(`{"events":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !fs.Exists() {
		t.Fatal("expected blob to exist after save")
	}
	data, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"events":[]}` {
		t.Errorf("unexpected data %s", data)
	}

	if err := fs.Save([]byte(`{"events":[{"id":1}]}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	data, _ = fs.Load()
	if string(data) != `{"events":[{"id":1}]}` {
		t.Errorf("expected overwrite, got %s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" && e.Name() != "workflows.json" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_Remove(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "workflows.json"))
	if err := fs.Remove(); err != nil {
		t.Fatalf("remove of missing blob: %v", err)
	}
	if err := fs.Save([]byte(`{"events":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fs.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if fs.Exists() {
		t.Error("expected blob to be gone")
	}
	if _, err := os.Stat(fs.Path() + ".lock"); !os.IsNotExist(err) {
		t.Errorf("expected lock file to be removed, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore(nil)
	if _, err := m.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	buf := []byte("abc")
	if err := m.Save(buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'
	data, _ := m.Load()
	if string(data) != "abc" {
		t.Errorf("memory store shares caller buffer: %s", data)
	}
	if m.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", m.Saves())
	}
}
