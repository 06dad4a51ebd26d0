package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirStorageSaveAndOverwrite(t *testing.T) {
	root := t.TempDir()
	store, err := NewDirStorage(root)
	if err != nil {
		t.Fatalf("new dir storage: %v", err)
	}

	path, err := store.Save(context.Background(), "upload_abc.png", strings.NewReader("first"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(root, "upload_abc.png") {
		t.Fatalf("unexpected path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("unexpected content %q", data)
	}

	// Saving the same name replaces the content wholesale.
	if _, err := store.Save(context.Background(), "upload_abc.png", strings.NewReader("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back after overwrite: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected overwritten content, got %q", data)
	}
}

func TestDirStorageRemoveIsIdempotent(t *testing.T) {
	store, err := NewDirStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new dir storage: %v", err)
	}

	path, err := store.Save(context.Background(), "upload_gone.bin", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Remove(context.Background(), "upload_gone.bin"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be deleted, stat err: %v", err)
	}

	// Removing an absent file is not an error.
	if err := store.Remove(context.Background(), "upload_gone.bin"); err != nil {
		t.Fatalf("remove absent file: %v", err)
	}
}

func TestDirStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewDirStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new dir storage: %v", err)
	}

	for _, name := range []string{"", "  ", "../evil", "a/b.png", "/etc/passwd"} {
		if _, err := store.Save(context.Background(), name, strings.NewReader("x")); err == nil {
			t.Errorf("expected save to reject name %q", name)
		}
		if name == "" || name == "  " {
			continue
		}
		if err := store.Remove(context.Background(), name); err == nil {
			t.Errorf("expected remove to reject name %q", name)
		}
	}
}

func TestNewDirStorageCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewDirStorage(root); err != nil {
		t.Fatalf("new dir storage: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat root: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected root to be a directory")
	}

	if _, err := NewDirStorage("   "); err == nil {
		t.Fatal("expected error for blank root")
	}
}
