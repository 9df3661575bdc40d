package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"roomdrop-server/core"
)

func TestNewFileStore_CreatesDirectory(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewFileStore(tempDir)

	if store == nil {
		t.Fatal("NewFileStore() returned nil")
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Error("NewFileStore() did not create the storage directory")
	}
}

func TestStore_WritesFile(t *testing.T) {
	tempDir := t.TempDir()
	store := NewFileStore(tempDir)
	ctx := context.Background()

	handle, err := store.Store(ctx, []byte("payload"), "doc.pdf")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, handle))
	if err != nil {
		t.Fatalf("stored file not readable: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("stored bytes: got %q, want %q", data, "payload")
	}
}

func TestStore_SanitizesClientPath(t *testing.T) {
	tempDir := t.TempDir()
	store := NewFileStore(tempDir)
	ctx := context.Background()

	handle, err := store.Store(ctx, []byte("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	// The blob must land inside the storage root under a flattened name.
	if _, err := os.Stat(filepath.Join(tempDir, handle)); err != nil {
		t.Errorf("blob not inside storage root: %v", err)
	}

	file, err := store.Retrieve(ctx, handle)
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if file.Data.String() != "x" {
		t.Errorf("Retrieve() data: got %q, want %q", file.Data.String(), "x")
	}
}

func TestRetrieve_RejectsTraversal(t *testing.T) {
	tempDir := t.TempDir()
	store := NewFileStore(tempDir)
	ctx := context.Background()

	secret := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(secret, []byte("top"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	attempts := []string{
		"../secret.txt",
		"..%2Fsecret.txt",
		"sub/../../secret.txt",
		"..",
		"",
		"a/b",
		`a\b`,
	}
	for _, handle := range attempts {
		t.Run(handle, func(t *testing.T) {
			if _, err := store.Retrieve(ctx, handle); !errors.Is(err, core.ErrFileNotFound) {
				t.Errorf("Retrieve(%q): got %v, want ErrFileNotFound", handle, err)
			}
		})
	}
}

func TestRetrieve_NotFound(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Retrieve(context.Background(), "missing-handle")
	if !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("Retrieve() of missing handle: got %v, want ErrFileNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	tempDir := t.TempDir()
	store := NewFileStore(tempDir)
	ctx := context.Background()

	handle, err := store.Store(ctx, []byte("x"), "a.txt")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	if err := store.Delete(ctx, handle); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, handle)); !os.IsNotExist(err) {
		t.Error("Delete() left the file on disk")
	}

	if err := store.Delete(ctx, handle); !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("repeated Delete(): got %v, want ErrFileNotFound", err)
	}
}

func TestDelete_RejectsTraversal(t *testing.T) {
	tempDir := t.TempDir()
	store := NewFileStore(tempDir)

	victim := filepath.Join(t.TempDir(), "victim.txt")
	if err := os.WriteFile(victim, []byte("keep me"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := store.Delete(context.Background(), "../victim.txt"); !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("traversal Delete(): got %v, want ErrFileNotFound", err)
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("file outside the storage root was touched: %v", err)
	}
}
