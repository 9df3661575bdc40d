package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"roomdrop-server/core"
)

func newTestStore(t *testing.T) core.FileStore {
	t.Helper()
	if !CGOEnabled {
		t.Skip("sqlite store requires cgo")
	}
	return NewFileStore(filepath.Join(t.TempDir(), "files.db"))
}

func TestStore_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	handle, err := store.Store(ctx, []byte("hello"), "doc.pdf")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if handle == "" {
		t.Fatal("Store() returned empty handle")
	}

	file, err := store.Retrieve(ctx, handle)
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if got := file.Data.String(); got != "hello" {
		t.Errorf("Retrieve() data: got %q, want %q", got, "hello")
	}
}

func TestStore_DuplicateNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	h1, err := store.Store(ctx, []byte("one"), "doc.pdf")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	h2, err := store.Store(ctx, []byte("two"), "doc.pdf")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("identical names produced the same handle %q", h1)
	}
}

func TestRetrieve_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Retrieve(context.Background(), "missing")
	if !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("Retrieve() of missing handle: got %v, want ErrFileNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	handle, err := store.Store(ctx, []byte("x"), "a.txt")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	if err := store.Delete(ctx, handle); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Retrieve(ctx, handle); !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("Retrieve() after delete: got %v, want ErrFileNotFound", err)
	}
	if err := store.Delete(ctx, handle); !errors.Is(err, core.ErrFileNotFound) {
		t.Errorf("repeated Delete(): got %v, want ErrFileNotFound", err)
	}
}

func TestStore_BinaryData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte{0x00, 0x01, 0xff, 0xfe, 0x7f}
	handle, err := store.Store(ctx, data, "blob.bin")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	file, err := store.Retrieve(ctx, handle)
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	got := file.Data.Bytes()
	if len(got) != len(data) {
		t.Fatalf("binary length: got %d, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Errorf("byte %d: got %#x, want %#x", i, got[i], data[i])
		}
	}
}
