package filehandle

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenWriteReadCloseLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "h.txt")

	r := New()

	handle, err := r.Open(path, OpenOptions{Create: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if handle == 0 {
		t.Fatal("expected non-zero handle")
	}

	written, err := r.Write(handle, []byte("abc"), 0, 3)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written != 3 {
		t.Fatalf("wrote %d bytes, want 3", written)
	}

	if err := r.Close(handle); err != nil {
		t.Fatalf("Close: %v", err)
	}

	handle2, err := r.Open(path, OpenOptions{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	data, err := r.Read(handle2, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("read %q, want %q", data, "abc")
	}
	r.Close(handle2)
}

func TestHandleMonotonicAndNotReused(t *testing.T) {
	dir := t.TempDir()
	r := New()

	h1, err := r.Open(filepath.Join(dir, "a.txt"), OpenOptions{Create: true})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := r.Open(filepath.Join(dir, "b.txt"), OpenOptions{Create: true})
	if err != nil {
		t.Fatal(err)
	}
	if h2 <= h1 {
		t.Fatalf("expected monotonically increasing handles, got %d then %d", h1, h2)
	}

	r.Close(h1)

	h3, err := r.Open(filepath.Join(dir, "c.txt"), OpenOptions{Create: true})
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Fatal("handle id reused after close")
	}
}

func TestOperationsAfterCloseReturnInvalidHandle(t *testing.T) {
	dir := t.TempDir()
	r := New()

	handle, err := r.Open(filepath.Join(dir, "h.txt"), OpenOptions{Create: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(handle); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Read(handle, 1); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Read after close = %v, want ErrInvalidHandle", err)
	}
	if _, err := r.Write(handle, []byte("x"), 0, 1); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Write after close = %v, want ErrInvalidHandle", err)
	}
	if err := r.Close(handle); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("double Close = %v, want ErrInvalidHandle", err)
	}
}

func TestOpenWithoutCreateRequiresExistingFile(t *testing.T) {
	dir := t.TempDir()
	r := New()
	if _, err := r.Open(filepath.Join(dir, "missing.txt"), OpenOptions{Create: false}); err == nil {
		t.Fatal("expected error opening missing file without create")
	}
}
