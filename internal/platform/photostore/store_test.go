package photostore

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSaveAndResolve(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ref, err := store.Save([]byte("jpeg-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(ref, LocalPrefix) {
		t.Fatalf("reference %q missing local prefix", ref)
	}
	if !store.Exists(ref) {
		t.Fatal("saved photo should resolve")
	}
	path, ok := store.Path(ref)
	if !ok || !strings.HasSuffix(path, ".jpg") {
		t.Fatalf("unexpected path %q ok=%v", path, ok)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, _ := New(t.TempDir())

	_, err := store.Save([]byte("gif-bytes"), "image/gif")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveRejectsOversizedPhoto(t *testing.T) {
	store, _ := New(t.TempDir())

	_, err := store.Save(bytes.Repeat([]byte{0xFF}, MaxPhotoSize+1), "image/png")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestSaveRejectsEmptyPhoto(t *testing.T) {
	store, _ := New(t.TempDir())

	_, err := store.Save(nil, "image/webp")
	if !errors.Is(err, ErrEmptyPhoto) {
		t.Fatalf("expected ErrEmptyPhoto, got %v", err)
	}
}

func TestPathRejectsForeignAndTraversalRefs(t *testing.T) {
	store, _ := New(t.TempDir())

	if _, ok := store.Path("AgACAgIAAxkBAAIB"); ok {
		t.Fatal("externally-hosted reference must not resolve")
	}
	if _, ok := store.Path(LocalPrefix + "../../etc/passwd"); ok {
		t.Fatal("traversal reference must not resolve")
	}
	if store.Exists(LocalPrefix + "deadbeef") {
		t.Fatal("unknown local reference must not resolve")
	}
}
