package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newLocalStore(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(tmpDir, "store"))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return store, tmpDir
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	store, tmpDir := newLocalStore(t)
	ctx := context.Background()

	src := writeTempFile(t, tmpDir, "part.sqlite", "partition bytes")
	if err := store.Upload(ctx, src, "activities/part.sqlite"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	dst := filepath.Join(tmpDir, "fetched.sqlite")
	if err := store.Download(ctx, "activities/part.sqlite", dst); err != nil {
		t.Fatalf("Download: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "partition bytes" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	store, tmpDir := newLocalStore(t)

	err := store.Download(context.Background(), "activities/nope.sqlite",
		filepath.Join(tmpDir, "out"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("error = %v, want ErrObjectNotFound", err)
	}
}

func TestLocalStorage_ExistsAndDelete(t *testing.T) {
	store, tmpDir := newLocalStore(t)
	ctx := context.Background()

	src := writeTempFile(t, tmpDir, "a.meta.json", "{}")
	if err := store.Upload(ctx, src, "activities/a.meta.json"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := store.Exists(ctx, "activities/a.meta.json")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true", exists, err)
	}

	if err := store.Delete(ctx, "activities/a.meta.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, err = store.Exists(ctx, "activities/a.meta.json")
	if err != nil || exists {
		t.Fatalf("Exists after delete = %v, %v; want false", exists, err)
	}

	// Deleting a missing object is not an error.
	if err := store.Delete(ctx, "activities/a.meta.json"); err != nil {
		t.Errorf("Delete of missing object: %v", err)
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	store, tmpDir := newLocalStore(t)
	ctx := context.Background()

	for _, name := range []string{"b.sqlite", "a.sqlite"} {
		src := writeTempFile(t, tmpDir, name, "x")
		if err := store.Upload(ctx, src, "activities/"+name); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}
	other := writeTempFile(t, tmpDir, "other.txt", "x")
	if err := store.Upload(ctx, other, "misc/other.txt"); err != nil {
		t.Fatalf("Upload other: %v", err)
	}

	objects, err := store.ListObjects(ctx, "activities/")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	want := []string{"activities/a.sqlite", "activities/b.sqlite"}
	if !reflect.DeepEqual(objects, want) {
		t.Errorf("ListObjects = %v, want %v", objects, want)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	store, tmpDir := newLocalStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := writeTempFile(t, tmpDir, "c.sqlite", "x")
	if err := store.Upload(ctx, src, "activities/c.sqlite"); err == nil {
		t.Error("Upload with cancelled context must fail")
	}
}
