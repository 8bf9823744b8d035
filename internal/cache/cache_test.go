package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	s := &Store{Dir: t.TempDir()}
	url := "https://example.com/article"

	if err := s.Save(context.Background(), url, "text/html", `"etag1"`, "Mon, 02 Jan 2006", []byte("<html>body</html>")); err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := s.LoadMeta(context.Background(), url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.ETag != `"etag1"` || meta.ContentType != "text/html" {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	body, err := s.LoadBody(context.Background(), url)
	if err != nil {
		t.Fatalf("load body: %v", err)
	}
	if string(body) != "<html>body</html>" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestStore_MissingEntry(t *testing.T) {
	t.Parallel()
	s := &Store{Dir: t.TempDir()}
	if _, err := s.LoadMeta(context.Background(), "https://example.com/none"); err == nil {
		t.Fatalf("expected error for missing meta")
	}
	if _, err := s.LoadBody(context.Background(), "https://example.com/none"); err == nil {
		t.Fatalf("expected error for missing body")
	}
}

func TestPurgeByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := &Store{Dir: dir}
	if err := s.Save(context.Background(), "https://example.com/old", "text/html", "", "", []byte("old")); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Entries newer than maxAge stay.
	removed, err := PurgeByAge(dir, time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing purged, got %d", removed)
	}

	// A tiny maxAge expires everything written before this instant.
	time.Sleep(10 * time.Millisecond)
	removed, err = PurgeByAge(dir, time.Millisecond)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged, got %d", removed)
	}
	if _, err := s.LoadBody(context.Background(), "https://example.com/old"); err == nil {
		t.Fatalf("expected purged entry to be gone")
	}
}
