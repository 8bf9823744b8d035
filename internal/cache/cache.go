// Package cache stores fetched page bodies on disk so repeated scrape runs
// can revalidate with conditional requests instead of re-downloading.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Meta captures enough response metadata to support conditional
// revalidation of a cached page.
type Meta struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store keeps pages on disk as <key>.meta.json and <key>.body where key is
// sha256(url). Deterministic layout, no eviction policy; use PurgeByAge for
// housekeeping.
type Store struct {
	Dir string
}

func (s *Store) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s *Store) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (s *Store) metaPath(key string) string { return filepath.Join(s.Dir, key+".meta.json") }
func (s *Store) bodyPath(key string) string { return filepath.Join(s.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (s *Store) LoadMeta(_ context.Context, url string) (*Meta, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.metaPath(s.key(url)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m Meta
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadBody returns the cached page body if present.
func (s *Store) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.bodyPath(s.key(url)))
}

// Save stores a page body and its revalidation metadata.
func (s *Store) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	key := s.key(url)
	if err := os.WriteFile(s.bodyPath(key), body, 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := Meta{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	}
	tmp := s.metaPath(key) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create meta: %w", err)
	}
	if err := json.NewEncoder(f).Encode(&meta); err != nil {
		f.Close()
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.metaPath(key))
}
