package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plateful/recipescout/internal/recipe"
)

// FileStore keeps entries on disk as <key>.json under Dir. Writes go to a
// temp file and rename into place so readers never see a partial entry.
type FileStore struct {
	Dir  string
	TTLs TTLTable
	// Now is overridable in tests.
	Now func() time.Time
}

func (s *FileStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *FileStore) ttls() TTLTable {
	if s.TTLs != nil {
		return s.TTLs
	}
	return DefaultTTLs()
}

func (s *FileStore) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(s.Dir, "sources"), 0o755)
}

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileStore) sourcePath(url string) string {
	return filepath.Join(s.Dir, "sources", SourceKey(url)+".t")
}

// Get returns the entry for key if present and not expired. Expired entries
// read as misses; deletion is left to Sweep.
func (s *FileStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	if err := s.ensureDir(); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		return nil, false, nil
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, nil
	}
	if !s.now().Before(e.ExpiresAt) {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores validated records under key with an expiry from the TTL table.
func (s *FileStore) Put(ctx context.Context, key string, records []recipe.Recipe, class recipe.Class) error {
	return s.write(Entry{Key: key, Records: records, Class: class})
}

// PutRaw stores a raw provider response; raw payloads always use the
// short-lived raw class.
func (s *FileStore) PutRaw(ctx context.Context, key string, raw []byte) error {
	return s.write(Entry{Key: key, Raw: raw, Class: recipe.ClassRaw})
}

func (s *FileStore) write(e Entry) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	now := s.now()
	e.CreatedAt = now
	e.ExpiresAt = now.Add(s.ttls().TTLFor(e.Class))
	b, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	p := s.entryPath(e.Key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Sweep deletes expired entries and returns how many were removed.
func (s *FileStore) Sweep(_ context.Context) (int, error) {
	if err := s.ensureDir(); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		p := filepath.Join(s.Dir, de.Name())
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil || !now.Before(e.ExpiresAt) {
			if os.Remove(p) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// TouchSource records the current time for a source URL.
func (s *FileStore) TouchSource(_ context.Context, url string) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	stamp := s.now().Format(time.RFC3339)
	return os.WriteFile(s.sourcePath(url), []byte(stamp), 0o644)
}

// LastSource reports when the source URL last yielded a valid record.
func (s *FileStore) LastSource(_ context.Context, url string) (time.Time, bool) {
	b, err := os.ReadFile(s.sourcePath(url))
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clear removes every entry under dir. Used by the --cache.clear startup
// control.
func Clear(dir string) error {
	if dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
