package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
)

// library is the on-disk document. Lists keep insertion order.
type library struct {
	Contents []models.Content        `json:"contents"`
	Posts    []models.Post           `json:"posts"`
	Entries  []models.ScheduledEntry `json:"entries"`
}

func (l *library) clone() *library {
	c := &library{
		Contents: make([]models.Content, len(l.Contents)),
		Posts:    make([]models.Post, len(l.Posts)),
		Entries:  make([]models.ScheduledEntry, len(l.Entries)),
	}
	copy(c.Contents, l.Contents)
	copy(c.Posts, l.Posts)
	copy(c.Entries, l.Entries)
	return c
}

// JSONStore keeps the library in memory and rewrites the whole file after
// every mutation. One mutex guards both the lists and the file within the
// process; an exclusive flock on "<path>.lock" serializes writers across
// processes. Every access first reloads the file when another process has
// replaced it, so a menu, a server and one-shot commands can share a library.
type JSONStore struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	lib *library
	// stamp describes the file lib was read from or last written to; nil
	// when there is no file.
	stamp os.FileInfo
}

func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		logger: logger,
		lib:    &library{},
	}
}

// Load replaces the in-memory library with the file contents. A missing file
// leaves an empty library.
func (s *JSONStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp = nil
	s.lib = &library{}
	if err := s.refresh(); err != nil {
		return err
	}
	if s.stamp == nil {
		s.logger.Info("No existing library found", zap.String("path", s.path))
		return nil
	}

	s.logger.Info("Library loaded",
		zap.String("path", s.path),
		zap.Int("contents", len(s.lib.Contents)),
		zap.Int("posts", len(s.lib.Posts)),
		zap.Int("entries", len(s.lib.Entries)))
	return nil
}

// refresh rereads the file when it differs from stamp. Must be called with
// s.mu held for writing.
func (s *JSONStore) refresh() error {
	fi, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if s.stamp != nil {
			s.logger.Info("Library file removed, clearing memory", zap.String("path", s.path))
			s.lib = &library{}
			s.stamp = nil
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat library %s: %w", s.path, err)
	}
	if s.stamp != nil && os.SameFile(s.stamp, fi) &&
		s.stamp.ModTime().Equal(fi.ModTime()) && s.stamp.Size() == fi.Size() {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read library %s: %w", s.path, err)
	}
	lib := &library{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, lib); err != nil {
			return fmt.Errorf("failed to parse library %s: %w", s.path, err)
		}
	}
	if s.stamp != nil {
		s.logger.Debug("Library changed on disk, reloaded", zap.String("path", s.path))
	}
	s.lib = lib
	s.stamp = fi
	return nil
}

// view refreshes and then holds the read lock until the returned func runs.
func (s *JSONStore) view() (func(), error) {
	s.mu.Lock()
	err := s.refresh()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	return s.mu.RUnlock, nil
}

func (s *JSONStore) lockFile() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open library lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to lock library: %w", err)
	}
	return f, nil
}

func unlockFile(f *os.File) {
	if f == nil {
		return
	}
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	_ = f.Close()
}

// exclusive runs fn holding both the file lock and s.mu, after a refresh.
func (s *JSONStore) exclusive(fn func() error) error {
	f, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlockFile(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return err
	}
	return fn()
}

func (s *JSONStore) Save(ctx context.Context) error {
	return s.exclusive(func() error {
		return s.write(s.lib)
	})
}

// write must be called from exclusive.
func (s *JSONStore) write(lib *library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp library file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp library file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace library %s: %w", s.path, err)
	}

	fi, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat library %s: %w", s.path, err)
	}
	s.stamp = fi
	return nil
}

// mutate applies fn to a copy of the current file contents and only swaps it
// in once the file is written, so a failed write leaves memory and disk in
// agreement.
func (s *JSONStore) mutate(fn func(lib *library) error) error {
	return s.exclusive(func() error {
		next := s.lib.clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := s.write(next); err != nil {
			return err
		}
		s.lib = next
		return nil
	})
}

func (s *JSONStore) AddContent(ctx context.Context, content *models.Content, posts []*models.Post) error {
	return s.mutate(func(lib *library) error {
		for _, c := range lib.Contents {
			if c.ID == content.ID {
				return fmt.Errorf("content %s already exists", content.ID)
			}
		}
		lib.Contents = append(lib.Contents, *content)
		for _, p := range posts {
			lib.Posts = append(lib.Posts, *p)
		}
		return nil
	})
}

func (s *JSONStore) ListContents(ctx context.Context) ([]models.Content, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	out := make([]models.Content, len(s.lib.Contents))
	copy(out, s.lib.Contents)
	return out, nil
}

func (s *JSONStore) GetContent(ctx context.Context, id string) (*models.Content, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	for _, c := range s.lib.Contents {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
}

func (s *JSONStore) FindContent(ctx context.Context, title, language string) (*models.Content, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	for _, c := range s.lib.Contents {
		if strings.EqualFold(c.Title, title) && c.Language == language {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("content %q (%s): %w", title, language, ErrNotFound)
}

func (s *JSONStore) ListPosts(ctx context.Context, contentID string) ([]models.Post, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	var out []models.Post
	for _, p := range s.lib.Posts {
		if contentID == "" || p.ContentID == contentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *JSONStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	for _, p := range s.lib.Posts {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
}

func (s *JSONStore) TransitionPost(ctx context.Context, id string, from, to models.PostStatus, at time.Time) error {
	if err := models.ValidatePostTransition(from, to); err != nil {
		return err
	}
	return s.mutate(func(lib *library) error {
		for i := range lib.Posts {
			p := &lib.Posts[i]
			if p.ID != id {
				continue
			}
			if p.Status != from {
				return fmt.Errorf("post %s is %s, expected %s: %w", id, p.Status, from, ErrStatusConflict)
			}
			p.Status = to
			if to == models.PostPublished {
				published := at
				p.PublishedAt = &published
			}
			return nil
		}
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	})
}

func (s *JSONStore) ScheduleEntry(ctx context.Context, entry *models.ScheduledEntry) error {
	return s.mutate(func(lib *library) error {
		var post *models.Post
		for i := range lib.Posts {
			if lib.Posts[i].ID == entry.PostID {
				post = &lib.Posts[i]
				break
			}
		}
		if post == nil {
			return fmt.Errorf("post %s: %w", entry.PostID, ErrNotFound)
		}

		pending := 0
		for _, e := range lib.Entries {
			if e.PostID == post.ID && e.Status == models.EntryPending {
				pending++
			}
		}
		if err := checkSchedulable(post, pending); err != nil {
			return err
		}

		post.Status = models.PostScheduled
		lib.Entries = append(lib.Entries, *entry)
		return nil
	})
}

// ListEntries returns matching entries ordered by scheduled time.
func (s *JSONStore) ListEntries(ctx context.Context, filter EntryFilter) ([]models.ScheduledEntry, error) {
	done, err := s.view()
	if err != nil {
		return nil, err
	}
	defer done()

	var out []models.ScheduledEntry
	for _, e := range s.lib.Entries {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.PostID != "" && e.PostID != filter.PostID {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

func (s *JSONStore) TransitionEntry(ctx context.Context, id string, from, to models.EntryStatus, errMsg string, at time.Time) error {
	if err := models.ValidateEntryTransition(from, to); err != nil {
		return err
	}
	return s.mutate(func(lib *library) error {
		for i := range lib.Entries {
			e := &lib.Entries[i]
			if e.ID != id {
				continue
			}
			if e.Status != from {
				return fmt.Errorf("entry %s is %s, expected %s: %w", id, e.Status, from, ErrStatusConflict)
			}
			e.Status = to
			e.Error = errMsg
			e.UpdatedAt = at
			return nil
		}
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	})
}

// Clear deletes the library file and empties memory. A missing file is fine.
func (s *JSONStore) Clear(ctx context.Context) error {
	return s.exclusive(func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete library %s: %w", s.path, err)
		}
		s.lib = &library{}
		s.stamp = nil
		return nil
	})
}

func (s *JSONStore) Close() error {
	return nil
}
