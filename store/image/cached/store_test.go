package cached

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rbaliyan/groupware/store/memory"
)

func load(t *testing.T, s *Store, uri string) string {
	t.Helper()
	rc, err := s.Load(context.Background(), uri)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return string(data)
}

func TestLoadCaches(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewImages()
	s, err := New(backend, WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	uri, err := s.Upload(ctx, "ann.jpg", "image/jpeg", strings.NewReader("JPEGDATA"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := load(t, s, uri); got != "JPEGDATA" {
			t.Fatalf("load %d = %q", i, got)
		}
	}
	if n := backend.Loads(); n != 1 {
		t.Errorf("backend loads = %d, want 1", n)
	}
	if s.Size() != int64(len("JPEGDATA")) {
		t.Errorf("size = %d", s.Size())
	}

	if err := s.Delete(ctx, uri); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Size() != 0 {
		t.Errorf("size after delete = %d", s.Size())
	}
	if backend.Len() != 0 {
		t.Error("backend still holds the image")
	}
}

func TestLimitAndExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("too large is not cached", func(t *testing.T) {
		backend := memory.NewImages()
		s, err := New(backend, WithDir(t.TempDir()), WithMaxSize(4))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		uri, _ := s.Upload(ctx, "big.png", "image/png", strings.NewReader("0123456789"))
		load(t, s, uri)
		load(t, s, uri)
		if n := backend.Loads(); n != 2 {
			t.Errorf("backend loads = %d, want 2", n)
		}
		if s.Size() != 0 {
			t.Errorf("size = %d", s.Size())
		}
	})

	t.Run("partial read is not cached", func(t *testing.T) {
		backend := memory.NewImages()
		s, err := New(backend, WithDir(t.TempDir()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		uri, _ := s.Upload(ctx, "a.png", "image/png", strings.NewReader("0123456789"))
		rc, err := s.Load(ctx, uri)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		buf := make([]byte, 3)
		if _, err := rc.Read(buf); err != nil {
			t.Fatalf("read: %v", err)
		}
		rc.Close()
		if s.Size() != 0 {
			t.Errorf("size = %d", s.Size())
		}
	})

	t.Run("expired files are refetched and pruned", func(t *testing.T) {
		backend := memory.NewImages()
		s, err := New(backend, WithDir(t.TempDir()), WithTTL(time.Nanosecond))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		uri, _ := s.Upload(ctx, "a.png", "image/png", strings.NewReader("abc"))
		load(t, s, uri)
		time.Sleep(time.Millisecond)
		load(t, s, uri)
		if n := backend.Loads(); n != 2 {
			t.Errorf("backend loads = %d, want 2", n)
		}
		time.Sleep(time.Millisecond)
		if n := s.Prune(); n != 1 {
			t.Errorf("pruned = %d, want 1", n)
		}
		if s.Size() != 0 {
			t.Errorf("size = %d", s.Size())
		}
	})
}

func TestExistingCacheCounted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend := memory.NewImages()

	first, err := New(backend, WithDir(dir))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	uri, _ := first.Upload(ctx, "a.png", "image/png", strings.NewReader("abcdef"))
	load(t, first, uri)

	second, err := New(backend, WithDir(dir))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if second.Size() != 6 {
		t.Errorf("size = %d, want 6", second.Size())
	}
}
