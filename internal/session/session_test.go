package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

var tokenPattern = regexp.MustCompile(`^session_[0-9a-z]{9}_\d+$`)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	logger.SetOutput(io.Discard)
	return logger
}

func TestGenerateFormat(t *testing.T) {
	now := time.UnixMilli(1773446400123)
	id := Generate(now)

	if !tokenPattern.MatchString(id) {
		t.Fatalf("Unexpected token format %q", id)
	}
	if id[len(id)-13:] != "1773446400123" {
		t.Errorf("Expected timestamp suffix, got %q", id)
	}
	if Generate(now) == id {
		t.Error("Expected random component to differ between tokens")
	}
}

func TestManagerCreatesOnce(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	first, err := manager.ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, _ := manager.ID(ctx)
	if first != second {
		t.Errorf("Expected stable id, got %q then %q", first, second)
	}

	stored, _ := store.Load(ctx)
	if stored != first {
		t.Errorf("Expected id to be persisted, got %q", stored)
	}
}

func TestManagerConcurrentFirstUse(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testLogger())

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = manager.ID(context.Background())
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("Expected one id across goroutines, got %q and %q", ids[0], id)
		}
	}
}

func TestSessionSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	ctx := context.Background()

	first, err := NewManager(NewFileStore(path), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// A fresh manager stands in for a reloaded page or a new CLI run.
	second, err := NewManager(NewFileStore(path), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("Expected %q after reload, got %q", first, second)
	}
}

func TestFileStoreEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestCorruptSessionFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	ctx := context.Background()

	if _, err := NewFileStore(path).Load(ctx); !errors.Is(err, ErrUnreadableSession) {
		t.Fatalf("Expected ErrUnreadableSession, got %v", err)
	}

	first, err := NewManager(NewFileStore(path), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !tokenPattern.MatchString(first) {
		t.Errorf("Unexpected token %q", first)
	}

	second, err := NewManager(NewFileStore(path), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("Expected replacement token %q to persist, got %q", first, second)
	}
}

type failingStore struct{}

func (failingStore) Load(ctx context.Context) (string, error) {
	return "", errors.New("disk on fire")
}

func (failingStore) Save(ctx context.Context, id string) error {
	return nil
}

func TestManagerSurfacesLoadErrors(t *testing.T) {
	_, err := NewManager(failingStore{}, testLogger()).ID(context.Background())
	if err == nil {
		t.Fatal("Expected load error to be returned")
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store, closeFn, err := Open(ctx, Options{Backend: "file", File: path}, testLogger())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer closeFn()
	if fs, ok := store.(*FileStore); !ok || fs.Path() != path {
		t.Errorf("Expected file store at %s, got %T", path, store)
	}

	if _, _, err := Open(ctx, Options{Backend: "etcd"}, testLogger()); err == nil {
		t.Error("Expected unknown backend error")
	}
}
