package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSession is returned by a Store that holds no token yet.
	ErrNoSession = errors.New("no session stored")
	// ErrUnreadableSession is returned by a Store whose stored token cannot
	// be decoded. The Manager replaces it with a new token.
	ErrUnreadableSession = errors.New("stored session is unreadable")
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Store persists the session token of one console client.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
}

// Generate builds a token of the form session_<9 base36 chars>_<unix ms>.
// It identifies an anonymous cart; it is not a credential.
func Generate(now time.Time) string {
	random := make([]byte, 9)
	for i := range random {
		random[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "session_" + string(random) + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Manager hands out the persisted session token, creating it on first use.
type Manager struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time

	mutex sync.Mutex
	id    string
}

func NewManager(store Store, logger *logrus.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ID returns the stored token, generating and saving a new one if the
// store is empty. Once saved the same token is returned on every call.
func (m *Manager) ID(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.id != "" {
		return m.id, nil
	}

	id, err := m.store.Load(ctx)
	if err == nil && id != "" {
		m.id = id
		return id, nil
	}
	if errors.Is(err, ErrUnreadableSession) {
		m.logger.WithError(err).Warn("Discarding unreadable session")
	} else if err != nil && !errors.Is(err, ErrNoSession) {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	id = Generate(m.now())
	if err := m.store.Save(ctx, id); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	// Shared stores keep the first token written; adopt it if we lost.
	if stored, err := m.store.Load(ctx); err == nil && stored != "" {
		id = stored
	}

	m.logger.WithField("session_id", id).Info("Created new session")
	m.id = id
	return id, nil
}

// MemoryStore keeps the token for the life of the process.
type MemoryStore struct {
	mutex sync.RWMutex
	id    string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.id == "" {
		return "", ErrNoSession
	}
	return s.id, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.id = id
	return nil
}
