package store

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sadopc/moodtrack/internal/mood"
)

// MoodStore is the surface the interface layers depend on. *Store implements it.
type MoodStore interface {
	AddEntry(level mood.Level) (*MoodEntry, error)
	DeleteEntry(id uuid.UUID) error
	FetchEntriesSince(ref time.Time) ([]MoodEntry, error)
	FetchLastMonth() ([]MoodEntry, error)
	ListEntries(f EntryFilter) ([]MoodEntry, error)
	GetSetting(key string) (string, error)
	SettingOr(key, fallback string) string
	SetSetting(key, value string) error
	GetAllSettings() ([]Setting, error)
}

var _ MoodStore = (*Store)(nil)

// State is the lifecycle state of a Handle.
type State int

const (
	StateUnopened State = iota
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SetupResult is reported once to the Setup completion.
type SetupResult int

const (
	SetupSuccess SetupResult = iota
	SetupFailed
)

// Handle owns the single store of a process. The database is opened at most
// once, however many goroutines race to open it.
type Handle struct {
	path string
	log  *log.Logger
	opts []Option

	once sync.Once

	mu    sync.RWMutex
	state State
	store *Store
	err   error
}

func NewHandle(path string, logger *log.Logger, opts ...Option) *Handle {
	if logger == nil {
		logger = log.Default()
	}
	return &Handle{
		path: path,
		log:  logger,
		opts: append([]Option{WithLogger(logger)}, opts...),
	}
}

// Open opens the store on first call and returns the open error, if any, on
// every call.
func (h *Handle) Open() error {
	h.once.Do(func() {
		s, err := New(h.path, h.opts...)

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.state == StateClosed {
			// Closed before ever opening.
			if s != nil {
				s.Close()
			}
			return
		}
		if err != nil {
			h.state = StateFailed
			h.err = err
			h.log.Error("storage unavailable", "path", h.path, "err", err)
			return
		}
		h.state = StateReady
		h.store = s
	})
	return h.Err()
}

// Setup opens the store and reports the outcome to completion.
func (h *Handle) Setup(completion func(SetupResult)) {
	result := SetupSuccess
	if err := h.Open(); err != nil {
		result = SetupFailed
	}
	if completion != nil {
		completion(result)
	}
}

func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Err returns the open error once the handle has failed.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Store returns the open store. A failed handle returns its open error
// (wrapping ErrStorageOpenFailed) rather than an empty store.
func (h *Handle) Store() (*Store, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch h.state {
	case StateReady:
		return h.store, nil
	case StateFailed:
		return nil, h.err
	case StateClosed:
		return nil, ErrClosed
	}
	return nil, ErrNotReady
}

// Close closes the store. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed {
		return nil
	}
	prev := h.state
	h.state = StateClosed
	if prev == StateReady {
		err := h.store.Close()
		h.store = nil
		return err
	}
	return nil
}
