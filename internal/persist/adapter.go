package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/safar/storefront/internal/models"
)

// SchemaVersion tags every blob written. Blobs carrying any other version are
// discarded on load instead of being partially decoded.
const SchemaVersion = 1

const DefaultKey = "wrap-wonders-store"

type Logger interface {
	Printf(format string, v ...any)
}

type Options struct {
	Key          string
	WriteTimeout time.Duration
	Logger       Logger
}

// Adapter persists store snapshots. Persist only records the latest snapshot
// and wakes a background writer, so callers never wait on storage. Write
// failures are logged and kept in Err; they never reach the caller.
type Adapter struct {
	kv           KV
	key          string
	writeTimeout time.Duration
	logger       Logger

	mu      sync.Mutex
	pending *models.PersistedState
	lastErr error
	writes  int
	closed  bool

	// writeMu orders writes so an older snapshot never lands after a newer one.
	writeMu sync.Mutex

	signal    chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewAdapter(kv KV, opts Options) *Adapter {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	a := &Adapter{
		kv:           kv,
		key:          opts.Key,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
		signal:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go a.run()
	return a
}

func DefaultState() models.PersistedState {
	return models.PersistedState{
		SchemaVersion: SchemaVersion,
		UIPreferences: models.DefaultUIPreferences(),
	}
}

// Load returns the persisted state, or DefaultState when nothing usable is
// stored. A corrupt or incompatible blob is logged and deleted.
func (a *Adapter) Load(ctx context.Context) models.PersistedState {
	state, err := a.Read(ctx)
	if err == nil {
		return state
	}

	switch {
	case errors.Is(err, ErrKeyNotFound):
	case errors.Is(err, ErrCorrupt), errors.Is(err, ErrSchemaMismatch):
		a.logger.Printf("Discarding persisted state %s: %v", a.key, err)
		if delErr := a.kv.Delete(ctx, a.key); delErr != nil {
			a.logger.Printf("Delete persisted state %s: %v", a.key, delErr)
		}
	default:
		a.logger.Printf("Load persisted state %s: %v", a.key, err)
	}
	return DefaultState()
}

// Read decodes the stored blob without any fallback.
func (a *Adapter) Read(ctx context.Context) (models.PersistedState, error) {
	data, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return models.PersistedState{}, err
	}
	return Decode(data)
}

func (a *Adapter) Persist(state models.PersistedState) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Printf("Persist %s after close ignored", a.key)
		return
	}
	a.pending = &state
	a.mu.Unlock()

	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Flush writes the pending snapshot, if any, before returning.
func (a *Adapter) Flush(ctx context.Context) error {
	return a.writePending(ctx)
}

// Close stops the background writer after writing whatever is pending.
// Snapshots persisted once Close has started are ignored.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		close(a.done)
		<-a.stopped

		ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
		defer cancel()
		err = a.writePending(ctx)
	})
	return err
}

// Err returns the error from the most recent write, nil if it succeeded.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Writes counts successful writes.
func (a *Adapter) Writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes
}

func (a *Adapter) run() {
	defer close(a.stopped)

	for {
		select {
		case <-a.signal:
			ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
			a.writePending(ctx)
			cancel()
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) writePending(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	state := a.pending
	a.pending = nil
	a.mu.Unlock()

	if state == nil {
		return nil
	}

	err := a.write(ctx, *state)

	a.mu.Lock()
	a.lastErr = err
	if err == nil {
		a.writes++
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Printf("Persist %s failed: %v", a.key, err)
	}
	return err
}

func (a *Adapter) write(ctx context.Context, state models.PersistedState) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func Encode(state models.PersistedState) ([]byte, error) {
	state.SchemaVersion = SchemaVersion
	if state.Cart == nil {
		state.Cart = []models.CartLine{}
	}
	if state.Wishlist == nil {
		state.Wishlist = []models.Product{}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (models.PersistedState, error) {
	var header struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return models.PersistedState{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if header.SchemaVersion == nil {
		return models.PersistedState{}, fmt.Errorf("%w: missing schema version", ErrSchemaMismatch)
	}
	if *header.SchemaVersion != SchemaVersion {
		return models.PersistedState{}, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, *header.SchemaVersion, SchemaVersion)
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.PersistedState{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return state, nil
}
