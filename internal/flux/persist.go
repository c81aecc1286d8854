package flux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// KeyPrefix is prepended to a persist config key to form the storage key.
const KeyPrefix = "persist:"

// RehydrateType is the type of the action carrying a loaded snapshot.
const RehydrateType = "persist/REHYDRATE"

// Storage is a durable key-value store for state snapshots.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// PersistConfig describes how a state tree is saved and restored.
type PersistConfig[S any] struct {
	Key     string
	Storage Storage
	// Version is written with every snapshot; snapshots with another version
	// are discarded on load.
	Version int
	// Marshal and Unmarshal default to encoding/json on the whole state.
	Marshal   func(S) ([]byte, error)
	Unmarshal func([]byte) (S, error)
	// Merge combines the loaded state with the current one. It defaults to
	// replacing the current state.
	Merge func(inbound, current S) S
	// Changed reports whether next holds anything Marshal keeps that prev
	// does not. State changes it rejects are not written. Nil writes after
	// every dispatch.
	Changed func(prev, next S) bool
	// Log receives write failures. Nil discards them.
	Log *log.Logger
}

// StorageKey returns the key snapshots are stored under.
func (c PersistConfig[S]) StorageKey() string {
	return KeyPrefix + c.Key
}

func (c PersistConfig[S]) marshal(state S) ([]byte, error) {
	if c.Marshal != nil {
		return c.Marshal(state)
	}
	return json.Marshal(state)
}

func (c PersistConfig[S]) unmarshal(data []byte) (S, error) {
	if c.Unmarshal != nil {
		return c.Unmarshal(data)
	}
	var state S
	err := json.Unmarshal(data, &state)
	return state, err
}

func (c PersistConfig[S]) merge(inbound, current S) S {
	if c.Merge != nil {
		return c.Merge(inbound, current)
	}
	return inbound
}

// Rehydrate carries the snapshot loaded for Key. Found is false when there
// was nothing usable in storage.
type Rehydrate[S any] struct {
	Key     string
	Payload S
	Found   bool
	Err     error
}

func (Rehydrate[S]) Type() string { return RehydrateType }

// PersistReducer wraps reducer so it accepts Rehydrate actions for cfg.Key.
func PersistReducer[S any](cfg PersistConfig[S], reducer Reducer[S]) Reducer[S] {
	return func(state S, action Action) S {
		if r, ok := action.(Rehydrate[S]); ok {
			if r.Key != cfg.Key || !r.Found || r.Err != nil {
				return state
			}
			return cfg.merge(r.Payload, state)
		}
		return reducer(state, action)
	}
}

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Persistor writes the store's state to storage after every change.
type Persistor struct {
	storage Storage
	key     string
	encode  func() ([]byte, error)
	log     *log.Logger

	paused      atomic.Bool
	pending     chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
	writeMu     sync.Mutex
}

// PersistStore loads the snapshot for cfg, dispatches Rehydrate and then keeps
// storage in sync with the store. The store's reducer must be wrapped with
// PersistReducer for the same config.
func PersistStore[S any](ctx context.Context, store *Store[S], cfg PersistConfig[S]) (*Persistor, error) {
	if cfg.Storage == nil {
		return nil, errors.New("flux: persist config has no storage")
	}

	l := cfg.Log
	if l == nil {
		l = log.New(io.Discard)
	}

	rehydrate := Rehydrate[S]{Key: cfg.Key}
	raw, err := cfg.Storage.GetItem(ctx, cfg.StorageKey())
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load persisted state: %w", err)
	default:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			rehydrate.Err = fmt.Errorf("failed to decode persisted state: %w", err)
		} else if env.Version != cfg.Version {
			l.Warn("Discarding persisted state with another version", "key", cfg.Key, "stored", env.Version, "expected", cfg.Version)
		} else if state, err := cfg.unmarshal(env.State); err != nil {
			rehydrate.Err = fmt.Errorf("failed to decode persisted state: %w", err)
		} else {
			rehydrate.Payload = state
			rehydrate.Found = true
		}
	}
	if rehydrate.Err != nil {
		l.Warn("Ignoring unreadable persisted state", "key", cfg.Key, "error", rehydrate.Err)
	}

	store.Dispatch(rehydrate)

	p := &Persistor{
		storage: cfg.Storage,
		key:     cfg.StorageKey(),
		log:     l,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		encode: func() ([]byte, error) {
			state, err := cfg.marshal(store.GetState())
			if err != nil {
				return nil, err
			}
			return json.Marshal(envelope{Version: cfg.Version, State: state})
		},
	}

	var lastMu sync.Mutex
	last := store.GetState()
	p.unsubscribe = store.Subscribe(func(state S) {
		if p.paused.Load() {
			return
		}
		if cfg.Changed != nil {
			lastMu.Lock()
			changed := cfg.Changed(last, state)
			if changed {
				last = state
			}
			lastMu.Unlock()
			if !changed {
				return
			}
		}
		p.schedule()
	})
	go p.loop()

	return p, nil
}

// Flush writes the current state immediately.
func (p *Persistor) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	data, err := p.encode()
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := p.storage.SetItem(ctx, p.key, data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Pause stops writing on state changes until Persist is called.
func (p *Persistor) Pause() {
	p.paused.Store(true)
}

// Persist resumes writing and schedules a write of the current state.
func (p *Persistor) Persist() {
	p.paused.Store(false)
	p.schedule()
}

// Purge removes the snapshot from storage.
func (p *Persistor) Purge(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.storage.RemoveItem(ctx, p.key)
}

// Close stops listening to the store and flushes the last state unless
// paused.
func (p *Persistor) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		p.unsubscribe()
		close(p.done)
		<-p.stopped
		if !p.paused.Load() {
			err = p.Flush(ctx)
		}
	})
	return err
}

func (p *Persistor) schedule() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

func (p *Persistor) loop() {
	defer close(p.stopped)
	for {
		select {
		case <-p.done:
			return
		case <-p.pending:
			if err := p.Flush(context.Background()); err != nil {
				p.log.Error("Failed to persist state", "key", p.key, "error", err)
			}
		}
	}
}
