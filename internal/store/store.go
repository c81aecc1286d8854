// Package store assembles the process-wide state store: the root reducer,
// its middleware and optional persistence.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/polls"
)

// PersistKey is the key the state tree is persisted under. Session stores
// append the session id to it.
const PersistKey = "root"

// PersistVersion is bumped whenever the persisted shape changes.
const PersistVersion = 1

// BuildProduction disables development middleware.
const BuildProduction = "production"

// RootState is the whole state tree.
type RootState struct {
	Polls  *polls.State `json:"polls"`
	Router *RouterState `json:"router"`
}

var _ polls.Root = (*RootState)(nil)

// PollsState implements polls.Root
func (s *RootState) PollsState() *polls.State {
	if s == nil {
		return nil
	}
	return s.Polls
}

// InitialState returns the state tree of a fresh process
func InitialState() *RootState {
	return &RootState{
		Polls:  polls.InitialState(),
		Router: &RouterState{},
	}
}

// RootReducer combines the domain reducers. The root is copied only when a
// subtree changed.
func RootReducer(state *RootState, action flux.Action) *RootState {
	if state == nil {
		state = InitialState()
	}

	pollsState := polls.Reducer(state.Polls, action)
	router := RouterReducer(state.Router, action)
	if pollsState == state.Polls && router == state.Router {
		return state
	}
	return &RootState{Polls: pollsState, Router: router}
}

// Options configures Configure
type Options struct {
	// BuildType selects the middleware set; see BuildProduction.
	BuildType string
	API       polls.API
	// Storage enables persistence when set.
	Storage flux.Storage
	// Key overrides PersistKey.
	Key     string
	Logger  *log.Logger
	// ActionOptions are passed to polls.NewActions.
	ActionOptions []polls.Option
}

// Store is the configured application store.
type Store struct {
	*flux.Store[*RootState]
	Actions *polls.Actions

	persistor *flux.Persistor
	log       *log.Logger
}

// Configure builds the store and, when storage is configured, restores the
// persisted state before returning.
func Configure(ctx context.Context, opts Options) (*Store, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("store: poll API is required")
	}

	l := opts.Logger
	if l == nil {
		l = logger.Store()
	}

	var middleware []flux.Middleware[*RootState]
	if opts.BuildType != BuildProduction {
		middleware = append(middleware, flux.NewLogger[*RootState](l, flux.LoggerOptions{
			Diff:      true,
			Collapsed: true,
		}))
	}

	reducer := flux.Reducer[*RootState](RootReducer)
	var cfg flux.PersistConfig[*RootState]
	if opts.Storage != nil {
		key := opts.Key
		if key == "" {
			key = PersistKey
		}
		cfg = persistConfig(key, opts.Storage, logger.Persistence())
		reducer = flux.PersistReducer(cfg, reducer)
	}

	s := &Store{
		Store:   flux.New(reducer, InitialState(), middleware...),
		Actions: polls.NewActions(opts.API, append([]polls.Option{polls.WithLogger(l)}, opts.ActionOptions...)...),
		log:     l,
	}

	if opts.Storage != nil {
		persistor, err := flux.PersistStore(ctx, s.Store, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to restore state: %w", err)
		}
		s.persistor = persistor
	}

	l.Info("Store configured",
		"buildType", opts.BuildType,
		"logger", opts.BuildType != BuildProduction,
		"persistence", opts.Storage != nil)

	return s, nil
}

// Persistor returns the persistence controller, nil when persistence is off
func (s *Store) Persistor() *flux.Persistor {
	return s.persistor
}

// Close waits for in-flight thunks and writes the final state.
func (s *Store) Close(ctx context.Context) error {
	s.Wait()
	if s.persistor == nil {
		return nil
	}
	if err := s.persistor.Close(ctx); err != nil {
		return fmt.Errorf("failed to persist final state: %w", err)
	}
	s.log.Info("Store closed")
	return nil
}

// persistConfig keeps only the poll domain. Router state belongs to the
// running process.
func persistConfig(key string, storage flux.Storage, l *log.Logger) flux.PersistConfig[*RootState] {
	return flux.PersistConfig[*RootState]{
		Key:     key,
		Storage: storage,
		Version: PersistVersion,
		Log:     l,
		Marshal: func(s *RootState) ([]byte, error) {
			return json.Marshal(s.Polls)
		},
		Unmarshal: func(data []byte) (*RootState, error) {
			var p polls.State
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, err
			}
			return &RootState{Polls: polls.Settle(&p)}, nil
		},
		Merge: func(inbound, current *RootState) *RootState {
			return &RootState{Polls: inbound.Polls, Router: current.Router}
		},
		Changed: func(prev, next *RootState) bool {
			return prev.Polls != next.Polls
		},
	}
}
