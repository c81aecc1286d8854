// Package flux is a small predictable-state container: a reducer folds
// actions into an immutable state tree, middleware wraps dispatch, and thunks
// run asynchronous flows that dispatch as they settle.
//
// Every dispatch goes through one mutex, so reducer applications never
// interleave even when thunks complete on different goroutines. Reducers must
// treat the previous state as read-only and return a new value on change.
package flux

import (
	"context"
	"fmt"
	"sync"
)

// Action is anything a reducer can fold into state.
type Action interface {
	Type() string
}

// Reducer folds an action into state. It must be pure.
type Reducer[S any] func(state S, action Action) S

// DispatchFunc delivers an action to the next link of the middleware chain.
type DispatchFunc func(action Action)

// StateGetter gives middleware read access to the store.
type StateGetter[S any] interface {
	GetState() S
}

// Middleware wraps the dispatch chain.
type Middleware[S any] func(store StateGetter[S]) func(next DispatchFunc) DispatchFunc

// Dispatcher is the part of the store a thunk drives.
type Dispatcher interface {
	Dispatch(action Action)
	Go(ctx context.Context, thunk Thunk) <-chan error
}

// Thunk is an asynchronous flow. It reports its own failures through
// dispatched actions; the returned error is informational.
type Thunk func(ctx context.Context, d Dispatcher) error

// Store holds the state tree.
type Store[S any] struct {
	dispatchMu sync.Mutex
	notifyMu   sync.Mutex

	stateMu sync.RWMutex
	state   S

	reducer  Reducer[S]
	dispatch DispatchFunc

	subsMu  sync.Mutex
	subs    map[int]func(S)
	nextSub int

	inflight sync.WaitGroup
}

// New creates a store. Middleware is applied in order: the first entry sees
// every action first.
func New[S any](reducer Reducer[S], initial S, middleware ...Middleware[S]) *Store[S] {
	s := &Store[S]{
		state:   initial,
		reducer: reducer,
		subs:    make(map[int]func(S)),
	}

	dispatch := s.reduce
	for i := len(middleware) - 1; i >= 0; i-- {
		dispatch = middleware[i](s)(dispatch)
	}
	s.dispatch = dispatch

	return s
}

// GetState returns the current state.
func (s *Store[S]) GetState() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Dispatch runs action through the middleware chain and the reducer, then
// notifies subscribers. Subscribers must not dispatch synchronously.
func (s *Store[S]) Dispatch(action Action) {
	s.dispatchMu.Lock()
	s.dispatch(action)
	state := s.GetState()
	s.notifyMu.Lock()
	s.dispatchMu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	listeners := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Subscribe registers fn to be called with the state after every dispatch.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// Run executes thunk on the calling goroutine.
func (s *Store[S]) Run(ctx context.Context, thunk Thunk) error {
	s.inflight.Add(1)
	defer s.inflight.Done()
	return s.call(ctx, thunk)
}

// Go executes thunk on a new goroutine without waiting for it. The returned
// channel receives the thunk's result and is then closed.
func (s *Store[S]) Go(ctx context.Context, thunk Thunk) <-chan error {
	done := make(chan error, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(done)
		done <- s.call(ctx, thunk)
	}()
	return done
}

// Wait blocks until every thunk started through Run or Go has returned.
func (s *Store[S]) Wait() {
	s.inflight.Wait()
}

func (s *Store[S]) call(ctx context.Context, thunk Thunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrThunkPanicked, r)
		}
	}()
	return thunk(ctx, s)
}

func (s *Store[S]) reduce(action Action) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = s.reducer(s.state, action)
}
