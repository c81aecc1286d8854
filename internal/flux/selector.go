package flux

import "sync"

// CreateSelector returns a selector that recomputes combine only when the
// value produced by input changes. For pointer inputs this is reference
// equality, which holds as long as reducers copy on write.
func CreateSelector[S any, I comparable, O any](input func(S) I, combine func(I) O) func(S) O {
	var (
		mu      sync.Mutex
		seen    bool
		lastIn  I
		lastOut O
	)

	return func(state S) O {
		in := input(state)

		mu.Lock()
		defer mu.Unlock()

		if seen && in == lastIn {
			return lastOut
		}

		lastIn = in
		lastOut = combine(in)
		seen = true
		return lastOut
	}
}
