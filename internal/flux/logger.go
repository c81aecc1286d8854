package flux

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pmezard/go-difflib/difflib"
)

// LoggerOptions configures the action logger.
type LoggerOptions struct {
	// Diff logs a unified diff between the state before and after each action.
	Diff bool
	// Collapsed logs a single line per action instead of both full states.
	Collapsed bool
}

// NewLogger returns middleware logging every action at debug level.
func NewLogger[S any](l *log.Logger, opts LoggerOptions) Middleware[S] {
	return func(store StateGetter[S]) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(action Action) {
				if l.GetLevel() > log.DebugLevel {
					next(action)
					return
				}

				prev := store.GetState()
				start := time.Now()
				next(action)
				took := time.Since(start)
				current := store.GetState()

				if opts.Collapsed {
					l.Debug("action", "type", action.Type(), "took", took)
				} else {
					l.Debug("action",
						"type", action.Type(),
						"took", took,
						"action", marshalForLog(action),
						"prev", marshalForLog(prev),
						"next", marshalForLog(current))
				}

				if opts.Diff {
					if diff := StateDiff(prev, current); diff != "" {
						l.Debug("state diff", "type", action.Type(), "diff", diff)
					}
				}
			}
		}
	}
}

// StateDiff renders a unified diff of the JSON encodings of prev and next.
// It returns an empty string when they encode identically.
func StateDiff(prev, next any) string {
	a := marshalForLog(prev)
	b := marshalForLog(next)
	if a == b {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "prev",
		ToFile:   "next",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}

func marshalForLog(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "<unencodable: " + err.Error() + ">"
	}
	return string(data) + "\n"
}
