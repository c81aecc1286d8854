package polls

import (
	"github.com/tenemo/sealed-vote/internal/flux"
)

// Root is any state tree holding the poll domain.
type Root interface {
	PollsState() *State
}

// GetPolls projects the root state to the poll domain.
func GetPolls(root Root) *State {
	return root.PollsState()
}

// GetPollsCreatePoll returns the poll creation state. It is recomputed only
// when the poll domain changes.
var GetPollsCreatePoll = flux.CreateSelector(GetPolls, func(s *State) *CreatePollState {
	if s == nil {
		return nil
	}
	return s.CreatePoll
})

// MakeGetPoll returns a selector for one poll. Every call creates its own
// memo, so selectors for different ids never evict each other. A nil result
// means the poll was not loaded yet.
func MakeGetPoll(pollID string) func(Root) *Poll {
	return flux.CreateSelector(
		func(root Root) *Poll {
			s := GetPolls(root)
			if s == nil {
				return nil
			}
			return s.Polls[pollID]
		},
		func(p *Poll) *Poll { return p },
	)
}
