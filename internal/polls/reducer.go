package polls

import (
	"github.com/tenemo/sealed-vote/internal/flux"
)

// Reducer folds poll actions into state. It never mutates state: every
// change returns a new *State sharing the entries it did not touch, and
// unknown actions return state itself.
//
// Poll and vote actions for an id that was never fetched start from an idle
// entry.
func Reducer(state *State, action flux.Action) *State {
	if state == nil {
		state = InitialState()
	}

	switch a := action.(type) {
	case CreatePollRequestAction:
		c := state.createPoll()
		c.IsLoading = true
		c.Error = nil
		return state.withCreatePoll(c)

	case CreatePollFailureAction:
		c := state.createPoll()
		c.IsLoading = false
		c.Error = a.Err
		c.Response = nil
		return state.withCreatePoll(c)

	case CreatePollSuccessAction:
		c := state.createPoll()
		c.IsLoading = false
		c.Error = nil
		c.Response = a.Response
		return state.withCreatePoll(c)

	case CreatePollClearAction:
		return state.withCreatePoll(CreatePollState{})

	case PollRequestAction:
		p := state.poll(a.PollID)
		p.IsLoading = true
		p.Error = nil
		return state.withPoll(a.PollID, p)

	case PollFailureAction:
		p := state.poll(a.PollID)
		p.IsLoading = false
		p.Error = a.Err
		return state.withPoll(a.PollID, p)

	case PollSuccessAction:
		p := state.poll(a.PollID)
		p.IsLoading = false
		p.Error = nil
		p.Response = a.Response
		return state.withPoll(a.PollID, p)

	case VoteRequestAction:
		p := state.poll(a.PollID)
		p.Vote.IsLoading = true
		p.Vote.Error = nil
		return state.withPoll(a.PollID, p)

	case VoteFailureAction:
		p := state.poll(a.PollID)
		p.Vote.IsLoading = false
		p.Vote.Error = a.Err
		return state.withPoll(a.PollID, p)

	case VoteSuccessAction:
		p := state.poll(a.PollID)
		receipt := a.Response
		p.Vote.IsLoading = false
		p.Vote.Error = nil
		p.Vote.Response = &receipt
		return state.withPoll(a.PollID, p)

	default:
		return state
	}
}
