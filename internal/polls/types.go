// Package polls holds the poll domain of the state tree: its shape, the
// actions folding into it, the reducer, the thunks talking to the poll API
// and the selectors reading it back.
package polls

import (
	"github.com/tenemo/sealed-vote/internal/domain/poll"
)

// State is the poll domain of the state tree.
type State struct {
	CreatePoll *CreatePollState `json:"createPoll"`
	// Polls is keyed by poll id. Entries are added on first fetch and never
	// removed.
	Polls map[string]*Poll `json:"polls"`
}

// CreatePollState tracks the most recent poll creation.
type CreatePollState struct {
	IsLoading bool
	Error     error
	Response  *poll.CreatedPoll
}

// Poll tracks fetching one poll and this session's vote on it.
type Poll struct {
	IsLoading bool
	Error     error
	Response  *poll.Details
	Vote      VoteState
}

// VoteState tracks submitting a vote. A non-nil Response means this session
// already voted.
type VoteState struct {
	IsLoading bool
	Error     error
	Response  *poll.VoteReceipt
}

// HasVoted reports whether the vote was accepted.
func (v VoteState) HasVoted() bool {
	return v.Response != nil
}

// InitialState returns the idle state tree.
func InitialState() *State {
	return &State{
		CreatePoll: &CreatePollState{},
		Polls:      map[string]*Poll{},
	}
}

// Settle returns s with every loading flag cleared. Requests never outlive
// the process, so a restored snapshot must not show them as in flight.
func Settle(s *State) *State {
	if s == nil {
		return InitialState()
	}

	next := &State{
		CreatePoll: &CreatePollState{},
		Polls:      make(map[string]*Poll, len(s.Polls)),
	}
	if s.CreatePoll != nil {
		createPoll := *s.CreatePoll
		createPoll.IsLoading = false
		next.CreatePoll = &createPoll
	}
	for id, p := range s.Polls {
		if p == nil {
			continue
		}
		settled := *p
		settled.IsLoading = false
		settled.Vote.IsLoading = false
		next.Polls[id] = &settled
	}

	return next
}

func (s *State) poll(pollID string) Poll {
	if p := s.Polls[pollID]; p != nil {
		return *p
	}
	return Poll{}
}

func (s *State) createPoll() CreatePollState {
	if s.CreatePoll != nil {
		return *s.CreatePoll
	}
	return CreatePollState{}
}

func (s *State) withCreatePoll(c CreatePollState) *State {
	next := *s
	next.CreatePoll = &c
	return &next
}

func (s *State) withPoll(pollID string, p Poll) *State {
	next := *s
	next.Polls = make(map[string]*Poll, len(s.Polls)+1)
	for id, entry := range s.Polls {
		next.Polls[id] = entry
	}
	next.Polls[pollID] = &p
	return &next
}
