package services

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/polls"
	"github.com/tenemo/sealed-vote/internal/store"
	"github.com/tenemo/sealed-vote/internal/validation"
)

// PollService exposes the store to the view layer. Reads go through the
// memoized selectors, writes through the poll thunks.
type PollService struct {
	store *store.Store
	log   *log.Logger

	mu        sync.Mutex
	selectors map[string]func(polls.Root) *polls.Poll
}

// NewPollService creates a new poll service on top of s
func NewPollService(s *store.Store) *PollService {
	return &PollService{
		store:     s,
		log:       logger.Service("polls"),
		selectors: make(map[string]func(polls.Root) *polls.Poll),
	}
}

// CreatePollState returns the current poll creation state
func (s *PollService) CreatePollState() *polls.CreatePollState {
	return polls.GetPollsCreatePoll(s.store.GetState())
}

// Poll returns the stored entry of pollID, nil when it was never requested
func (s *PollService) Poll(pollID string) *polls.Poll {
	return s.selector(pollID)(s.store.GetState())
}

func (s *PollService) selector(pollID string) func(polls.Root) *polls.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.selectors[pollID]
	if !ok {
		sel = polls.MakeGetPoll(pollID)
		s.selectors[pollID] = sel
	}
	return sel
}

// CreatePoll validates the form and creates the poll. Validation errors are
// returned without touching the store.
func (s *PollService) CreatePoll(ctx context.Context, in polls.CreatePollInput) error {
	if err := validation.ValidatePollName(in.PollName); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateChoices(in.Choices); err != nil {
		return invalid(err)
	}

	return s.store.Run(ctx, s.store.Actions.CreatePoll(in))
}

// ClearCreatedPoll resets the poll creation state
func (s *PollService) ClearCreatedPoll() {
	s.store.Dispatch(polls.CreatePollClear())
}

// FetchPoll loads pollID and waits for the answer
func (s *PollService) FetchPoll(ctx context.Context, pollID string) error {
	if err := validation.ValidatePollID(pollID); err != nil {
		return invalid(err)
	}
	return s.store.Run(ctx, s.store.Actions.FetchPoll(pollID))
}

// EnsurePoll loads pollID unless it is loaded, loading or failed. A failed
// poll is only fetched again through FetchPoll.
func (s *PollService) EnsurePoll(ctx context.Context, pollID string) (*polls.Poll, error) {
	p := s.Poll(pollID)
	if p != nil && (p.IsLoading || p.Response != nil || p.Error != nil) {
		return p, nil
	}

	s.log.Debug("Fetching poll on first view", "pollId", pollID)
	err := s.FetchPoll(ctx, pollID)
	return s.Poll(pollID), err
}

// Vote validates the ballot against the loaded poll and submits it. The poll
// must have been loaded and a session votes on it once.
func (s *PollService) Vote(ctx context.Context, in polls.VoteInput) error {
	if err := validation.ValidatePollID(in.PollID); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateVoterName(in.VoterName); err != nil {
		return invalid(err)
	}

	p := s.Poll(in.PollID)
	if p == nil || p.Response == nil {
		return ErrPollNotLoaded
	}
	if p.Vote.HasVoted() || p.Vote.IsLoading {
		return ErrAlreadyVoted
	}
	if err := validation.ValidateVotes(p.Response.Choices, in.Votes); err != nil {
		return invalid(err)
	}

	return s.store.Run(ctx, s.store.Actions.Vote(in))
}

// Snapshot returns the whole state tree
func (s *PollService) Snapshot() *store.RootState {
	return s.store.GetState()
}
