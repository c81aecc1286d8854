package polls

import (
	"context"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/logger"
)

// API is the poll API as seen by the thunks.
type API interface {
	CreatePoll(ctx context.Context, req poll.CreatePollRequest) (*poll.CreatedPoll, error)
	GetPoll(ctx context.Context, pollID string) (*poll.Details, error)
	Vote(ctx context.Context, pollID string, req poll.VoteRequest) (poll.VoteReceipt, error)
}

// CreatePollInput is what the creation form submits.
type CreatePollInput struct {
	PollName string
	Choices  []string
}

// VoteInput is what the vote form submits. An empty VoterName votes
// anonymously under a generated name.
type VoteInput struct {
	PollID    string
	Votes     map[string]int
	VoterName string
}

// Actions builds the asynchronous flows of the poll domain.
type Actions struct {
	api          API
	newVoterName func() string
	log          *log.Logger
}

// Option configures Actions
type Option func(*Actions)

// WithVoterNames replaces the generator of anonymous voter names
func WithVoterNames(fn func() string) Option {
	return func(a *Actions) {
		a.newVoterName = fn
	}
}

// WithLogger replaces the component logger
func WithLogger(l *log.Logger) Option {
	return func(a *Actions) {
		a.log = l
	}
}

// NewActions creates the poll thunks backed by api
func NewActions(api API, opts ...Option) *Actions {
	a := &Actions{
		api:          api,
		newVoterName: uuid.NewString,
		log:          logger.Store(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreatePoll creates a poll. The input is copied before the thunk runs.
func (a *Actions) CreatePoll(in CreatePollInput) flux.Thunk {
	req := poll.CreatePollRequest{
		PollName: in.PollName,
		Choices:  slices.Clone(in.Choices),
	}
	if req.Choices == nil {
		req.Choices = []string{}
	}

	return func(ctx context.Context, d flux.Dispatcher) error {
		d.Dispatch(CreatePollRequest())

		created, err := a.api.CreatePoll(ctx, req)
		if err != nil {
			failure := CreatePollFailure(err)
			a.log.Warn("Failed to create poll", "pollName", req.PollName, "error", failure.Err)
			d.Dispatch(failure)
			return failure.Err
		}

		a.log.Info("Poll created", "pollId", created.ID, "choices", len(created.Choices))
		d.Dispatch(CreatePollSuccess(created))
		return nil
	}
}

// FetchPoll loads the poll pollID.
func (a *Actions) FetchPoll(pollID string) flux.Thunk {
	return func(ctx context.Context, d flux.Dispatcher) error {
		d.Dispatch(FetchPollRequest(pollID))

		details, err := a.api.GetPoll(ctx, pollID)
		if err != nil {
			failure := FetchPollFailure(pollID, err)
			a.log.Warn("Failed to fetch poll", "pollId", pollID, "error", failure.Err)
			d.Dispatch(failure)
			return failure.Err
		}

		d.Dispatch(FetchPollSuccess(pollID, details))
		return nil
	}
}

// Vote submits a vote. Once the vote is accepted the poll is refreshed in the
// background; that refresh reports through its own actions and outlives the
// caller's context.
func (a *Actions) Vote(in VoteInput) flux.Thunk {
	pollID := in.PollID
	req := poll.VoteRequest{
		Votes:     maps.Clone(in.Votes),
		VoterName: in.VoterName,
	}
	if req.Votes == nil {
		req.Votes = map[string]int{}
	}
	if req.VoterName == "" {
		req.VoterName = a.newVoterName()
	}

	return func(ctx context.Context, d flux.Dispatcher) error {
		d.Dispatch(VoteRequest(pollID))

		receipt, err := a.api.Vote(ctx, pollID, req)
		if err != nil {
			failure := VoteFailure(pollID, err)
			a.log.Warn("Failed to vote", "pollId", pollID, "error", failure.Err)
			d.Dispatch(failure)
			return failure.Err
		}

		d.Go(context.WithoutCancel(ctx), a.FetchPoll(pollID))
		a.log.Info("Vote accepted", "pollId", pollID, "voterName", req.VoterName)
		d.Dispatch(VoteSuccess(pollID, receipt))
		return nil
	}
}
