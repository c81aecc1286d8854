package polls

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/flux"
)

type otherAction struct{}

func (otherAction) Type() string { return "OTHER" }

var lunch = &poll.Details{
	PollName:  "Lunch",
	CreatedAt: "2024-01-01T00:00:00Z",
	Voters:    []string{},
	Choices:   []string{"Pizza", "Sushi"},
}

func reduceAll(state *State, actions ...flux.Action) *State {
	for _, action := range actions {
		state = Reducer(state, action)
	}
	return state
}

func TestReducerUnknownActionIsIdentity(t *testing.T) {
	state := InitialState()
	assert.Same(t, state, Reducer(state, otherAction{}))
}

func TestReducerNilStateStartsIdle(t *testing.T) {
	state := Reducer(nil, otherAction{})
	assert.Equal(t, InitialState(), state)
}

func TestReducerIsPure(t *testing.T) {
	boom := errors.New("boom")
	actions := []flux.Action{
		CreatePollRequest(),
		CreatePollFailure(boom),
		CreatePollSuccess(&poll.CreatedPoll{ID: "p1"}),
		CreatePollClear(),
		FetchPollRequest("p1"),
		FetchPollFailure("p1", boom),
		FetchPollSuccess("p1", lunch),
		VoteRequest("p1"),
		VoteFailure("p1", boom),
		VoteSuccess("p1", "ok"),
	}

	state := reduceAll(InitialState(), FetchPollRequest("p2"), FetchPollSuccess("p2", lunch))
	for _, action := range actions {
		t.Run(action.Type(), func(t *testing.T) {
			createPoll := *state.CreatePoll
			p2 := *state.Polls["p2"]

			first := Reducer(state, action)
			second := Reducer(state, action)

			assert.Equal(t, first, second)
			assert.NotSame(t, state, first)
			assert.Equal(t, createPoll, *state.CreatePoll)
			assert.Equal(t, p2, *state.Polls["p2"])
			assert.Len(t, state.Polls, 1)
			assert.Same(t, state.Polls["p2"], first.Polls["p2"], "untouched entries keep their pointer")
		})
	}
}

func TestCreatePollLifecycle(t *testing.T) {
	created := &poll.CreatedPoll{ID: "p1", PollName: "Lunch"}
	reqErr := &apierr.RequestError{StatusCode: 400, Err: "Bad Request", Message: "too few choices"}

	state := Reducer(InitialState(), CreatePollRequest())
	assert.True(t, state.CreatePoll.IsLoading)
	assert.Nil(t, state.CreatePoll.Error)

	state = Reducer(state, CreatePollSuccess(created))
	assert.False(t, state.CreatePoll.IsLoading)
	assert.Nil(t, state.CreatePoll.Error)
	assert.Same(t, created, state.CreatePoll.Response)

	// A new request keeps the previous response until it settles.
	state = Reducer(state, CreatePollRequest())
	assert.True(t, state.CreatePoll.IsLoading)
	assert.Same(t, created, state.CreatePoll.Response)

	state = Reducer(state, CreatePollFailure(&apierr.HTTPError{Response: &apierr.Response{Status: 400, Data: reqErr}}))
	assert.False(t, state.CreatePoll.IsLoading)
	assert.Same(t, reqErr, state.CreatePoll.Error)
	assert.Nil(t, state.CreatePoll.Response)
}

func TestCreatePollClearResetsOnlyCreatePoll(t *testing.T) {
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		CreatePollRequest(),
		CreatePollSuccess(&poll.CreatedPoll{ID: "p1"}),
	)
	polls := state.Polls

	cleared := Reducer(state, CreatePollClear())

	assert.Equal(t, &CreatePollState{}, cleared.CreatePoll)
	assert.Equal(t, polls, cleared.Polls)
	assert.Same(t, polls["p1"], cleared.Polls["p1"])
}

func TestPollRequestOnUnseenID(t *testing.T) {
	state := Reducer(InitialState(), FetchPollRequest("p1"))

	require.Contains(t, state.Polls, "p1")
	assert.Equal(t, Poll{IsLoading: true}, *state.Polls["p1"])
}

func TestPollRequestOnSeenIDKeepsResponseAndVote(t *testing.T) {
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		FetchPollSuccess("p1", lunch),
		VoteRequest("p1"),
		VoteSuccess("p1", "receipt"),
		FetchPollRequest("p1"),
		FetchPollFailure("p1", errors.New("timeout")),
	)

	state = Reducer(state, FetchPollRequest("p1"))

	p := state.Polls["p1"]
	assert.True(t, p.IsLoading)
	assert.Nil(t, p.Error)
	assert.Same(t, lunch, p.Response)
	require.NotNil(t, p.Vote.Response)
	assert.Equal(t, poll.VoteReceipt("receipt"), *p.Vote.Response)
}

func TestPollFailureKeepsStaleResponse(t *testing.T) {
	timeout := errors.New("timeout")
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		FetchPollSuccess("p1", lunch),
		FetchPollRequest("p1"),
		FetchPollFailure("p1", timeout),
	)

	p := state.Polls["p1"]
	assert.False(t, p.IsLoading)
	assert.Same(t, timeout, p.Error)
	assert.Same(t, lunch, p.Response)
}

func TestFetchPollScenario(t *testing.T) {
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		FetchPollSuccess("p1", &poll.Details{
			PollName:  "Lunch",
			Choices:   []string{"Pizza", "Sushi"},
			Voters:    []string{},
			CreatedAt: "2024-01-01T00:00:00Z",
		}),
	)

	assert.Equal(t, "Lunch", state.Polls["p1"].Response.PollName)
	assert.False(t, state.Polls["p1"].IsLoading)
	assert.Nil(t, state.Polls["p1"].Error)
}

func TestVoteFailureScenario(t *testing.T) {
	reqErr := &apierr.RequestError{StatusCode: 400, Err: "Bad Request", Message: "score out of range"}
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		FetchPollSuccess("p1", lunch),
		VoteRequest("p1"),
		VoteFailure("p1", reqErr),
	)

	p := state.Polls["p1"]
	assert.Same(t, reqErr, p.Vote.Error)
	assert.Nil(t, p.Vote.Response)
	assert.False(t, p.Vote.IsLoading)
	assert.Same(t, lunch, p.Response)
	assert.Nil(t, p.Error)
}

func TestVoteSuccessClearsError(t *testing.T) {
	state := reduceAll(InitialState(),
		FetchPollRequest("p1"),
		VoteRequest("p1"),
		VoteFailure("p1", errors.New("offline")),
		VoteRequest("p1"),
	)
	assert.True(t, state.Polls["p1"].Vote.IsLoading)
	assert.Nil(t, state.Polls["p1"].Vote.Error)

	state = Reducer(state, VoteSuccess("p1", "receipt"))
	assert.True(t, state.Polls["p1"].Vote.HasVoted())
	assert.Nil(t, state.Polls["p1"].Vote.Error)
}

func TestVoteOnUnseenIDStartsFromIdlePoll(t *testing.T) {
	state := Reducer(InitialState(), VoteRequest("ghost"))

	require.Contains(t, state.Polls, "ghost")
	p := state.Polls["ghost"]
	assert.False(t, p.IsLoading)
	assert.Nil(t, p.Response)
	assert.True(t, p.Vote.IsLoading)
}

func TestErrorsAreScopedPerPoll(t *testing.T) {
	state := reduceAll(InitialState(),
		FetchPollRequest("a"),
		FetchPollRequest("b"),
		FetchPollFailure("a", errors.New("boom")),
		FetchPollSuccess("b", lunch),
		CreatePollFailure(errors.New("create failed")),
	)

	assert.Error(t, state.Polls["a"].Error)
	assert.NoError(t, state.Polls["b"].Error)
	assert.Nil(t, state.Polls["a"].Vote.Error)
}

func TestSettleClearsLoadingFlags(t *testing.T) {
	state := reduceAll(InitialState(),
		CreatePollRequest(),
		FetchPollRequest("p1"),
		VoteRequest("p1"),
	)

	settled := Settle(state)

	assert.False(t, settled.CreatePoll.IsLoading)
	assert.False(t, settled.Polls["p1"].IsLoading)
	assert.False(t, settled.Polls["p1"].Vote.IsLoading)
	assert.True(t, state.Polls["p1"].IsLoading, "input is left alone")
	assert.Equal(t, InitialState(), Settle(nil))
}
