// Package pollstest provides an in-memory poll API for tests.
package pollstest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/polls"
)

// API keeps polls in memory and publishes results once
// poll.MinVotersForResults voters have voted.
type API struct {
	mu     sync.Mutex
	nextID int
	polls  map[string]*poll.Details
	votes  map[string][]map[string]int

	// Err, when set, is returned by every call.
	Err   error
	Calls []string
}

var _ polls.API = (*API)(nil)

func New() *API {
	return &API{
		polls: make(map[string]*poll.Details),
		votes: make(map[string][]map[string]int),
	}
}

// Add stores a poll under pollID
func (a *API) Add(pollID string, details poll.Details) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.polls[pollID] = &details
}

// Fail sets the error returned by every call
func (a *API) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Err = err
}

// CallCount returns how many calls named op were made
func (a *API) CallCount(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, c := range a.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (a *API) CreatePoll(_ context.Context, req poll.CreatePollRequest) (*poll.CreatedPoll, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, "create")
	if a.Err != nil {
		return nil, a.Err
	}

	a.nextID++
	id := fmt.Sprintf("poll-%d", a.nextID)
	a.polls[id] = &poll.Details{
		PollName:  req.PollName,
		CreatedAt: "2024-01-01T00:00:00.000Z",
		Voters:    []string{},
		Choices:   slices.Clone(req.Choices),
	}

	return &poll.CreatedPoll{
		ID:              id,
		PollName:        req.PollName,
		Choices:         slices.Clone(req.Choices),
		CreatorToken:    "token-" + id,
		MaxParticipants: 20,
		CreatedAt:       "2024-01-01T00:00:00.000Z",
	}, nil
}

func (a *API) GetPoll(_ context.Context, pollID string) (*poll.Details, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, "get")
	if a.Err != nil {
		return nil, a.Err
	}

	p, ok := a.polls[pollID]
	if !ok {
		return nil, notFound(pollID)
	}

	details := *p
	details.Voters = slices.Clone(p.Voters)
	details.Choices = slices.Clone(p.Choices)
	return &details, nil
}

func (a *API) Vote(_ context.Context, pollID string, req poll.VoteRequest) (poll.VoteReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, "vote")
	if a.Err != nil {
		return "", a.Err
	}

	p, ok := a.polls[pollID]
	if !ok {
		return "", notFound(pollID)
	}

	p.Voters = append(p.Voters, req.VoterName)
	a.votes[pollID] = append(a.votes[pollID], req.Votes)
	if len(p.Voters) >= poll.MinVotersForResults {
		p.Results = average(a.votes[pollID])
	}

	return poll.VoteReceipt(fmt.Sprintf("vote-%s-%d", pollID, len(p.Voters))), nil
}

// average is a plain mean; the ranking is the API's business.
func average(ballots []map[string]int) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for _, b := range ballots {
		for choice, score := range b {
			sums[choice] += float64(score)
			counts[choice]++
		}
	}
	for choice := range sums {
		sums[choice] /= counts[choice]
	}
	return sums
}

func notFound(pollID string) error {
	return &apierr.HTTPError{
		Method: http.MethodGet,
		URL:    "/api/polls/" + pollID,
		Response: &apierr.Response{
			Status: http.StatusNotFound,
			Data: &apierr.RequestError{
				StatusCode: http.StatusNotFound,
				Err:        "Not Found",
				Message:    fmt.Sprintf("Vote with ID %s does not exist.", pollID),
			},
		},
	}
}
