// Package pollapi binds the poll API endpoints to the request client.
package pollapi

import (
	"context"
	"net/url"

	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/polls"
	"github.com/tenemo/sealed-vote/internal/request"
)

const pollsPath = "/api/polls"

// Client calls the poll API
type Client struct {
	http *request.Client
}

var _ polls.API = (*Client)(nil)

// New creates a poll API client on top of c
func New(c *request.Client) *Client {
	return &Client{http: c}
}

// CreatePoll creates a poll
func (c *Client) CreatePoll(ctx context.Context, req poll.CreatePollRequest) (*poll.CreatedPoll, error) {
	resp, err := request.Post[poll.CreatedPoll](ctx, c.http, pollsPath+"/create", req)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetPoll fetches the public view of pollID
func (c *Client) GetPoll(ctx context.Context, pollID string) (*poll.Details, error) {
	resp, err := request.Get[poll.Details](ctx, c.http, pollPath(pollID))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Vote submits scores for pollID
func (c *Client) Vote(ctx context.Context, pollID string, req poll.VoteRequest) (poll.VoteReceipt, error) {
	resp, err := request.Post[poll.VoteReceipt](ctx, c.http, pollPath(pollID)+"/vote", req)
	if err != nil {
		return "", err
	}
	return resp.Data, nil
}

func pollPath(pollID string) string {
	return pollsPath + "/" + url.PathEscape(pollID)
}
