package pollapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/request"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(request.New(srv.URL, request.WithLogger(log.New(io.Discard))))
}

func TestCreatePoll(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/polls/create", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Lunch", body["pollName"])
		assert.Equal(t, []any{"Pizza", "Sushi"}, body["choices"])

		_, _ = io.WriteString(w, `{"id":"p1","pollName":"Lunch","choices":["Pizza","Sushi"],"creatorToken":"t","maxParticipants":0,"createdAt":"2024-01-01T00:00:00Z"}`)
	})

	created, err := c.CreatePoll(context.Background(), poll.CreatePollRequest{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})

	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	assert.Equal(t, "t", created.CreatorToken)
	assert.Equal(t, []string{"Pizza", "Sushi"}, created.Choices)
}

func TestGetPoll(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/polls/a%2Fb", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"pollName":"Lunch","createdAt":"x","voters":["Ann","Bob"],"choices":["Pizza"],"results":{"Pizza":7.5}}`)
	})

	details, err := c.GetPoll(context.Background(), "a/b")

	require.NoError(t, err)
	assert.Equal(t, "Lunch", details.PollName)
	assert.Equal(t, []string{"Ann", "Bob"}, details.Voters)
	assert.True(t, details.HasResults())
	assert.InDelta(t, 7.5, details.Results["Pizza"], 0.0001)
}

func TestGetPollNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"statusCode":404,"error":"Not Found","message":"poll missing"}`)
	})

	_, err := c.GetPoll(context.Background(), "p1")

	require.Error(t, err)
	assert.Equal(t, &apierr.RequestError{StatusCode: 404, Err: "Not Found", Message: "poll missing"}, apierr.Transform(err))
}

func TestVote(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/polls/p1/vote", r.URL.Path)

		var body poll.VoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, poll.VoteRequest{Votes: map[string]int{"Pizza": 10}, VoterName: "Ann"}, body)

		_, _ = io.WriteString(w, "Vote submitted successfully")
	})

	receipt, err := c.Vote(context.Background(), "p1", poll.VoteRequest{Votes: map[string]int{"Pizza": 10}, VoterName: "Ann"})

	require.NoError(t, err)
	assert.Equal(t, poll.VoteReceipt("Vote submitted successfully"), receipt)
}
