package polls

import (
	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
)

// Action types, one request, failure and success triple per API call
const (
	CreatePollRequestType = "POLLS_CREATE_POLL_REQUEST"
	CreatePollFailureType = "POLLS_CREATE_POLL_FAILURE"
	CreatePollSuccessType = "POLLS_CREATE_POLL_SUCCESS"
	CreatePollClearType   = "POLLS_CREATE_POLL_CLEAR"

	PollRequestType = "POLLS_POLL_REQUEST"
	PollFailureType = "POLLS_POLL_FAILURE"
	PollSuccessType = "POLLS_POLL_SUCCESS"

	VoteRequestType = "POLLS_VOTE_REQUEST"
	VoteFailureType = "POLLS_VOTE_FAILURE"
	VoteSuccessType = "POLLS_VOTE_SUCCESS"
)

// CreatePollRequestAction marks poll creation as in flight
type CreatePollRequestAction struct{}

// CreatePollFailureAction carries the error of a failed creation
type CreatePollFailureAction struct {
	Err error `json:"error"`
}

// CreatePollSuccessAction carries the created poll
type CreatePollSuccessAction struct {
	Response *poll.CreatedPoll `json:"response"`
}

// CreatePollClearAction resets poll creation
type CreatePollClearAction struct{}

// PollRequestAction marks the fetch of one poll as in flight
type PollRequestAction struct {
	PollID string `json:"pollId"`
}

// PollFailureAction carries the error of a failed poll fetch
type PollFailureAction struct {
	PollID string `json:"pollId"`
	Err    error  `json:"error"`
}

// PollSuccessAction carries the fetched poll details
type PollSuccessAction struct {
	PollID   string        `json:"pollId"`
	Response *poll.Details `json:"response"`
}

// VoteRequestAction marks a vote on one poll as in flight
type VoteRequestAction struct {
	PollID string `json:"pollId"`
}

// VoteFailureAction carries the error of a rejected vote
type VoteFailureAction struct {
	PollID string `json:"pollId"`
	Err    error  `json:"error"`
}

// VoteSuccessAction carries the receipt of an accepted vote
type VoteSuccessAction struct {
	PollID   string           `json:"pollId"`
	Response poll.VoteReceipt `json:"response"`
}

func (CreatePollRequestAction) Type() string { return CreatePollRequestType }
func (CreatePollFailureAction) Type() string { return CreatePollFailureType }
func (CreatePollSuccessAction) Type() string { return CreatePollSuccessType }
func (CreatePollClearAction) Type() string   { return CreatePollClearType }
func (PollRequestAction) Type() string       { return PollRequestType }
func (PollFailureAction) Type() string       { return PollFailureType }
func (PollSuccessAction) Type() string       { return PollSuccessType }
func (VoteRequestAction) Type() string       { return VoteRequestType }
func (VoteFailureAction) Type() string       { return VoteFailureType }
func (VoteSuccessAction) Type() string       { return VoteSuccessType }

// CreatePollRequest builds a CreatePollRequestAction.
func CreatePollRequest() CreatePollRequestAction {
	return CreatePollRequestAction{}
}

// CreatePollFailure stores err after unwrapping any server error body.
func CreatePollFailure(err error) CreatePollFailureAction {
	return CreatePollFailureAction{Err: apierr.Transform(err)}
}

// CreatePollSuccess builds a CreatePollSuccessAction.
func CreatePollSuccess(response *poll.CreatedPoll) CreatePollSuccessAction {
	return CreatePollSuccessAction{Response: response}
}

// CreatePollClear resets poll creation so the form can be reused.
func CreatePollClear() CreatePollClearAction {
	return CreatePollClearAction{}
}

// FetchPollRequest builds a PollRequestAction for pollID.
func FetchPollRequest(pollID string) PollRequestAction {
	return PollRequestAction{PollID: pollID}
}

// FetchPollFailure stores err for pollID after unwrapping any server error body.
func FetchPollFailure(pollID string, err error) PollFailureAction {
	return PollFailureAction{PollID: pollID, Err: apierr.Transform(err)}
}

// FetchPollSuccess builds a PollSuccessAction for pollID.
func FetchPollSuccess(pollID string, response *poll.Details) PollSuccessAction {
	return PollSuccessAction{PollID: pollID, Response: response}
}

// VoteRequest builds a VoteRequestAction for pollID.
func VoteRequest(pollID string) VoteRequestAction {
	return VoteRequestAction{PollID: pollID}
}

// VoteFailure stores err for pollID after unwrapping any server error body.
func VoteFailure(pollID string, err error) VoteFailureAction {
	return VoteFailureAction{PollID: pollID, Err: apierr.Transform(err)}
}

// VoteSuccess builds a VoteSuccessAction for pollID.
func VoteSuccess(pollID string, response poll.VoteReceipt) VoteSuccessAction {
	return VoteSuccessAction{PollID: pollID, Response: response}
}
