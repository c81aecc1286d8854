package polls

import (
	"encoding/json"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
)

type createPollStateJSON struct {
	IsLoading bool              `json:"isLoading"`
	Error     json.RawMessage   `json:"error"`
	Response  *poll.CreatedPoll `json:"response"`
}

type pollJSON struct {
	IsLoading bool            `json:"isLoading"`
	Error     json.RawMessage `json:"error"`
	Response  *poll.Details   `json:"response"`
	Vote      VoteState       `json:"vote"`
}

type voteStateJSON struct {
	IsLoading bool              `json:"isLoading"`
	Error     json.RawMessage   `json:"error"`
	Response  *poll.VoteReceipt `json:"response"`
}

func (c CreatePollState) MarshalJSON() ([]byte, error) {
	e, err := apierr.Encode(c.Error)
	if err != nil {
		return nil, err
	}
	return json.Marshal(createPollStateJSON{IsLoading: c.IsLoading, Error: e, Response: c.Response})
}

func (c *CreatePollState) UnmarshalJSON(data []byte) error {
	var raw createPollStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e, err := apierr.Decode(raw.Error)
	if err != nil {
		return err
	}
	*c = CreatePollState{IsLoading: raw.IsLoading, Error: e, Response: raw.Response}
	return nil
}

func (p Poll) MarshalJSON() ([]byte, error) {
	e, err := apierr.Encode(p.Error)
	if err != nil {
		return nil, err
	}
	return json.Marshal(pollJSON{IsLoading: p.IsLoading, Error: e, Response: p.Response, Vote: p.Vote})
}

func (p *Poll) UnmarshalJSON(data []byte) error {
	var raw pollJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e, err := apierr.Decode(raw.Error)
	if err != nil {
		return err
	}
	*p = Poll{IsLoading: raw.IsLoading, Error: e, Response: raw.Response, Vote: raw.Vote}
	return nil
}

func (v VoteState) MarshalJSON() ([]byte, error) {
	e, err := apierr.Encode(v.Error)
	if err != nil {
		return nil, err
	}
	return json.Marshal(voteStateJSON{IsLoading: v.IsLoading, Error: e, Response: v.Response})
}

func (v *VoteState) UnmarshalJSON(data []byte) error {
	var raw voteStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e, err := apierr.Decode(raw.Error)
	if err != nil {
		return err
	}
	*v = VoteState{IsLoading: raw.IsLoading, Error: e, Response: raw.Response}
	return nil
}
