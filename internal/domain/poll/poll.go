package poll

import (
	"cmp"
	"slices"
)

// MinVotersForResults is the number of voters the poll API waits for before
// it publishes results.
const MinVotersForResults = 2

// CreatedPoll is returned by the poll API after a poll has been created
type CreatedPoll struct {
	ID              string   `json:"id"`
	PollName        string   `json:"pollName"`
	Choices         []string `json:"choices"`
	CreatorToken    string   `json:"creatorToken"`
	MaxParticipants int      `json:"maxParticipants"`
	CreatedAt       string   `json:"createdAt"`
}

// Details is the public view of a poll
type Details struct {
	PollName  string             `json:"pollName"`
	CreatedAt string             `json:"createdAt"`
	Voters    []string           `json:"voters"`
	Choices   []string           `json:"choices"`
	Results   map[string]float64 `json:"results,omitempty"`
}

// HasResults reports whether the server already published results
func (d *Details) HasResults() bool {
	return d != nil && d.Results != nil
}

// VoteReceipt is the opaque token returned for an accepted vote
type VoteReceipt string

// CreatePollRequest is the body of POST /api/polls/create
type CreatePollRequest struct {
	PollName string   `json:"pollName"`
	Choices  []string `json:"choices"`
}

// VoteRequest is the body of POST /api/polls/{pollId}/vote
type VoteRequest struct {
	Votes     map[string]int `json:"votes"`
	VoterName string         `json:"voterName"`
}

// Trophy marks the podium places in the results view
type Trophy string

const (
	TrophyNone  Trophy = ""
	TrophyCup   Trophy = "cup"
	TrophyMedal Trophy = "medal"
)

// RankedChoice is one row of the results view
type RankedChoice struct {
	Place  int     `json:"place"`
	Choice string  `json:"choice"`
	Score  float64 `json:"score"`
}

// Trophy returns the cup for first place and medals for second and third
func (r RankedChoice) Trophy() Trophy {
	switch r.Place {
	case 1:
		return TrophyCup
	case 2, 3:
		return TrophyMedal
	default:
		return TrophyNone
	}
}

// RankResults orders results by score, highest first. Equal scores are
// ordered by choice name so the view is stable between renders.
func RankResults(results map[string]float64) []RankedChoice {
	ranked := make([]RankedChoice, 0, len(results))
	for choice, score := range results {
		ranked = append(ranked, RankedChoice{Choice: choice, Score: score})
	}

	slices.SortFunc(ranked, func(a, b RankedChoice) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Choice, b.Choice)
	})

	for i := range ranked {
		ranked[i].Place = i + 1
	}

	return ranked
}
