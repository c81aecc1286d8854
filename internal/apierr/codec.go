package apierr

import (
	"encoding/json"
	"errors"
)

// storedError is how an error value is kept in a persisted state snapshot.
type storedError struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Err        string `json:"error,omitempty"`
	Message    string `json:"message"`
	Structured bool   `json:"structured,omitempty"`
}

// Encode converts err into JSON. A nil error encodes as null.
func Encode(err error) (json.RawMessage, error) {
	if err == nil {
		return json.RawMessage("null"), nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return json.Marshal(storedError{
			StatusCode: reqErr.StatusCode,
			Err:        reqErr.Err,
			Message:    reqErr.Message,
			Structured: true,
		})
	}

	return json.Marshal(storedError{Message: err.Error()})
}

// Decode reverses Encode. Structured errors come back as *RequestError,
// anything else as a plain error carrying the original message.
func Decode(data json.RawMessage) (decoded error, err error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var stored storedError
	if err = json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	if stored.Structured {
		return &RequestError{
			StatusCode: stored.StatusCode,
			Err:        stored.Err,
			Message:    stored.Message,
		}, nil
	}

	return errors.New(stored.Message), nil
}
