// Package apierr normalizes failures coming back from the poll API into a
// single shape the view layer can display.
package apierr

import (
	"errors"
	"fmt"
)

// RequestError is the structured error body returned by the poll API.
type RequestError struct {
	StatusCode int    `json:"statusCode"`
	Err        string `json:"error"`
	Message    string `json:"message"`
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Err, e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Err)
}

// Response is the part of a failed HTTP exchange kept on an HTTPError.
type Response struct {
	Status int
	Body   []byte
	// Data is set when Body decoded as a RequestError.
	Data *RequestError
}

// HTTPError is returned by the request client when the server answers with
// a non-2xx status.
type HTTPError struct {
	Method   string
	URL      string
	Response *Response
}

func (e *HTTPError) Error() string {
	if e.Response == nil {
		return fmt.Sprintf("%s %s failed", e.Method, e.URL)
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.URL, e.Response.Status)
}

// Transform unwraps the server-provided error body when there is one and
// returns every other error unchanged.
func Transform(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Response != nil && httpErr.Response.Data != nil {
		return httpErr.Response.Data
	}

	return err
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}

	return err.Error()
}
