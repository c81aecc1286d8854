package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	t.Run("unwraps structured server body", func(t *testing.T) {
		err := &HTTPError{
			Method: "GET",
			URL:    "/api/polls/p1",
			Response: &Response{
				Status: 404,
				Data:   &RequestError{StatusCode: 404, Err: "Not Found", Message: "poll missing"},
			},
		}

		got := Transform(err)

		assert.Equal(t, &RequestError{StatusCode: 404, Err: "Not Found", Message: "poll missing"}, got)
	})

	t.Run("unwraps through wrapping", func(t *testing.T) {
		inner := &HTTPError{Response: &Response{Status: 400, Data: &RequestError{StatusCode: 400, Err: "Bad Request"}}}
		got := Transform(fmt.Errorf("post vote: %w", inner))

		var reqErr *RequestError
		require.ErrorAs(t, got, &reqErr)
		assert.Equal(t, 400, reqErr.StatusCode)
	})

	t.Run("plain error unchanged", func(t *testing.T) {
		timeout := errors.New("timeout")
		assert.Same(t, timeout, Transform(timeout))
	})

	t.Run("http error without body unchanged", func(t *testing.T) {
		err := &HTTPError{Method: "GET", URL: "/x", Response: &Response{Status: 502, Body: []byte("bad gateway")}}
		assert.Same(t, err, Transform(err))
	})

	t.Run("nil unchanged", func(t *testing.T) {
		assert.NoError(t, Transform(nil))
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "poll missing", Message(&RequestError{StatusCode: 404, Err: "Not Found", Message: "poll missing"}))
	assert.Equal(t, "timeout", Message(errors.New("timeout")))
	assert.Equal(t, "", Message(nil))
}

func TestCodec(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "structured", in: &RequestError{StatusCode: 400, Err: "Bad Request", Message: "no"}, want: &RequestError{StatusCode: 400, Err: "Bad Request", Message: "no"}},
		{name: "plain", in: errors.New("connection refused"), want: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.in)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
