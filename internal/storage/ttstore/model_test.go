package ttstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestStateModelTuple(t *testing.T) {
	model := &StateModel{
		Key:       "persist:root",
		Value:     []byte(`{"version":1}`),
		UpdatedAt: time.UnixMilli(1700000000123).UTC(),
	}

	data, err := msgpack.Marshal(model)
	require.NoError(t, err)

	var tuple []any
	require.NoError(t, msgpack.Unmarshal(data, &tuple))
	require.Len(t, tuple, 3)
	assert.Equal(t, "persist:root", tuple[0])
	assert.Equal(t, `{"version":1}`, tuple[1])

	var decoded StateModel
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, *model, decoded)
}

func TestStateModelRejectsOtherShapes(t *testing.T) {
	data, err := msgpack.Marshal([]any{"persist:root", "{}"})
	require.NoError(t, err)

	var decoded StateModel
	assert.ErrorContains(t, msgpack.Unmarshal(data, &decoded), "array len")
}
