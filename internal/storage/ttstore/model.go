package ttstore

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const stateModelFields = 3

// StateModel is a tuple of the persisted_states space:
// [key, value, updated_at (unix milliseconds)].
type StateModel struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

func (m *StateModel) EncodeMsgpack(e *msgpack.Encoder) error {
	if err := e.EncodeArrayLen(stateModelFields); err != nil {
		return err
	}
	if err := e.EncodeString(m.Key); err != nil {
		return err
	}
	if err := e.EncodeString(string(m.Value)); err != nil {
		return err
	}
	if err := e.EncodeInt(m.UpdatedAt.UnixMilli()); err != nil {
		return err
	}
	return nil
}

func (m *StateModel) DecodeMsgpack(d *msgpack.Decoder) error {
	var err error
	var l int
	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l != stateModelFields {
		return fmt.Errorf("array len doesn't match: %d", l)
	}
	if m.Key, err = d.DecodeString(); err != nil {
		return err
	}
	var value string
	if value, err = d.DecodeString(); err != nil {
		return err
	}
	m.Value = []byte(value)
	var millis int64
	if millis, err = d.DecodeInt64(); err != nil {
		return err
	}
	m.UpdatedAt = time.UnixMilli(millis).UTC()
	return nil
}
