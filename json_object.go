package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObject builds a JSON object whose fields keep their insertion order,
// so that ledger lines and snapshots are stable and easy to diff.
// Its zero value is an empty object. The first marshaling error is kept and
// returned by MarshalJSON.
type jsonObject struct {
	buf bytes.Buffer
	err error
}

// field appends key and the JSON encoding of value.
func (o *jsonObject) field(key string, value any) {
	if o.err != nil {
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		o.err = fmt.Errorf("field %q: %w", key, err)
		return
	}
	k, _ := json.Marshal(key)
	if o.buf.Len() > 0 {
		o.buf.WriteByte(',')
	}
	o.buf.Write(k)
	o.buf.WriteByte(':')
	o.buf.Write(v)
}

// optional appends the field unless value is the zero value of its type,
// or an empty slice or map.
func (o *jsonObject) optional(key string, value any) {
	v := reflect.ValueOf(value)
	switch {
	case !v.IsValid() || v.IsZero():
		return
	case (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.Len() == 0:
		return
	}
	o.field(key, value)
}

func (o *jsonObject) MarshalJSON() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	out := make([]byte, 0, o.buf.Len()+2)
	out = append(out, '{')
	out = append(out, o.buf.Bytes()...)
	return append(out, '}'), nil
}
