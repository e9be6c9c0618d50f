package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Record is one parsed post object. Numbers are kept as json.Number so that
// large ids survive decoding without losing precision.
type Record map[string]any

// Decode parses a single JSON object into a Record.
func Decode(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("record is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return r, nil
}

// Get walks the record one key at a time. Any step that is not an object,
// or lacks the next key, yields the Missing sentinel for the whole lookup.
func (r Record) Get(path ...string) Value {
	var cur any = map[string]any(r)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return Missing
		}
		next, ok := obj[key]
		if !ok {
			return Missing
		}
		cur = next
	}
	return Of(cur)
}

// GetPath resolves a dotted path such as "user.screen_name".
func (r Record) GetPath(path string) Value {
	return r.Get(SplitPath(path)...)
}

// ID returns the canonical form of the record's "id" field.
func (r Record) ID() (ID, bool) {
	return r.Get("id").ID()
}

// SplitPath breaks a dotted path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Record:
		return obj, true
	default:
		return nil, false
	}
}

// Missing is the sentinel returned when a field is absent.
var Missing = Value{}

// Value is the result of a field lookup. The zero Value is the Missing
// sentinel; a present JSON null is kept apart so callers that need
// "present and non-null" can ask for it.
type Value struct {
	raw     any
	present bool
}

// Of wraps a present value.
func Of(v any) Value {
	return Value{raw: v, present: true}
}

// Present reports whether the key existed, even if its value is null.
func (v Value) Present() bool { return v.present }

// IsNull reports a present key holding JSON null.
func (v Value) IsNull() bool { return v.present && v.raw == nil }

// Missing reports absent or null; both are reported as the sentinel.
func (v Value) Missing() bool { return !v.present || v.raw == nil }

// Raw returns the underlying decoded value, or nil for the sentinel.
func (v Value) Raw() any {
	if v.Missing() {
		return nil
	}
	return v.raw
}

// Object returns the value as a nested record.
func (v Value) Object() (Record, bool) {
	obj, ok := asObject(v.raw)
	if !ok {
		return nil, false
	}
	return Record(obj), true
}

// Text returns the value when it is a JSON string.
func (v Value) Text() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// Int returns the value as an integer when it is an integral number.
func (v Value) Int() (int64, bool) {
	switch x := v.raw.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return floatToInt(x)
	default:
		return 0, false
	}
}

// ID returns the canonical id form of the value.
func (v Value) ID() (ID, bool) {
	if v.Missing() {
		return "", false
	}
	return ParseID(v.raw)
}

// String renders the value for a table cell. The sentinel renders empty;
// nested objects and arrays render as compact JSON.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
