package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Value is a runtime datum. The set of implementations is closed: Bytes,
// Integer, Float, Boolean, Timestamp, Regex, Array, Object and Null.
type Value interface {
	Kind() Kind
	Equal(Value) bool
	fmt.Stringer

	sealed()
}

// Bytes is a byte string. It is never mutated in place once constructed.
type Bytes []byte

// Integer is a signed 64-bit integer.
type Integer int64

// Float is a 64-bit floating point number.
type Float float64

// Boolean is true or false.
type Boolean bool

// Timestamp is an instant with nanosecond precision.
type Timestamp struct {
	Time time.Time
}

// Regex is a compiled regular expression.
type Regex struct {
	*regexp.Regexp
}

// Array is an ordered sequence of values.
type Array []Value

// Object maps field names to values.
type Object map[string]Value

// Null is the absence of a value.
type Null struct{}

var (
	_ Value = Bytes(nil)
	_ Value = Integer(0)
	_ Value = Float(0)
	_ Value = Boolean(false)
	_ Value = Timestamp{}
	_ Value = Regex{}
	_ Value = Array(nil)
	_ Value = Object(nil)
	_ Value = Null{}
)

func (Bytes) sealed()     {}
func (Integer) sealed()   {}
func (Float) sealed()     {}
func (Boolean) sealed()   {}
func (Timestamp) sealed() {}
func (Regex) sealed()     {}
func (Array) sealed()     {}
func (Object) sealed()    {}
func (Null) sealed()      {}

func (Bytes) Kind() Kind     { return KindBytes }
func (Integer) Kind() Kind   { return KindInteger }
func (Float) Kind() Kind     { return KindFloat }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Regex) Kind() Kind     { return KindRegex }
func (Array) Kind() Kind     { return KindArray }
func (Object) Kind() Kind    { return KindObject }
func (Null) Kind() Kind      { return KindNull }

// NewTimestamp normalizes t to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// NewRegex compiles pattern into a Regex value.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, err
	}
	return Regex{re}, nil
}

// UTF8Lossy returns the bytes as a string, replacing invalid UTF-8 sequences
// with the replacement character.
func (b Bytes) UTF8Lossy() string {
	return strings.ToValidUTF8(string(b), "�")
}

func (b Bytes) Equal(other Value) bool {
	o, ok := other.(Bytes)
	return ok && bytes.Equal(b, o)
}

func (b Bytes) String() string {
	return strconv.Quote(b.UTF8Lossy())
}

func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && i == o
}

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (f Float) Equal(other Value) bool {
	o, ok := other.(Float)
	if !ok {
		return false
	}
	if math.IsNaN(float64(f)) && math.IsNaN(float64(o)) {
		return true
	}
	return f == o
}

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 64)
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && b == o
}

func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

func (t Timestamp) Equal(other Value) bool {
	o, ok := other.(Timestamp)
	return ok && t.Time.Equal(o.Time)
}

func (t Timestamp) String() string {
	return "t'" + t.Time.UTC().Format(time.RFC3339Nano) + "'"
}

func (r Regex) Equal(other Value) bool {
	o, ok := other.(Regex)
	if !ok {
		return false
	}
	if r.Regexp == nil || o.Regexp == nil {
		return r.Regexp == o.Regexp
	}
	return r.Regexp.String() == o.Regexp.String()
}

func (r Regex) String() string {
	if r.Regexp == nil {
		return "r''"
	}
	return "r'" + r.Regexp.String() + "'"
}

func (a Array) Equal(other Value) bool {
	o, ok := other.(Array)
	if !ok || len(a) != len(o) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (a Array) String() string {
	elems := make([]string, len(a))
	for i, v := range a {
		elems[i] = v.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (o Object) Equal(other Value) bool {
	p, ok := other.(Object)
	if !ok || len(o) != len(p) {
		return false
	}
	for k, v := range o {
		w, found := p[k]
		if !found || !v.Equal(w) {
			return false
		}
	}
	return true
}

// Keys returns the field names in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (o Object) String() string {
	if len(o) == 0 {
		return "{}"
	}
	fields := make([]string, 0, len(o))
	for _, k := range o.Keys() {
		fields = append(fields, strconv.Quote(k)+": "+o[k].String())
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (Null) String() string {
	return "null"
}

// Clone deep-copies containers so the result can be mutated without affecting
// v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch v := v.(type) {
	case Array:
		cp := make(Array, len(v))
		for i, e := range v {
			cp[i] = Clone(e)
		}
		return cp
	case Object:
		cp := make(Object, len(v))
		for k, e := range v {
			cp[k] = Clone(e)
		}
		return cp
	default:
		return v
	}
}

// FromGo converts a Go value, typically decoded JSON, into a Value.
func FromGo(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case string:
		return Bytes(v), nil
	case []byte:
		return Bytes(v), nil
	case bool:
		return Boolean(v), nil
	case int:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return Integer(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return Float(f), nil
	case time.Time:
		return NewTimestamp(v), nil
	case *regexp.Regexp:
		return Regex{v}, nil
	case []any:
		arr := make(Array, len(v))
		for i, e := range v {
			conv, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("converting array element %d: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(v))
		for k, e := range v {
			conv, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("converting field %q: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("cannot convert Go type %T to a value", v)
	}
}

// ToGo converts a Value into plain Go values suitable for JSON encoding.
// Timestamps become RFC 3339 strings and regexes their pattern.
func ToGo(v Value) any {
	switch v := v.(type) {
	case Bytes:
		return v.UTF8Lossy()
	case Integer:
		return int64(v)
	case Float:
		return float64(v)
	case Boolean:
		return bool(v)
	case Timestamp:
		return v.Time.UTC().Format(time.RFC3339Nano)
	case Regex:
		if v.Regexp == nil {
			return ""
		}
		return v.Regexp.String()
	case Array:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = ToGo(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}
