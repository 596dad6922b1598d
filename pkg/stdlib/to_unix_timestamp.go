package stdlib

import (
	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

// ToUnixTimestamp converts a timestamp into a count of units since the Unix
// epoch.
type ToUnixTimestamp struct{}

var _ vrl.Function = ToUnixTimestamp{}

func (ToUnixTimestamp) Identifier() string { return "to_unix_timestamp" }

func (ToUnixTimestamp) Summary() string {
	return "Converts a timestamp into a Unix timestamp."
}

func (ToUnixTimestamp) Parameters() []vrl.Parameter {
	return []vrl.Parameter{
		{Keyword: "value", Kind: value.KindTimestamp, Required: true, Description: "The timestamp to convert."},
		{Keyword: "unit", Kind: value.KindBytes, Description: "One of seconds, milliseconds, microseconds or nanoseconds. Defaults to seconds."},
	}
}

func (ToUnixTimestamp) Examples() []vrl.Example {
	return []vrl.Example{
		{
			Title:  "seconds",
			Source: `to_unix_timestamp(t'2021-01-01T00:00:00Z')`,
			Result: `1609459200`,
		},
		{
			Title:  "milliseconds",
			Source: `to_unix_timestamp(t'2021-01-01T00:00:00.5Z', unit: "milliseconds")`,
			Result: `1609459200500`,
		},
	}
}

type unixUnit int

const (
	unitSeconds unixUnit = iota
	unitMilliseconds
	unitMicroseconds
	unitNanoseconds
)

var unixUnits = map[string]unixUnit{
	"seconds":      unitSeconds,
	"milliseconds": unitMilliseconds,
	"microseconds": unitMicroseconds,
	"nanoseconds":  unitNanoseconds,
}

func (ToUnixTimestamp) Compile(state *types.State, _ *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	unit := unitSeconds
	if expr, ok := args.OptionalExpr("unit"); ok {
		name, err := staticString(state, "unit", expr, "unit should be a string")
		if err != nil {
			return nil, err
		}
		u, ok := unixUnits[name]
		if !ok {
			return nil, &vrl.InvalidArgumentError{
				Keyword: "unit",
				Value:   expr.String(),
				Reason:  "unit should be one of seconds, milliseconds, microseconds or nanoseconds",
			}
		}
		unit = u
	}
	return &toUnixTimestampFn{value: args.Required("value"), unit: unit}, nil
}

type toUnixTimestampFn struct {
	value vrl.Expression
	unit  unixUnit
}

func (fn *toUnixTimestampFn) Resolve(ctx *vrl.Context) (value.Value, error) {
	v, err := fn.value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	ts, ok := v.(value.Timestamp)
	if !ok {
		return nil, vrl.NewExpressionError("expected timestamp, got %s", v.Kind())
	}
	switch fn.unit {
	case unitMilliseconds:
		return value.Integer(ts.Time.UnixMilli()), nil
	case unitMicroseconds:
		return value.Integer(ts.Time.UnixMicro()), nil
	case unitNanoseconds:
		return value.Integer(ts.Time.UnixNano()), nil
	default:
		return value.Integer(ts.Time.Unix()), nil
	}
}

func (fn *toUnixTimestampFn) TypeDef(state *types.State) types.TypeDef {
	return fallibleUnless(state, types.Integer(), value.KindTimestamp, fn.value)
}
