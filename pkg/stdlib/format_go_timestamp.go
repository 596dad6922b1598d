package stdlib

import (
	"time"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

// FormatGoTimestamp renders a timestamp with a Go reference layout.
type FormatGoTimestamp struct{}

var _ vrl.Function = FormatGoTimestamp{}

func (FormatGoTimestamp) Identifier() string { return "format_go_timestamp" }

func (FormatGoTimestamp) Summary() string {
	return "Formats a timestamp as a string using a Go time layout."
}

func (FormatGoTimestamp) Parameters() []vrl.Parameter {
	return []vrl.Parameter{
		{Keyword: "value", Kind: value.KindTimestamp, Required: true, Description: "The timestamp to format."},
		{Keyword: "format", Kind: value.KindBytes, Required: true, Description: "A constant Go reference layout."},
		{Keyword: "timezone", Kind: value.KindBytes, Description: "IANA timezone to render in. Defaults to the program timezone."},
	}
}

func (FormatGoTimestamp) Examples() []vrl.Example {
	return []vrl.Example{
		{
			Title:  "format in UTC",
			Source: `format_go_timestamp(t'2021-02-11T16:00:00Z', format: "2006-01-02 15:04")`,
			Result: `"2021-02-11 16:00"`,
		},
		{
			Title:  "format in a named timezone",
			Source: `format_go_timestamp(t'2021-02-11T16:00:00Z', format: "2006-01-02 15:04 +07:00", timezone: "Europe/Paris")`,
			Result: `"2021-02-11 17:00 +01:00"`,
		},
	}
}

func (FormatGoTimestamp) Compile(state *types.State, ctx *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	format, err := staticString(state, "format", args.RequiredExpr("format"), "go_timestamp format should be a string")
	if err != nil {
		return nil, err
	}
	loc, err := timezoneArg(state, ctx, args, "go_timestamp")
	if err != nil {
		return nil, err
	}
	return &formatGoTimestampFn{
		value:  args.Required("value"),
		layout: goLayout(format),
		loc:    loc,
	}, nil
}

type formatGoTimestampFn struct {
	value  vrl.Expression
	layout string
	loc    *time.Location
}

func (fn *formatGoTimestampFn) Resolve(ctx *vrl.Context) (value.Value, error) {
	v, err := fn.value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	ts, ok := v.(value.Timestamp)
	if !ok {
		return nil, vrl.NewExpressionError("expected timestamp, got %s", v.Kind())
	}
	return value.Bytes(ts.Time.In(fn.loc).Format(fn.layout)), nil
}

func (fn *formatGoTimestampFn) TypeDef(state *types.State) types.TypeDef {
	return fallibleUnless(state, types.Bytes(), value.KindTimestamp, fn.value)
}
