package stdlib

import (
	"strings"
	"time"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

// ParseGoTimestamp parses a string into a timestamp by trying Go reference
// layouts in order.
type ParseGoTimestamp struct{}

var _ vrl.Function = ParseGoTimestamp{}

func (ParseGoTimestamp) Identifier() string { return "parse_go_timestamp" }

func (ParseGoTimestamp) Summary() string {
	return "Parses a string into a timestamp using the first matching Go time layout."
}

func (ParseGoTimestamp) Parameters() []vrl.Parameter {
	return []vrl.Parameter{
		{
			Keyword:     "value",
			Kind:        value.KindBytes | value.KindTimestamp,
			Required:    true,
			Description: "The text to parse. Timestamps are returned unchanged.",
		},
		{
			Keyword:     "formats",
			Kind:        value.KindArray,
			Required:    true,
			Description: "Go reference layouts, tried in order. Must be an array literal of strings.",
		},
		{
			Keyword:     "timezone",
			Kind:        value.KindBytes,
			Description: "IANA timezone for text without an offset. Defaults to the program timezone.",
		},
	}
}

func (ParseGoTimestamp) Examples() []vrl.Example {
	return []vrl.Example{
		{
			Title:  "parse with a numeric offset",
			Source: `parse_go_timestamp!("11-Feb-2021 16:00 +00:00", formats: ["02-Jan-2006 15:04 +07:00"])`,
			Result: `t'2021-02-11T16:00:00Z'`,
		},
		{
			Title:  "parse in a named timezone",
			Source: `parse_go_timestamp!("16/10/2019 12:00:00", formats: ["02/01/2006 15:04:05"], timezone: "Europe/Paris")`,
			Result: `t'2019-10-16T10:00:00Z'`,
		},
		{
			Title:  "first matching layout wins",
			Source: `parse_go_timestamp!("01/02/2021", formats: ["01/02/2006", "02/01/2006"])`,
			Result: `t'2021-01-02T00:00:00Z'`,
		},
		{
			Title:  "timestamps pass through",
			Source: `parse_go_timestamp!(t'2021-02-11T16:00:00Z', formats: ["2006"])`,
			Result: `t'2021-02-11T16:00:00Z'`,
		},
		{
			Title:  "no layout matches",
			Source: `parse_go_timestamp("not a date", formats: ["2006-01-02"])`,
			Error:  "unable to convert value to timestamp",
		},
	}
}

func (ParseGoTimestamp) Compile(state *types.State, ctx *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	val := args.Required("value")

	elems, err := args.RequiredArray("formats")
	if err != nil {
		return nil, err
	}
	formats := make([]string, 0, len(elems))
	for _, elem := range elems {
		format, err := staticString(state, "formats", elem, "go_timestamp formats should be a string array")
		if err != nil {
			return nil, err
		}
		formats = append(formats, goLayout(format))
	}

	loc, err := timezoneArg(state, ctx, args, "go_timestamp")
	if err != nil {
		return nil, err
	}

	return &parseGoTimestampFn{
		value:   val,
		formats: formats,
		loc:     loc,
	}, nil
}

// timezoneArg resolves the optional constant timezone argument, falling back
// to the program timezone.
func timezoneArg(state *types.State, ctx *vrl.CompileContext, args *vrl.ArgumentList, prefix string) (*time.Location, error) {
	expr, ok := args.OptionalExpr("timezone")
	if !ok {
		return ctx.DefaultTimezone(), nil
	}
	name, err := staticString(state, "timezone", expr, prefix+" timezone should be a string")
	if err != nil {
		return nil, err
	}
	loc, err := vrl.LoadLocation(name)
	if err != nil {
		return nil, &vrl.InvalidArgumentError{
			Keyword: "timezone",
			Value:   expr.String(),
			Reason:  prefix + " timezone should be a legal timezone",
		}
	}
	return loc, nil
}

// Go only recognizes numeric zone offsets written with '-'. Layouts written
// with '+' are accepted as the same directive.
var numericZones = strings.NewReplacer(
	"+07:00:00", "-07:00:00",
	"+070000", "-070000",
	"+07:00", "-07:00",
	"+0700", "-0700",
	"+07", "-07",
)

func goLayout(format string) string {
	return numericZones.Replace(format)
}

type parseGoTimestampFn struct {
	value   vrl.Expression
	formats []string
	loc     *time.Location
}

func (fn *parseGoTimestampFn) Resolve(ctx *vrl.Context) (value.Value, error) {
	v, err := fn.value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return parseGoTimestamp(v, fn.formats, fn.loc)
}

// TypeDef is always fallible: whether text matches a layout is only known
// once it is parsed.
func (fn *parseGoTimestampFn) TypeDef(*types.State) types.TypeDef {
	return types.Timestamp().Fallible()
}

func parseGoTimestamp(v value.Value, formats []string, loc *time.Location) (value.Value, error) {
	switch v := v.(type) {
	case value.Timestamp:
		return v, nil
	case value.Bytes:
		text := v.UTF8Lossy()
		for _, layout := range formats {
			t, err := time.ParseInLocation(layout, text, loc)
			if err == nil {
				return value.NewTimestamp(t), nil
			}
		}
	}
	return nil, vrl.NewExpressionError("unable to convert value to timestamp")
}
