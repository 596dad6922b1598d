package stdlib

import (
	"strings"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

// Upcase uppercases a string.
type Upcase struct{}

func (Upcase) Identifier() string { return "upcase" }
func (Upcase) Summary() string    { return "Uppercases a string." }

func (Upcase) Parameters() []vrl.Parameter {
	return []vrl.Parameter{{Keyword: "value", Kind: value.KindBytes, Required: true}}
}

func (Upcase) Examples() []vrl.Example {
	return []vrl.Example{
		{Title: "upcase", Source: `upcase("Hello, World!")`, Result: `"HELLO, WORLD!"`},
	}
}

func (Upcase) Compile(_ *types.State, _ *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	return &mapStringFn{value: args.Required("value"), fn: strings.ToUpper}, nil
}

// Downcase lowercases a string.
type Downcase struct{}

func (Downcase) Identifier() string { return "downcase" }
func (Downcase) Summary() string    { return "Lowercases a string." }

func (Downcase) Parameters() []vrl.Parameter {
	return []vrl.Parameter{{Keyword: "value", Kind: value.KindBytes, Required: true}}
}

func (Downcase) Examples() []vrl.Example {
	return []vrl.Example{
		{Title: "downcase", Source: `downcase("Hello, World!")`, Result: `"hello, world!"`},
	}
}

func (Downcase) Compile(_ *types.State, _ *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	return &mapStringFn{value: args.Required("value"), fn: strings.ToLower}, nil
}

type mapStringFn struct {
	value vrl.Expression
	fn    func(string) string
}

func (m *mapStringFn) Resolve(ctx *vrl.Context) (value.Value, error) {
	v, err := m.value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, vrl.NewExpressionError("expected string, got %s", v.Kind())
	}
	return value.Bytes(m.fn(b.UTF8Lossy())), nil
}

func (m *mapStringFn) TypeDef(state *types.State) types.TypeDef {
	return fallibleUnless(state, types.Bytes(), value.KindBytes, m.value)
}

// Contains reports whether a string contains a substring.
type Contains struct{}

func (Contains) Identifier() string { return "contains" }
func (Contains) Summary() string    { return "Reports whether a string contains a substring." }

func (Contains) Parameters() []vrl.Parameter {
	return []vrl.Parameter{
		{Keyword: "value", Kind: value.KindBytes, Required: true, Description: "The text to search."},
		{Keyword: "substring", Kind: value.KindBytes, Required: true, Description: "The text to search for."},
		{Keyword: "case_sensitive", Kind: value.KindBoolean, Description: "Defaults to true."},
	}
}

func (Contains) Examples() []vrl.Example {
	return []vrl.Example{
		{
			Title:  "case sensitive",
			Source: `contains("The Needle In The Haystack", "needle")`,
			Result: `false`,
		},
		{
			Title:  "case insensitive",
			Source: `contains("The Needle In The Haystack", substring: "needle", case_sensitive: false)`,
			Result: `true`,
		},
	}
}

func (Contains) Compile(_ *types.State, _ *vrl.CompileContext, args *vrl.ArgumentList) (vrl.FunctionExpression, error) {
	fn := &containsFn{
		value:     args.Required("value"),
		substring: args.Required("substring"),
	}
	fn.caseSensitive, _ = args.Optional("case_sensitive")
	return fn, nil
}

type containsFn struct {
	value         vrl.Expression
	substring     vrl.Expression
	caseSensitive vrl.Expression
}

func (fn *containsFn) Resolve(ctx *vrl.Context) (value.Value, error) {
	haystack, err := resolveString(ctx, fn.value)
	if err != nil {
		return nil, err
	}
	needle, err := resolveString(ctx, fn.substring)
	if err != nil {
		return nil, err
	}
	sensitive := true
	if fn.caseSensitive != nil {
		v, err := fn.caseSensitive.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Boolean)
		if !ok {
			return nil, vrl.NewExpressionError("expected boolean, got %s", v.Kind())
		}
		sensitive = bool(b)
	}
	if !sensitive {
		haystack, needle = strings.ToLower(haystack), strings.ToLower(needle)
	}
	return value.Boolean(strings.Contains(haystack, needle)), nil
}

func (fn *containsFn) TypeDef(state *types.State) types.TypeDef {
	t := fallibleUnless(state, types.Boolean(), value.KindBytes, fn.value, fn.substring)
	if fn.caseSensitive != nil && !types.Exactly(value.KindBoolean, fn.caseSensitive.TypeDef(state)) {
		t = t.Fallible()
	}
	return t
}

func resolveString(ctx *vrl.Context, expr vrl.Expression) (string, error) {
	v, err := expr.Resolve(ctx)
	if err != nil {
		return "", err
	}
	b, ok := v.(value.Bytes)
	if !ok {
		return "", vrl.NewExpressionError("expected string, got %s", v.Kind())
	}
	return b.UTF8Lossy(), nil
}
