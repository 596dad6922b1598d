package vrl

import (
	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// echo returns its argument, optionally suffixed with a constant.
type echo struct{}

func (echo) Identifier() string { return "echo" }
func (echo) Summary() string    { return "Returns its argument." }

func (echo) Parameters() []Parameter {
	return []Parameter{
		{Keyword: "value", Kind: value.KindAny, Required: true},
		{Keyword: "suffix", Kind: value.KindBytes},
	}
}

func (echo) Examples() []Example {
	return []Example{
		{Title: "echo", Source: `echo("hi", suffix: "!")`, Result: `"hi!"`},
	}
}

func (echo) Compile(state *types.State, _ *CompileContext, args *ArgumentList) (FunctionExpression, error) {
	fn := &echoFn{value: args.Required("value")}
	if expr, ok := args.OptionalExpr("suffix"); ok {
		v, ok := expr.ResolveConstant(state)
		if !ok {
			return nil, &ExpectedStaticExpressionError{Keyword: "suffix", Expr: expr.String()}
		}
		fn.suffix = v.(value.Bytes)
	}
	return fn, nil
}

type echoFn struct {
	value  Expression
	suffix value.Bytes
}

func (fn *echoFn) Resolve(ctx *Context) (value.Value, error) {
	v, err := fn.value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if fn.suffix == nil {
		return v, nil
	}
	return concat(v, fn.suffix)
}

func (fn *echoFn) TypeDef(state *types.State) types.TypeDef {
	t := fn.value.TypeDef(state)
	if fn.suffix != nil {
		return types.Bytes().WithFallibility(!t.Is(value.KindBytes))
	}
	return types.Of(t.Kind())
}

// fail always fails with its message.
type fail struct{}

func (fail) Identifier() string { return "fail" }
func (fail) Summary() string    { return "Fails." }
func (fail) Examples() []Example {
	return []Example{{Title: "fail", Source: `fail("boom")`, Error: "boom"}}
}

func (fail) Parameters() []Parameter {
	return []Parameter{{Keyword: "message", Kind: value.KindBytes, Required: true}}
}

func (fail) Compile(_ *types.State, _ *CompileContext, args *ArgumentList) (FunctionExpression, error) {
	return &failFn{message: args.Required("message")}, nil
}

type failFn struct {
	message Expression
}

func (fn *failFn) Resolve(ctx *Context) (value.Value, error) {
	v, err := fn.message.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return nil, NewExpressionError("%s", v.(value.Bytes).UTF8Lossy())
}

func (fn *failFn) TypeDef(*types.State) types.TypeDef {
	return types.Of(value.KindNever).Fallible()
}

// zone resolves to the name of a timezone: the constant argument if given,
// the program timezone otherwise.
type zone struct{}

func (zone) Identifier() string  { return "zone" }
func (zone) Summary() string     { return "Names a timezone." }
func (zone) Examples() []Example { return nil }

func (zone) Parameters() []Parameter {
	return []Parameter{{Keyword: "name", Kind: value.KindBytes}}
}

func (zone) Compile(state *types.State, ctx *CompileContext, args *ArgumentList) (FunctionExpression, error) {
	name := ctx.DefaultTimezone().String()
	if expr, ok := args.Optional("name"); ok {
		lit, ok := expr.(*Literal)
		if !ok {
			return nil, &ExpectedStaticExpressionError{Keyword: "name", Expr: expr.String()}
		}
		name = lit.Value.(value.Bytes).UTF8Lossy()
	}
	return &Literal{Value: value.Bytes(name)}, nil
}

func testRegistry() *Registry {
	return NewRegistry(echo{}, fail{}, zone{})
}
