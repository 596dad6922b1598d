// Package stdlib holds the standard library functions. Importing it
// registers every function with vrl.DefaultRegistry.
package stdlib

import (
	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

func init() {
	for _, fn := range All() {
		vrl.Register(fn)
	}
}

// All returns every standard library function.
func All() []vrl.Function {
	return []vrl.Function{
		ParseGoTimestamp{},
		FormatGoTimestamp{},
		ToUnixTimestamp{},
		Upcase{},
		Downcase{},
		Contains{},
	}
}

// staticString resolves an argument that configures the function and so
// must be a constant string at compile time.
func staticString(state *types.State, keyword string, expr vrl.Expression, reason string) (string, error) {
	v, ok := expr.ResolveConstant(state)
	if !ok {
		return "", &vrl.ExpectedStaticExpressionError{Keyword: keyword, Expr: expr.String()}
	}
	b, ok := v.(value.Bytes)
	if !ok {
		return "", &vrl.InvalidArgumentError{Keyword: keyword, Value: expr.String(), Reason: reason}
	}
	return b.UTF8Lossy(), nil
}

// fallibleUnless returns t, marked fallible unless every expression is
// statically known to produce only the accepted kinds.
func fallibleUnless(state *types.State, t types.TypeDef, accepted value.Kind, exprs ...vrl.Expression) types.TypeDef {
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		if !types.Exactly(accepted, expr.TypeDef(state)) {
			return t.Fallible()
		}
	}
	return t
}
