package vrl

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// Argument is one argument at a call site. Keyword is empty for positional
// arguments.
type Argument struct {
	Keyword string
	Expr    Expression
}

// ArgumentList binds the arguments of one call site to a function's
// parameters. Once built, every required parameter is bound and every bound
// expression may produce a kind its parameter accepts.
type ArgumentList struct {
	ident  string
	params []Parameter
	bound  map[string]Expression
	state  *types.State
}

// NewArgumentList validates a call site against a parameter schema.
// Positional arguments fill the parameters not bound by keyword, in declared
// order. Every problem found is reported, not just the first.
func NewArgumentList(ident string, params []Parameter, args []Argument, state *types.State) (*ArgumentList, error) {
	list := &ArgumentList{
		ident:  ident,
		params: params,
		bound:  make(map[string]Expression, len(args)),
		state:  state,
	}

	var errs *multierror.Error
	fail := func(keyword string, err error, detail string) {
		errs = multierror.Append(errs, &ArgumentError{
			Function: ident,
			Keyword:  keyword,
			Err:      err,
			Detail:   detail,
		})
	}

	keyworded := make(map[string]bool)
	for _, arg := range args {
		if arg.Keyword != "" {
			keyworded[arg.Keyword] = true
		}
	}

	next := 0
	for _, arg := range args {
		var param Parameter
		if arg.Keyword == "" {
			for next < len(params) && keyworded[params[next].Keyword] {
				next++
			}
			if next >= len(params) {
				fail("", ErrTooManyArguments, fmt.Sprintf("%s takes %d", describe(arg.Expr), len(params)))
				continue
			}
			param = params[next]
			next++
		} else {
			p, ok := list.param(arg.Keyword)
			if !ok {
				fail(arg.Keyword, ErrUnknownKeyword, "")
				continue
			}
			param = p
		}

		if _, dup := list.bound[param.Keyword]; dup {
			fail(param.Keyword, ErrDuplicateArgument, "")
			continue
		}
		if err := types.Assignable(param.Kind, arg.Expr.TypeDef(state)); err != nil {
			fail(param.Keyword, ErrArgumentKind, err.Error())
			continue
		}
		list.bound[param.Keyword] = arg.Expr
	}

	for _, p := range params {
		if _, ok := list.bound[p.Keyword]; p.Required && !ok {
			fail(p.Keyword, ErrMissingArgument, "")
		}
	}

	if errs == nil {
		return list, nil
	}
	if len(errs.Errors) == 1 {
		return nil, errs.Errors[0]
	}
	return nil, errs
}

func (a *ArgumentList) param(keyword string) (Parameter, bool) {
	for _, p := range a.params {
		if p.Keyword == keyword {
			return p, true
		}
	}
	return Parameter{}, false
}

// Required returns the expression bound to a required parameter, folded into
// a Literal when it is a compile-time constant.
//
// Asking for an unbound keyword is a programming error and panics.
func (a *ArgumentList) Required(keyword string) Expression {
	return a.fold(a.RequiredExpr(keyword))
}

// RequiredExpr returns the expression bound to a required parameter as
// written at the call site.
func (a *ArgumentList) RequiredExpr(keyword string) Expression {
	expr, ok := a.bound[keyword]
	if !ok {
		panic(fmt.Sprintf("%s: required argument %q not bound", a.ident, keyword))
	}
	return expr
}

// RequiredArray returns the elements of a required argument that must be an
// array literal at the call site.
func (a *ArgumentList) RequiredArray(keyword string) ([]Expression, error) {
	return a.array(keyword, a.RequiredExpr(keyword))
}

// Optional returns the folded expression bound to an optional parameter.
func (a *ArgumentList) Optional(keyword string) (Expression, bool) {
	expr, ok := a.bound[keyword]
	if !ok {
		return nil, false
	}
	return a.fold(expr), true
}

// OptionalExpr returns the expression bound to an optional parameter as
// written at the call site.
func (a *ArgumentList) OptionalExpr(keyword string) (Expression, bool) {
	expr, ok := a.bound[keyword]
	return expr, ok
}

// OptionalArray is RequiredArray for an optional parameter. The elements are
// nil when the parameter is not bound.
func (a *ArgumentList) OptionalArray(keyword string) ([]Expression, error) {
	expr, ok := a.bound[keyword]
	if !ok {
		return nil, nil
	}
	return a.array(keyword, expr)
}

// Keywords returns the bound keywords in parameter order.
func (a *ArgumentList) Keywords() []string {
	var kws []string
	for _, p := range a.params {
		if _, ok := a.bound[p.Keyword]; ok {
			kws = append(kws, p.Keyword)
		}
	}
	return kws
}

// Arguments returns the bound arguments, keyworded, in parameter order.
func (a *ArgumentList) Arguments() []Argument {
	var args []Argument
	for _, kw := range a.Keywords() {
		args = append(args, Argument{Keyword: kw, Expr: a.bound[kw]})
	}
	return args
}

func (a *ArgumentList) fold(expr Expression) Expression {
	if _, ok := expr.(*Literal); ok {
		return expr
	}
	if v, ok := expr.ResolveConstant(a.state); ok {
		return &Literal{Value: v}
	}
	return expr
}

func (a *ArgumentList) array(keyword string, expr Expression) ([]Expression, error) {
	switch expr := expr.(type) {
	case *ArrayExpr:
		return expr.Elements, nil
	case *Literal:
		if arr, ok := expr.Value.(value.Array); ok {
			elems := make([]Expression, len(arr))
			for i, v := range arr {
				elems[i] = &Literal{Value: v}
			}
			return elems, nil
		}
	}
	return nil, &UnexpectedExpressionError{
		Keyword:  keyword,
		Expected: "array literal",
		Expr:     describe(expr),
	}
}
