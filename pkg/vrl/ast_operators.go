package vrl

import (
	"slices"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// Concat is the `+` operator: it joins byte strings and arrays and adds
// numbers. Mixing integers and floats produces a float.
type Concat struct {
	Left, Right Expression
}

var _ Expression = (*Concat)(nil)

// NewConcat checks that the operands can ever be combined.
func NewConcat(left, right Expression, state *types.State) (*Concat, error) {
	lk := left.TypeDef(state).Kind()
	rk := right.TypeDef(state).Kind()
	if kind, _ := concatKind(lk, rk); kind.IsEmpty() {
		return nil, &OperandError{Op: "+", Left: lk, Right: rk}
	}
	return &Concat{Left: left, Right: right}, nil
}

func (c *Concat) Resolve(ctx *Context) (value.Value, error) {
	l, err := c.Left.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	r, err := c.Right.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return concat(l, r)
}

func (c *Concat) TypeDef(state *types.State) types.TypeDef {
	lt := c.Left.TypeDef(state)
	rt := c.Right.TypeDef(state)
	kind, exhaustive := concatKind(lt.Kind(), rt.Kind())
	return types.Of(kind).WithFallibility(!exhaustive).Merge(lt, rt)
}

func (c *Concat) ResolveConstant(state *types.State) (value.Value, bool) {
	l, ok := c.Left.ResolveConstant(state)
	if !ok {
		return nil, false
	}
	r, ok := c.Right.ResolveConstant(state)
	if !ok {
		return nil, false
	}
	v, err := concat(l, r)
	if err != nil {
		// leave the failure to runtime, where it is reported per record
		return nil, false
	}
	return v, true
}

func (c *Concat) String() string {
	return c.Left.String() + " + " + c.Right.String()
}

// concatKind returns the kinds `+` can produce for the operand kinds, and
// whether every operand pairing is valid.
func concatKind(left, right value.Kind) (value.Kind, bool) {
	result := value.KindNever
	exhaustive := true
	for _, l := range left.Kinds() {
		for _, r := range right.Kinds() {
			k := concatPair(l, r)
			if k.IsEmpty() {
				exhaustive = false
			}
			result = result.Union(k)
		}
	}
	return result, exhaustive
}

func concatPair(l, r value.Kind) value.Kind {
	switch {
	case l == value.KindBytes && r == value.KindBytes:
		return value.KindBytes
	case l == value.KindInteger && r == value.KindInteger:
		return value.KindInteger
	case value.KindNumber.Contains(l) && value.KindNumber.Contains(r):
		return value.KindFloat
	case l == value.KindArray && r == value.KindArray:
		return value.KindArray
	default:
		return value.KindNever
	}
}

func concat(l, r value.Value) (value.Value, error) {
	switch l := l.(type) {
	case value.Bytes:
		if r, ok := r.(value.Bytes); ok {
			return append(slices.Clip(l), r...), nil
		}
	case value.Integer:
		switch r := r.(type) {
		case value.Integer:
			return l + r, nil
		case value.Float:
			return value.Float(l) + r, nil
		}
	case value.Float:
		switch r := r.(type) {
		case value.Integer:
			return l + value.Float(r), nil
		case value.Float:
			return l + r, nil
		}
	case value.Array:
		if r, ok := r.(value.Array); ok {
			return append(slices.Clip(l), r...), nil
		}
	}
	return nil, NewExpressionError("can't add type %s to %s", r.Kind(), l.Kind())
}

// Coalesce is the `??` operator: it resolves to the right side when the left
// side fails.
type Coalesce struct {
	Left, Right Expression
}

var _ Expression = (*Coalesce)(nil)

func (c *Coalesce) Resolve(ctx *Context) (value.Value, error) {
	v, err := c.Left.Resolve(ctx)
	if err == nil {
		return v, nil
	}
	return c.Right.Resolve(ctx)
}

func (c *Coalesce) TypeDef(state *types.State) types.TypeDef {
	lt := c.Left.TypeDef(state)
	if !lt.IsFallible() {
		return lt
	}
	rt := c.Right.TypeDef(state)
	return types.Of(lt.Kind().Union(rt.Kind())).WithFallibility(rt.IsFallible())
}

func (c *Coalesce) ResolveConstant(state *types.State) (value.Value, bool) {
	return c.Left.ResolveConstant(state)
}

func (c *Coalesce) String() string {
	return c.Left.String() + " ?? " + c.Right.String()
}

// Assignment stores a value into a record path or a local variable, and
// resolves to the stored value.
type Assignment struct {
	// Path is set for record assignments, Local for variables.
	Path  []string
	Local string
	Value Expression

	typeDef types.TypeDef
}

var _ Expression = (*Assignment)(nil)

// NewAssignment compiles an assignment and records its effect in state.
func NewAssignment(target Expression, val Expression, state *types.State) (*Assignment, error) {
	t := val.TypeDef(state)
	a := &Assignment{Value: val, typeDef: t}
	switch target := target.(type) {
	case *Query:
		a.Path = target.Path
		state.SetTarget(target.Key(), t)
	case *Variable:
		a.Local = target.Name
		constant, _ := val.ResolveConstant(state)
		state.SetLocal(target.Name, t.Infallible(), constant)
	default:
		return nil, &UnexpectedExpressionError{Expected: "path or variable", Expr: describe(target)}
	}
	return a, nil
}

func (a *Assignment) Resolve(ctx *Context) (value.Value, error) {
	v, err := a.Value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if a.Local != "" {
		ctx.SetLocal(a.Local, v)
	} else {
		ctx.Set(a.Path, v)
	}
	return value.Clone(v), nil
}

func (a *Assignment) TypeDef(*types.State) types.TypeDef {
	return a.typeDef
}

func (a *Assignment) ResolveConstant(*types.State) (value.Value, bool) {
	return nil, false
}

func (a *Assignment) String() string {
	target := a.Local
	if target == "" {
		target = (&Query{Path: a.Path}).String()
	}
	return target + " = " + a.Value.String()
}

// Abort asserts that an expression does not fail. A failure at runtime
// becomes an AbortError, which fails the record.
type Abort struct {
	Expr Expression
}

var _ Expression = (*Abort)(nil)

func (a *Abort) Resolve(ctx *Context) (value.Value, error) {
	v, err := a.Expr.Resolve(ctx)
	if err != nil {
		return nil, &AbortError{Expr: a.String(), Err: err}
	}
	return v, nil
}

func (a *Abort) TypeDef(state *types.State) types.TypeDef {
	return a.Expr.TypeDef(state).Infallible()
}

func (a *Abort) ResolveConstant(*types.State) (value.Value, bool) {
	return nil, false
}

func (a *Abort) String() string {
	if call, ok := a.Expr.(*FunctionCall); ok {
		return call.Ident + "!" + call.argsString()
	}
	return a.Expr.String() + "!"
}
