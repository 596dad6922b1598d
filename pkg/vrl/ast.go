package vrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// Expression is a compiled node of a program.
//
// Nodes are immutable once compiled and may be resolved concurrently, each
// call with its own Context.
type Expression interface {
	// Resolve evaluates the node against one record.
	Resolve(ctx *Context) (value.Value, error)

	// TypeDef returns the kinds the node may produce and whether it may fail.
	TypeDef(state *types.State) types.TypeDef

	// ResolveConstant evaluates the node without a record, if the node is a
	// compile-time constant.
	ResolveConstant(state *types.State) (value.Value, bool)

	// String describes the node in source form.
	String() string
}

// Literal is a constant value.
type Literal struct {
	Value value.Value
}

var _ Expression = (*Literal)(nil)

func (l *Literal) Resolve(*Context) (value.Value, error) {
	// Containers are copied so that later assignments into them cannot
	// reach the shared tree.
	return value.Clone(l.Value), nil
}

func (l *Literal) TypeDef(*types.State) types.TypeDef {
	return types.Of(l.Value.Kind())
}

func (l *Literal) ResolveConstant(*types.State) (value.Value, bool) {
	return l.Value, true
}

func (l *Literal) String() string {
	return l.Value.String()
}

// ArrayExpr is an array literal whose elements may be dynamic.
type ArrayExpr struct {
	Elements []Expression
}

var _ Expression = (*ArrayExpr)(nil)

func (a *ArrayExpr) Resolve(ctx *Context) (value.Value, error) {
	arr := make(value.Array, len(a.Elements))
	for i, el := range a.Elements {
		v, err := el.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return arr, nil
}

func (a *ArrayExpr) TypeDef(state *types.State) types.TypeDef {
	t := types.Array()
	for _, el := range a.Elements {
		t = t.Merge(el.TypeDef(state))
	}
	return t
}

func (a *ArrayExpr) ResolveConstant(state *types.State) (value.Value, bool) {
	arr := make(value.Array, len(a.Elements))
	for i, el := range a.Elements {
		v, ok := el.ResolveConstant(state)
		if !ok {
			return nil, false
		}
		arr[i] = v
	}
	return arr, true
}

func (a *ArrayExpr) String() string {
	elems := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		elems[i] = el.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// ObjectField is one key of an ObjectExpr.
type ObjectField struct {
	Key   string
	Value Expression
}

// ObjectExpr is an object literal whose values may be dynamic.
type ObjectExpr struct {
	Fields []ObjectField
}

var _ Expression = (*ObjectExpr)(nil)

func (o *ObjectExpr) Resolve(ctx *Context) (value.Value, error) {
	obj := make(value.Object, len(o.Fields))
	for _, f := range o.Fields {
		v, err := f.Value.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		obj[f.Key] = v
	}
	return obj, nil
}

func (o *ObjectExpr) TypeDef(state *types.State) types.TypeDef {
	t := types.Object()
	for _, f := range o.Fields {
		t = t.Merge(f.Value.TypeDef(state))
	}
	return t
}

func (o *ObjectExpr) ResolveConstant(state *types.State) (value.Value, bool) {
	obj := make(value.Object, len(o.Fields))
	for _, f := range o.Fields {
		v, ok := f.Value.ResolveConstant(state)
		if !ok {
			return nil, false
		}
		obj[f.Key] = v
	}
	return obj, true
}

func (o *ObjectExpr) String() string {
	if len(o.Fields) == 0 {
		return "{}"
	}
	fields := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = strconv.Quote(f.Key) + ": " + f.Value.String()
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// Query reads a path of the record being processed.
type Query struct {
	Path []string
}

var _ Expression = (*Query)(nil)

func (q *Query) Resolve(ctx *Context) (value.Value, error) {
	return value.Clone(ctx.Get(q.Path)), nil
}

func (q *Query) TypeDef(state *types.State) types.TypeDef {
	return state.Target(q.Key())
}

func (q *Query) ResolveConstant(*types.State) (value.Value, bool) {
	return nil, false
}

// Key is the path in the form used by types.State.
func (q *Query) Key() string {
	return strings.Join(q.Path, ".")
}

func (q *Query) String() string {
	return "." + q.Key()
}

// Variable reads a local variable.
type Variable struct {
	Name string
}

var _ Expression = (*Variable)(nil)

func (v *Variable) Resolve(ctx *Context) (value.Value, error) {
	return value.Clone(ctx.Local(v.Name)), nil
}

func (v *Variable) TypeDef(state *types.State) types.TypeDef {
	if b, ok := state.Local(v.Name); ok {
		return b.Type.Infallible()
	}
	return types.Null()
}

func (v *Variable) ResolveConstant(state *types.State) (value.Value, bool) {
	if b, ok := state.Local(v.Name); ok && b.Constant != nil {
		return b.Constant, true
	}
	return nil, false
}

func (v *Variable) String() string {
	return v.Name
}

// Block is a sequence of expressions resolving to the last one.
//
// Its TypeDef is fixed when the block is compiled, since the State changes
// from statement to statement.
type Block struct {
	Exprs []Expression

	typeDef types.TypeDef
}

var _ Expression = (*Block)(nil)

// NewBlock creates a Block whose TypeDef was computed statement by statement.
func NewBlock(exprs []Expression, t types.TypeDef) *Block {
	return &Block{Exprs: exprs, typeDef: t}
}

func (b *Block) Resolve(ctx *Context) (value.Value, error) {
	var last value.Value = value.Null{}
	for _, expr := range b.Exprs {
		v, err := expr.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (b *Block) TypeDef(*types.State) types.TypeDef {
	return b.typeDef
}

func (b *Block) ResolveConstant(*types.State) (value.Value, bool) {
	return nil, false
}

func (b *Block) String() string {
	stmts := make([]string, len(b.Exprs))
	for i, expr := range b.Exprs {
		stmts[i] = expr.String()
	}
	return strings.Join(stmts, "\n")
}

// describe renders an expression for error messages.
func describe(expr Expression) string {
	if expr == nil {
		return "<nil>"
	}
	return fmt.Sprintf("`%s`", expr)
}
