package vrl

import (
	"github.com/hanzai/vrl/pkg/value"
)

// Context is the runtime environment of one record: the record itself (the
// target) and the program's local variables.
//
// A Context belongs to a single evaluation and must not be shared between
// concurrent Resolve calls.
type Context struct {
	target value.Value
	locals map[string]value.Value
}

// NewContext creates a Context for the given record. A nil target starts as
// an empty object.
func NewContext(target value.Value) *Context {
	if target == nil {
		target = value.Object{}
	}
	return &Context{
		target: target,
		locals: make(map[string]value.Value),
	}
}

// Target returns the record, including any assignments made so far.
func (ctx *Context) Target() value.Value {
	return ctx.target
}

// Get reads a record path. Missing fields and paths through non-objects
// resolve to null.
func (ctx *Context) Get(path []string) value.Value {
	cur := ctx.target
	for _, seg := range path {
		obj, ok := cur.(value.Object)
		if !ok {
			return value.Null{}
		}
		cur, ok = obj[seg]
		if !ok {
			return value.Null{}
		}
	}
	return cur
}

// Set writes a record path, creating intermediate objects and replacing
// non-object intermediates.
func (ctx *Context) Set(path []string, v value.Value) {
	if len(path) == 0 {
		ctx.target = v
		return
	}
	root, ok := ctx.target.(value.Object)
	if !ok {
		root = value.Object{}
		ctx.target = root
	}
	obj := root
	for _, seg := range path[:len(path)-1] {
		next, ok := obj[seg].(value.Object)
		if !ok {
			next = value.Object{}
			obj[seg] = next
		}
		obj = next
	}
	obj[path[len(path)-1]] = v
}

// Local reads a local variable. Unset variables are null.
func (ctx *Context) Local(name string) value.Value {
	if v, ok := ctx.locals[name]; ok {
		return v
	}
	return value.Null{}
}

func (ctx *Context) SetLocal(name string, v value.Value) {
	ctx.locals[name] = v
}
