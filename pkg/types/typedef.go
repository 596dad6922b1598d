package types

import (
	"github.com/hanzai/vrl/pkg/value"
)

// TypeDef describes what an expression may produce: the set of value kinds
// it can resolve to, and whether it may fail at runtime.
//
// TypeDefs are values; every modifier returns a copy.
type TypeDef struct {
	kind     value.Kind
	fallible bool
}

// Of returns an infallible TypeDef for the given kinds.
func Of(kind value.Kind) TypeDef {
	return TypeDef{kind: kind}
}

func Any() TypeDef       { return Of(value.KindAny) }
func Bytes() TypeDef     { return Of(value.KindBytes) }
func Integer() TypeDef   { return Of(value.KindInteger) }
func Float() TypeDef     { return Of(value.KindFloat) }
func Boolean() TypeDef   { return Of(value.KindBoolean) }
func Timestamp() TypeDef { return Of(value.KindTimestamp) }
func Regex() TypeDef     { return Of(value.KindRegex) }
func Null() TypeDef      { return Of(value.KindNull) }
func Array() TypeDef     { return Of(value.KindArray) }
func Object() TypeDef    { return Of(value.KindObject) }

// Kind returns the set of kinds the expression may produce.
func (t TypeDef) Kind() value.Kind {
	return t.kind
}

// IsFallible reports whether the expression may fail at runtime.
func (t TypeDef) IsFallible() bool {
	return t.fallible
}

func (t TypeDef) Fallible() TypeDef {
	t.fallible = true
	return t
}

func (t TypeDef) Infallible() TypeDef {
	t.fallible = false
	return t
}

// WithFallibility marks t fallible if fallible is true. It never clears an
// existing fallible flag.
func (t TypeDef) WithFallibility(fallible bool) TypeDef {
	t.fallible = t.fallible || fallible
	return t
}

// WithKind replaces the kind set, keeping fallibility.
func (t TypeDef) WithKind(kind value.Kind) TypeDef {
	t.kind = kind
	return t
}

// Union merges the kinds of both TypeDefs. The result is fallible if either
// side is.
func (t TypeDef) Union(other TypeDef) TypeDef {
	return TypeDef{
		kind:     t.kind.Union(other.kind),
		fallible: t.fallible || other.fallible,
	}
}

// Merge propagates the fallibility of children into t. Kinds are unchanged.
func (t TypeDef) Merge(children ...TypeDef) TypeDef {
	for _, c := range children {
		t.fallible = t.fallible || c.fallible
	}
	return t
}

// Is reports whether t is exactly the given kind set.
func (t TypeDef) Is(kind value.Kind) bool {
	return t.kind == kind
}

// Equal reports whether both kinds and fallibility match.
func (t TypeDef) Equal(other TypeDef) bool {
	return t == other
}

func (t TypeDef) String() string {
	if t.fallible {
		return t.kind.String() + ", fallible"
	}
	return t.kind.String()
}
