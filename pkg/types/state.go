package types

import (
	"maps"
	"slices"
	"strings"

	"github.com/hanzai/vrl/pkg/value"
)

// Binding is what the compiler knows about a name at a compile site.
type Binding struct {
	Type TypeDef

	// Constant holds the value when the bound expression was a compile-time
	// constant, or nil.
	Constant value.Value
}

// State is the compile-time type environment: the TypeDefs of local
// variables and of record paths visible at a compile site.
//
// A State is mutated only by the program compiler between function compiles.
// Function compile steps treat it as read-only.
type State struct {
	locals map[string]Binding
	target map[string]TypeDef
}

// NewState creates an empty State.
func NewState() *State {
	return &State{
		locals: make(map[string]Binding),
		target: make(map[string]TypeDef),
	}
}

// Local returns the binding for a local variable.
func (s *State) Local(name string) (Binding, bool) {
	b, ok := s.locals[name]
	return b, ok
}

// SetLocal binds a local variable. constant may be nil.
func (s *State) SetLocal(name string, t TypeDef, constant value.Value) *State {
	s.locals[name] = Binding{Type: t, Constant: constant}
	return s
}

// Target returns the TypeDef of a record path. Paths the compiler knows
// nothing about may hold any kind, and reading them never fails.
func (s *State) Target(path string) TypeDef {
	if t, ok := s.target[path]; ok {
		return t
	}
	return Any()
}

// KnowsTarget reports whether the path has a recorded TypeDef.
func (s *State) KnowsTarget(path string) bool {
	_, ok := s.target[path]
	return ok
}

// SetTarget records the TypeDef of a record path. Reading a path back never
// fails, so the stored TypeDef is infallible.
//
// Paths below the assigned one are forgotten. Every ancestor, the root
// included, becomes an object, since assignment creates intermediates.
func (s *State) SetTarget(path string, t TypeDef) *State {
	for known := range s.target {
		if path == "" || strings.HasPrefix(known, path+".") {
			delete(s.target, known)
		}
	}
	for parent := path; parent != ""; {
		idx := strings.LastIndexByte(parent, '.')
		if idx < 0 {
			parent = ""
		} else {
			parent = parent[:idx]
		}
		s.target[parent] = Object()
	}
	s.target[path] = t.Infallible()
	return s
}

// Clone creates a copy of the State.
func (s *State) Clone() *State {
	return &State{
		locals: maps.Clone(s.locals),
		target: maps.Clone(s.target),
	}
}

// Locals returns the names of all bound locals, sorted.
func (s *State) Locals() []string {
	return slices.Sorted(maps.Keys(s.locals))
}
