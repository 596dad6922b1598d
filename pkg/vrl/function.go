package vrl

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/iancoleman/strcase"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// Function is a standard library function. Implementations are stateless
// singletons; all per-call-site state lives in the FunctionExpression
// returned by Compile.
type Function interface {
	// Identifier is the name used at call sites.
	Identifier() string

	// Summary is a one-line description for documentation.
	Summary() string

	Parameters() []Parameter

	// Examples are worked examples, used both as documentation and as test
	// fixtures.
	Examples() []Example

	// Compile validates one call site and precomputes whatever the runtime
	// path can reuse. It runs once per call site.
	Compile(state *types.State, ctx *CompileContext, args *ArgumentList) (FunctionExpression, error)
}

// FunctionExpression is the compiled form of one call site.
type FunctionExpression interface {
	Resolve(ctx *Context) (value.Value, error)
	TypeDef(state *types.State) types.TypeDef
}

// Parameter declares one argument slot of a function.
type Parameter struct {
	Keyword     string
	Kind        value.Kind
	Required    bool
	Description string
}

// Example is a worked example. Exactly one of Result and Error is set:
// Result is the rendered value the source resolves to, Error a substring of
// the error it fails with.
type Example struct {
	Title  string
	Source string
	Result string
	Error  string
}

// CompileContext carries program-wide settings into a function's compile
// step.
type CompileContext struct {
	// Ident is the identifier at the call site being compiled.
	Ident string

	// Timezone is the program's default timezone.
	Timezone *time.Location

	Logger *slog.Logger
}

func (ctx *CompileContext) logger() *slog.Logger {
	if ctx.Logger == nil {
		return slog.Default()
	}
	return ctx.Logger
}

// DefaultTimezone returns the program timezone, UTC if none is configured.
func (ctx *CompileContext) DefaultTimezone() *time.Location {
	if ctx == nil || ctx.Timezone == nil {
		return time.UTC
	}
	return ctx.Timezone
}

// FunctionCall embeds a compiled call site in a program.
type FunctionCall struct {
	Ident string
	Expr  FunctionExpression
	Args  []Argument
}

var _ Expression = (*FunctionCall)(nil)

func (c *FunctionCall) Resolve(ctx *Context) (value.Value, error) {
	return c.Expr.Resolve(ctx)
}

// TypeDef is the function's own TypeDef, made fallible when any argument is.
func (c *FunctionCall) TypeDef(state *types.State) types.TypeDef {
	t := c.Expr.TypeDef(state)
	for _, arg := range c.Args {
		t = t.Merge(arg.Expr.TypeDef(state))
	}
	return t
}

func (c *FunctionCall) ResolveConstant(*types.State) (value.Value, bool) {
	return nil, false
}

func (c *FunctionCall) String() string {
	return c.Ident + c.argsString()
}

func (c *FunctionCall) argsString() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.Keyword + ": " + arg.Expr.String()
	}
	return "(" + strings.Join(args, ", ") + ")"
}

// Registry holds functions keyed by identifier.
type Registry struct {
	functions map[string]Function
}

// NewRegistry creates a registry holding fns.
func NewRegistry(fns ...Function) *Registry {
	r := &Registry{functions: make(map[string]Function)}
	for _, fn := range fns {
		r.Register(fn)
	}
	return r
}

// DefaultRegistry is the registry used when no other is configured. The
// stdlib package populates it.
var DefaultRegistry = NewRegistry()

// Register adds a function to the default registry.
func Register(fn Function) {
	DefaultRegistry.Register(fn)
}

// Register adds a function. Registering an identifier twice, or a malformed
// identifier or parameter schema, is a programming error and panics.
func (r *Registry) Register(fn Function) {
	ident := fn.Identifier()
	if ident == "" || strcase.ToSnake(ident) != ident {
		panic(fmt.Sprintf("function identifier %q is not snake_case", ident))
	}
	if _, exists := r.functions[ident]; exists {
		panic(fmt.Sprintf("function %q registered twice", ident))
	}
	seen := map[string]bool{}
	for _, p := range fn.Parameters() {
		if strcase.ToSnake(p.Keyword) != p.Keyword || seen[p.Keyword] {
			panic(fmt.Sprintf("function %q: invalid parameter keyword %q", ident, p.Keyword))
		}
		if p.Kind.IsEmpty() {
			panic(fmt.Sprintf("function %q: parameter %q accepts no kinds", ident, p.Keyword))
		}
		seen[p.Keyword] = true
	}
	r.functions[ident] = fn
}

// Lookup finds a function by identifier.
func (r *Registry) Lookup(ident string) (Function, bool) {
	fn, ok := r.functions[ident]
	return fn, ok
}

// Functions returns every registered function, sorted by identifier.
func (r *Registry) Functions() []Function {
	fns := make([]Function, 0, len(r.functions))
	for _, fn := range r.functions {
		fns = append(fns, fn)
	}
	slices.SortFunc(fns, func(a, b Function) int {
		return strings.Compare(a.Identifier(), b.Identifier())
	})
	return fns
}

// ForEachFunction iterates over the default registry in identifier order.
func ForEachFunction(fn func(Function)) {
	for _, f := range DefaultRegistry.Functions() {
		fn(f)
	}
}
