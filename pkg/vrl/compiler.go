package vrl

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

var tracer = otel.Tracer("github.com/hanzai/vrl/pkg/vrl")

// Program is a compiled program. It is immutable and safe to resolve from
// many goroutines at once, each with its own Context.
type Program struct {
	root  *Block
	state *types.State
}

// Resolve runs the program against one record.
func (p *Program) Resolve(ctx *Context) (value.Value, error) {
	return p.root.Resolve(ctx)
}

// Run resolves the program against target, returning the program's result
// and the record after assignments.
func (p *Program) Run(target value.Value) (value.Value, value.Value, error) {
	ctx := NewContext(target)
	v, err := p.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	return v, ctx.Target(), nil
}

// TypeDef is the type of the program's final expression. It is fallible if
// any statement is.
func (p *Program) TypeDef() types.TypeDef {
	return p.root.TypeDef(p.state)
}

// State returns a copy of the type state after the last statement.
func (p *Program) State() *types.State {
	return p.state.Clone()
}

// Root returns the compiled expression tree.
func (p *Program) Root() Expression {
	return p.root
}

func (p *Program) String() string {
	return p.root.String()
}

// Option configures Compile.
type Option func(*compiler)

// WithRegistry compiles against a registry other than DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(c *compiler) { c.registry = r }
}

// WithTimezone sets the default timezone handed to functions.
func WithTimezone(loc *time.Location) Option {
	return func(c *compiler) { c.timezone = loc }
}

// WithLogger sets the logger used during compilation.
func WithLogger(l *slog.Logger) Option {
	return func(c *compiler) { c.logger = l }
}

// WithState starts compilation from a known type state, e.g. the shape of
// the records the program will see. The state is copied.
func WithState(s *types.State) Option {
	return func(c *compiler) { c.state = s.Clone() }
}

type compiler struct {
	state    *types.State
	registry *Registry
	timezone *time.Location
	logger   *slog.Logger
}

// Compile parses and compiles a program. Compilation is deterministic and
// stops at the first error.
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	_, span := tracer.Start(ctx, "vrl.compile",
		trace.WithAttributes(attribute.Int("vrl.source.bytes", len(source))))
	defer span.End()

	c := &compiler{
		state:    types.NewState(),
		registry: DefaultRegistry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	prog, err := c.compile(source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("vrl.statements", len(prog.root.Exprs)),
		attribute.String("vrl.type", prog.TypeDef().String()),
	)
	return prog, nil
}

func (c *compiler) compile(source string) (*Program, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, c: c}
	root, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return &Program{root: root, state: c.state}, nil
}

func (c *compiler) call(ident string, args []Argument) (*FunctionCall, error) {
	cctx := &CompileContext{
		Ident:    ident,
		Timezone: c.timezone,
		Logger:   c.logger,
	}
	return CompileCall(c.state, cctx, c.registry, ident, args)
}

// CompileCall compiles one call site: it looks the function up, binds the
// arguments against its parameters and runs its compile step.
func CompileCall(state *types.State, ctx *CompileContext, registry *Registry, ident string, args []Argument) (*FunctionCall, error) {
	fn, ok := registry.Lookup(ident)
	if !ok {
		return nil, &UndefinedFunctionError{Ident: ident}
	}

	list, err := NewArgumentList(ident, fn.Parameters(), args, state)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = &CompileContext{}
	}
	ctx.Ident = ident

	expr, err := fn.Compile(state, ctx, list)
	if err != nil {
		return nil, &FunctionCallError{Ident: ident, Err: err}
	}

	call := &FunctionCall{
		Ident: ident,
		Expr:  expr,
		Args:  list.Arguments(),
	}
	ctx.logger().Debug("compiled function call",
		"function", ident,
		"arguments", list.Keywords(),
		"type", call.TypeDef(state).String())
	return call, nil
}
