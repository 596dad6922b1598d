package vrl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

func TestMain(m *testing.M) {
	os.Exit(oteltest.Main(m))
}

type CompilerSuite struct{}

func TestCompiler(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(CompilerSuite{})
}

func compile(ctx context.Context, t *testctx.T, source string, opts ...Option) *Program {
	t.Helper()
	prog, err := Compile(ctx, source, append([]Option{WithRegistry(testRegistry())}, opts...)...)
	require.NoError(t, err)
	return prog
}

func compileErr(ctx context.Context, source string, opts ...Option) error {
	_, err := Compile(ctx, source, append([]Option{WithRegistry(testRegistry())}, opts...)...)
	return err
}

func (CompilerSuite) TestResolve(ctx context.Context, t *testctx.T) {
	tests := []struct {
		name   string
		source string
		target value.Value
		result string
	}{
		{"string", `"hello"`, nil, `"hello"`},
		{"raw string", `s'a\'b'`, nil, `"a'b"`},
		{"negative float", `-1.5`, nil, `-1.5`},
		{"integer with separators", `1_000`, nil, `1000`},
		{"timestamp literal", `t'2021-02-11T17:00:00+01:00'`, nil, `t'2021-02-11T16:00:00Z'`},
		{"concat strings", `"a" + "b"`, nil, `"ab"`},
		{"mixed numbers", `1 + 1.5`, nil, `2.5`},
		{"concat arrays", `[1] + [2, 3]`, nil, `[1, 2, 3]`},
		{"object", `{ "b": 1, a: [true, null] }`, nil, `{ "a": [true, null], "b": 1 }`},
		{"query", `.a.b`, value.Object{"a": value.Object{"b": value.Integer(1)}}, `1`},
		{"quoted query segment", `."a b"`, value.Object{"a b": value.Bytes("x")}, `"x"`},
		{"missing query", `.nope`, nil, `null`},
		{"root query", `.`, value.Object{"a": value.Integer(1)}, `{ "a": 1 }`},
		{"variables", "x = 1\ny = x + 1\ny", nil, `2`},
		{"semicolons", `x = "a"; x + "b"`, nil, `"ab"`},
		{"comments", "# leading\n\"a\" # trailing\n", nil, `"a"`},
		{"empty program", "", nil, `null`},
		{"function call", `echo("hi", suffix: "!")`, nil, `"hi!"`},
		{"multiline call", "echo(\n  \"hi\",\n  suffix: \"!\",\n)", nil, `"hi!"`},
		{"coalesce", `fail("x") ?? "fallback"`, nil, `"fallback"`},
		{"coalesce chain", `fail("x") ?? fail("y") ?? 3`, nil, `3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(ctx context.Context, t *testctx.T) {
			prog := compile(ctx, t, tt.source)
			v, err := prog.Resolve(NewContext(tt.target))
			require.NoError(t, err)
			require.Equal(t, tt.result, v.String())
		})
	}
}

func (CompilerSuite) TestAssignments(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.a.b = "x"
.count = 1
tmp = .a
.copy = tmp`)

	result, target, err := prog.Run(value.Object{"keep": value.Boolean(true)})
	require.NoError(t, err)
	require.Equal(t, `{ "b": "x" }`, result.String())
	require.Equal(t, `{ "a": { "b": "x" }, "copy": { "b": "x" }, "count": 1, "keep": true }`, target.String())

	state := prog.State()
	assert.Equal(t, "object", state.Target("a").String())
	assert.Equal(t, "bytes", state.Target("a.b").String())
	assert.Equal(t, "integer", state.Target("count").String())
	assert.Equal(t, "any", state.Target("keep").String())
}

func (CompilerSuite) TestAssignmentsDoNotAlias(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.a = [1]
.b = .a
.b = .b + [2]
.a`)
	v, target, err := prog.Run(nil)
	require.NoError(t, err)
	require.Equal(t, `[1]`, v.String())
	require.Equal(t, `{ "a": [1], "b": [1, 2] }`, target.String())

	prog = compile(ctx, t, `tmp = .src
.a = tmp
.b = tmp
.a.c = 1
tmp`)
	v, target, err = prog.Run(value.Object{"src": value.Object{"x": value.Integer(1)}})
	require.NoError(t, err)
	require.Equal(t, `{ "x": 1 }`, v.String())
	require.Equal(t, `{ "a": { "c": 1, "x": 1 }, "b": { "x": 1 }, "src": { "x": 1 } }`, target.String())
}

func (CompilerSuite) TestFallibility(ctx context.Context, t *testctx.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`"a"`, "bytes"},
		{`fail("x")`, "never, fallible"},
		{`[1, fail("x")]`, "array, fallible"},
		{`{ "a": fail("x") }`, "object, fallible"},
		{`echo(.a + 1)`, "integer or float, fallible"},
		{`fail("x") ?? "d"`, "bytes"},
		{`fail("x") ?? fail("y")`, "never, fallible"},
		{`echo("x") ?? 1`, "bytes"},
		{`fail!("x")`, "never"},
		{`x = fail("x")` + "\n" + `"after"`, "bytes, fallible"},
		{`.a + 1`, "integer or float, fallible"},
		{`1 + 2`, "integer"},
		{`echo(.a, suffix: "!")`, "bytes, fallible"},
		{`echo("a", suffix: "!")`, "bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(ctx context.Context, t *testctx.T) {
			prog := compile(ctx, t, tt.source)
			require.Equal(t, tt.want, prog.TypeDef().String())
		})
	}
}

func (CompilerSuite) TestAbort(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `fail!("boom")`)
	_, err := prog.Resolve(NewContext(nil))

	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	require.Equal(t, `fail!(message: "boom")`, abort.Expr)

	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	require.Equal(t, "boom", exprErr.Message)
}

func (CompilerSuite) TestRuntimeErrors(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.a + 1`)
	_, err := prog.Resolve(NewContext(value.Object{"a": value.Bytes("x")}))
	require.EqualError(t, err, "can't add type integer to bytes")

	prog = compile(ctx, t, `fail("first")`+"\n"+`fail("second")`)
	_, err = prog.Resolve(NewContext(nil))
	require.EqualError(t, err, "first")
}

func (CompilerSuite) TestCompileErrors(ctx context.Context, t *testctx.T) {
	t.Run("undefined function", func(ctx context.Context, t *testctx.T) {
		var target *UndefinedFunctionError
		require.ErrorAs(t, compileErr(ctx, `nope(1)`), &target)
		require.Equal(t, "nope", target.Ident)
	})

	t.Run("undefined variable", func(ctx context.Context, t *testctx.T) {
		var target *UndefinedVariableError
		require.ErrorAs(t, compileErr(ctx, `x + 1`), &target)
	})

	t.Run("syntax", func(ctx context.Context, t *testctx.T) {
		for _, src := range []string{`echo(`, `"unterminated`, `[1 2]`, `{ 1: 2 }`, `t'yesterday'`, `r'('`, `1 2`, `@`} {
			var target *SyntaxError
			require.ErrorAs(t, compileErr(ctx, src), &target, src)
		}
	})

	t.Run("invalid operands", func(ctx context.Context, t *testctx.T) {
		var target *OperandError
		require.ErrorAs(t, compileErr(ctx, `1 + "a"`), &target)
		require.Equal(t, "+", target.Op)
	})

	t.Run("argument errors", func(ctx context.Context, t *testctx.T) {
		err := compileErr(ctx, `echo(1, suffix: 2)`)
		require.ErrorIs(t, err, ErrArgumentKind)
	})

	t.Run("static arguments", func(ctx context.Context, t *testctx.T) {
		err := compileErr(ctx, `echo("x", suffix: .s)`)

		var call *FunctionCallError
		require.ErrorAs(t, err, &call)
		require.Equal(t, "echo", call.Ident)

		var static *ExpectedStaticExpressionError
		require.ErrorAs(t, err, &static)
		require.Equal(t, "suffix", static.Keyword)
	})

	t.Run("constants flow through variables", func(ctx context.Context, t *testctx.T) {
		prog := compile(ctx, t, `s = "?"`+"\n"+`echo("x", suffix: s)`)
		v, err := prog.Resolve(NewContext(nil))
		require.NoError(t, err)
		require.Equal(t, `"x?"`, v.String())
	})
}

func (CompilerSuite) TestTimezone(ctx context.Context, t *testctx.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name   string
		source string
		opts   []Option
		want   string
	}{
		{"defaults to UTC", `zone()`, nil, `"UTC"`},
		{"program timezone", `zone()`, []Option{WithTimezone(paris)}, `"Europe/Paris"`},
		{"argument wins", `zone("Asia/Tokyo")`, []Option{WithTimezone(paris)}, `"Asia/Tokyo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(ctx context.Context, t *testctx.T) {
			v, err := compile(ctx, t, tt.source, tt.opts...).Resolve(NewContext(nil))
			require.NoError(t, err)
			require.Equal(t, tt.want, v.String())
		})
	}
}

func (CompilerSuite) TestInitialState(ctx context.Context, t *testctx.T) {
	state := types.NewState()
	state.SetTarget("msg", types.Bytes())

	prog := compile(ctx, t, `echo(.msg, suffix: "!")`, WithState(state))
	require.Equal(t, "bytes", prog.TypeDef().String())

	prog = compile(ctx, t, `.msg = 1`, WithState(state))
	require.Equal(t, "integer", prog.State().Target("msg").String())
	require.Equal(t, "bytes", state.Target("msg").String(), "initial state must not change")
}

func (CompilerSuite) TestLogsCompiledCalls(ctx context.Context, t *testctx.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	compile(ctx, t, `echo("x")`, WithLogger(logger))
	require.Contains(t, logs.String(), `msg="compiled function call" function=echo`)
}

func (CompilerSuite) TestConcurrentResolve(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.out = echo(.in, suffix: "!")
tmp = .out
.out2 = tmp + tmp`)

	const n = 200
	results := make([]value.Value, n)
	eg := new(errgroup.Group)
	eg.SetLimit(16)
	for i := range n {
		eg.Go(func() error {
			_, target, err := prog.Run(value.Object{"in": value.Bytes(fmt.Sprint(i))})
			if err != nil {
				return err
			}
			results[i] = target
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for i, res := range results {
		want := fmt.Sprintf(`{ "in": "%d", "out": "%d!", "out2": "%d!%d!" }`, i, i, i, i)
		require.Equal(t, want, res.String())
	}
}

func (CompilerSuite) TestCompileCall(ctx context.Context, t *testctx.T) {
	state := types.NewState()
	call, err := CompileCall(state, nil, testRegistry(), "echo", []Argument{
		{Keyword: "suffix", Expr: &Literal{Value: value.Bytes("!")}},
		{Expr: &Literal{Value: value.Bytes("x")}},
	})
	require.NoError(t, err)
	require.Equal(t, `echo(value: "x", suffix: "!")`, call.String())
	require.Equal(t, "bytes", call.TypeDef(state).String())

	v, err := call.Resolve(NewContext(nil))
	require.NoError(t, err)
	require.Equal(t, `"x!"`, v.String())
}

func (CompilerSuite) TestProgramString(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, ".a = echo!(1)\nx = [.a, { k: 2 }]\nx ?? null")
	require.Equal(t, `.a = echo!(value: 1)
x = [.a, { "k": 2 }]
x ?? null`, prog.String())
}
