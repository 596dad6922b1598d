package stdlib

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

type ParseGoTimestampSuite struct{}

func TestParseGoTimestamp(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(ParseGoTimestampSuite{})
}

func (ParseGoTimestampSuite) TestParse(ctx context.Context, t *testctx.T) {
	tests := []struct {
		name     string
		value    value.Value
		formats  string
		timezone string
		want     string
	}{
		{
			name:    "numeric offset",
			value:   value.Bytes("11-Feb-2021 16:00 +00:00"),
			formats: `["02-Jan-2006 15:04 +07:00"]`,
			want:    "2021-02-11T16:00:00Z",
		},
		{
			name:     "named timezone",
			value:    value.Bytes("16/10/2019 12:00:00"),
			formats:  `["02/01/2006 15:04:05"]`,
			timezone: "Europe/Paris",
			want:     "2019-10-16T10:00:00Z",
		},
		{
			name:     "offset in text wins over timezone",
			value:    value.Bytes("2021-02-11 16:00 -0500"),
			formats:  `["2006-01-02 15:04 -0700"]`,
			timezone: "Asia/Tokyo",
			want:     "2021-02-11T21:00:00Z",
		},
		{
			name:    "first matching format wins",
			value:   value.Bytes("01/02/2021"),
			formats: `["01/02/2006", "02/01/2006"]`,
			want:    "2021-01-02T00:00:00Z",
		},
		{
			name:    "order matters",
			value:   value.Bytes("01/02/2021"),
			formats: `["02/01/2006", "01/02/2006"]`,
			want:    "2021-02-01T00:00:00Z",
		},
		{
			name:    "later format matches",
			value:   value.Bytes("2021-02-11T16:00:00Z"),
			formats: `["02/01/2006", "2006-01-02T15:04:05Z07:00"]`,
			want:    "2021-02-11T16:00:00Z",
		},
		{
			name:    "timestamp passes through",
			value:   value.NewTimestamp(time.Date(2020, 1, 1, 12, 30, 0, 0, time.UTC)),
			formats: `["nothing like it"]`,
			want:    "2020-01-01T12:30:00Z",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(ctx context.Context, t *testctx.T) {
			src := "parse_go_timestamp(.v, formats: " + tt.formats
			if tt.timezone != "" {
				src += fmt.Sprintf(", timezone: %q", tt.timezone)
			}
			src += ")"

			v, err := resolve(t, compile(ctx, t, src), value.Object{"v": tt.value})
			require.NoError(t, err)

			ts, ok := v.(value.Timestamp)
			require.True(t, ok, "got %s", v)
			require.Equal(t, tt.want, ts.Time.Format(time.RFC3339Nano))
			require.Equal(t, time.UTC, ts.Time.Location())
		})
	}
}

func (ParseGoTimestampSuite) TestUnableToConvert(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `parse_go_timestamp(.v, formats: ["2006-01-02", "02/01/2006"])`)

	for _, v := range []value.Value{
		value.Bytes("yesterday"),
		value.Bytes(""),
		value.Integer(1612915200),
		value.Null{},
		value.Array{value.Bytes("2021-02-11")},
	} {
		t.Run(v.String(), func(ctx context.Context, t *testctx.T) {
			_, err := resolve(t, prog, value.Object{"v": v})
			require.EqualError(t, err, "unable to convert value to timestamp")

			var exprErr *vrl.ExpressionError
			require.ErrorAs(t, err, &exprErr)
		})
	}
}

func (ParseGoTimestampSuite) TestProgramTimezone(ctx context.Context, t *testctx.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	src := `parse_go_timestamp!("16/10/2019 12:00:00", formats: ["02/01/2006 15:04:05"])`

	v, err := resolve(t, compile(ctx, t, src), nil)
	require.NoError(t, err)
	require.Equal(t, "t'2019-10-16T12:00:00Z'", v.String())

	v, err = resolve(t, compile(ctx, t, src, vrl.WithTimezone(paris)), nil)
	require.NoError(t, err)
	require.Equal(t, "t'2019-10-16T10:00:00Z'", v.String())

	v, err = resolve(t, compile(ctx, t, `parse_go_timestamp!("16/10/2019 12:00:00", formats: ["02/01/2006 15:04:05"], timezone: "UTC")`, vrl.WithTimezone(paris)), nil)
	require.NoError(t, err)
	require.Equal(t, "t'2019-10-16T12:00:00Z'", v.String())
}

func (ParseGoTimestampSuite) TestCompileErrors(ctx context.Context, t *testctx.T) {
	t.Run("dynamic format", func(ctx context.Context, t *testctx.T) {
		_, err := vrl.Compile(ctx, `parse_go_timestamp(.v, formats: [.layout])`)
		var static *vrl.ExpectedStaticExpressionError
		require.ErrorAs(t, err, &static)
		require.Equal(t, "formats", static.Keyword)
	})

	t.Run("formats not an array literal", func(ctx context.Context, t *testctx.T) {
		_, err := vrl.Compile(ctx, `parse_go_timestamp(.v, formats: .layouts)`)
		var unexpected *vrl.UnexpectedExpressionError
		require.ErrorAs(t, err, &unexpected)
		require.Equal(t, "formats", unexpected.Keyword)
	})

	t.Run("format not a string", func(ctx context.Context, t *testctx.T) {
		_, err := vrl.Compile(ctx, `parse_go_timestamp(.v, formats: ["2006", 1])`)
		var invalid *vrl.InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
		require.Equal(t, "formats", invalid.Keyword)
		require.Equal(t, "go_timestamp formats should be a string array", invalid.Reason)
	})

	t.Run("dynamic timezone", func(ctx context.Context, t *testctx.T) {
		_, err := vrl.Compile(ctx, `parse_go_timestamp(.v, formats: ["2006"], timezone: .tz)`)
		var static *vrl.ExpectedStaticExpressionError
		require.ErrorAs(t, err, &static)
		require.Equal(t, "timezone", static.Keyword)
	})

	for _, tz := range []string{"Mars/Olympus", "Local", ""} {
		t.Run(fmt.Sprintf("illegal timezone %q", tz), func(ctx context.Context, t *testctx.T) {
			_, err := vrl.Compile(ctx, fmt.Sprintf(`parse_go_timestamp(.v, formats: ["2006"], timezone: %q)`, tz))
			var invalid *vrl.InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, "timezone", invalid.Keyword)
			require.Equal(t, "go_timestamp timezone should be a legal timezone", invalid.Reason)

			var call *vrl.FunctionCallError
			require.ErrorAs(t, err, &call)
			require.Equal(t, "parse_go_timestamp", call.Ident)
		})
	}

	t.Run("constant variables are static", func(ctx context.Context, t *testctx.T) {
		compile(ctx, t, `layout = "2006-01-02"
zone = "Europe/Paris"
parse_go_timestamp(.v, formats: [layout, "02/01/2006"], timezone: zone)`)
	})

	t.Run("value kind never accepted", func(ctx context.Context, t *testctx.T) {
		_, err := vrl.Compile(ctx, `parse_go_timestamp(1, formats: ["2006"])`)
		require.ErrorIs(t, err, vrl.ErrArgumentKind)
	})
}

func (ParseGoTimestampSuite) TestFallibility(ctx context.Context, t *testctx.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`parse_go_timestamp(.v, formats: ["2006"])`, "timestamp, fallible"},
		{`parse_go_timestamp(t'2021-01-01T00:00:00Z', formats: ["2006"])`, "timestamp, fallible"},
		{`parse_go_timestamp!(.v, formats: ["2006"])`, "timestamp"},
		{`[parse_go_timestamp(.v, formats: ["2006"])]`, "array, fallible"},
		{`{ "ts": parse_go_timestamp(.v, formats: ["2006"]) }`, "object, fallible"},
		{`.ts = parse_go_timestamp(.v, formats: ["2006"])`, "timestamp, fallible"},
		{`parse_go_timestamp(.v, formats: ["2006"]) ?? t'2021-01-01T00:00:00Z'`, "timestamp"},
		{`to_unix_timestamp(parse_go_timestamp(.v, formats: ["2006"]))`, "integer, fallible"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(ctx context.Context, t *testctx.T) {
			require.Equal(t, tt.want, compile(ctx, t, tt.source).TypeDef().String())
		})
	}
}

func (ParseGoTimestampSuite) TestAssignedPathIsTimestamp(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.ts = parse_go_timestamp!(.ts, formats: ["2006-01-02"])`)
	require.True(t, prog.State().Target("ts").Equal(types.Timestamp()))

	// downstream functions see the narrowed type
	prog = compile(ctx, t, `.ts = parse_go_timestamp!(.ts, formats: ["2006-01-02"])
to_unix_timestamp(.ts)`)
	require.Equal(t, "integer", prog.TypeDef().String())
}

func (ParseGoTimestampSuite) TestConcurrentResolve(ctx context.Context, t *testctx.T) {
	prog := compile(ctx, t, `.ts = parse_go_timestamp!(.ts, formats: ["2006-01-02 15:04"], timezone: "Europe/Paris")`)

	const n = 100
	results := make([]value.Value, n)
	eg := new(errgroup.Group)
	eg.SetLimit(8)
	for i := range n {
		eg.Go(func() error {
			_, target, err := prog.Run(value.Object{
				"ts": value.Bytes(fmt.Sprintf("2021-02-11 %02d:%02d", i%24, i%60)),
			})
			results[i] = target
			return err
		})
	}
	require.NoError(t, eg.Wait())

	for i, res := range results {
		want := time.Date(2021, 2, 11, i%24, i%60, 0, 0, time.FixedZone("CET", 3600))
		got := res.(value.Object)["ts"].(value.Timestamp)
		require.True(t, want.Equal(got.Time), "record %d: %s", i, got)
	}
}

func TestGoLayout(t *testing.T) {
	tests := map[string]string{
		"02-Jan-2006 15:04 +07:00":   "02-Jan-2006 15:04 -07:00",
		"2006-01-02T15:04:05+0700":   "2006-01-02T15:04:05-0700",
		"15:04:05 +07:00:00":         "15:04:05 -07:00:00",
		"15:04:05 +070000":           "15:04:05 -070000",
		"15:04 +07":                  "15:04 -07",
		"2006-01-02T15:04:05Z07:00":  "2006-01-02T15:04:05Z07:00",
		"02/01/2006 15:04:05 -07:00": "02/01/2006 15:04:05 -07:00",
	}
	for in, want := range tests {
		assert.Equal(t, want, goLayout(in), in)
	}
}
