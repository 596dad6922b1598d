package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hanzai/vrl/pkg/ioctx"
	_ "github.com/hanzai/vrl/pkg/stdlib"
	"github.com/hanzai/vrl/pkg/vrl"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	ConfigFile string
	Timezone   string

	// Set by setup from vrl.toml and the flags above.
	settings *vrl.Config
}

func main() {
	ctx := context.Background()
	ctx = ioctx.StdinToContext(ctx, os.Stdin)
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd(),
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg Config

	root := &cobra.Command{
		Use:   "vrl",
		Short: "Remap and check event records",
		Long: `vrl compiles remap programs and runs them over newline-delimited JSON
records. Settings are read from the nearest vrl.toml, and flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := setup(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Path to vrl.toml (searched from the working directory if not specified)")
	root.PersistentFlags().StringVar(&cfg.Timezone, "timezone", "", "Default timezone for programs, overriding vrl.toml")

	root.AddCommand(
		evalCmd(&cfg),
		checkCmd(&cfg),
		functionsCmd(),
		examplesCmd(),
	)

	return root
}

// setup loads vrl.toml, applies flag overrides and installs the logger.
func setup(ctx context.Context, cfg *Config) (context.Context, error) {
	settings := &vrl.Config{}
	switch {
	case cfg.ConfigFile != "":
		loaded, err := vrl.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	default:
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "getting working directory")
		}
		_, found, err := vrl.FindConfig(cwd)
		if err != nil {
			return nil, err
		}
		if found != nil {
			settings = found
		}
	}

	if cfg.Timezone != "" {
		settings.Timezone = cfg.Timezone
		if _, err := settings.Location(); err != nil {
			return nil, errors.Wrapf(err, "--timezone %s", cfg.Timezone)
		}
	}
	if cfg.Debug {
		settings.LogLevel = "debug"
	}
	cfg.settings = settings

	level, err := settings.Level()
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(ioctx.StderrFromContext(ctx), &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return ioctx.LoggerToContext(ctx, logger), nil
}

// compileOptions are the options every command compiles with.
func compileOptions(ctx context.Context, cfg *Config) ([]vrl.Option, error) {
	opts, err := cfg.settings.Options()
	if err != nil {
		return nil, err
	}
	return append(opts, vrl.WithLogger(ioctx.LoggerFromContext(ctx))), nil
}

// compileProgram compiles src, rendering syntax errors against the source.
func compileProgram(ctx context.Context, cfg *Config, src string, args []string) (*vrl.Program, error) {
	opts, err := compileOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	prog, err := vrl.Compile(ctx, src, opts...)
	var syntax *vrl.SyntaxError
	if errors.As(err, &syntax) {
		name := "<program>"
		if len(args) == 1 {
			name = args[0]
		}
		return nil, errors.New(strings.TrimSuffix(syntax.Highlight(name, src), "\n"))
	}
	return prog, err
}

// programSource returns the program given with --program, or the contents of
// the file named by the single argument.
func programSource(program string, args []string) (string, error) {
	switch {
	case program != "" && len(args) > 0:
		return "", errors.New("pass either --program or a file, not both")
	case program != "":
		return program, nil
	case len(args) == 1:
		src, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", args[0])
		}
		return string(src), nil
	default:
		return "", errors.New("no program given; pass --program or a file")
	}
}
