package main

import (
	"bufio"
	"bytes"
	"context"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hanzai/vrl/pkg/ioctx"
	"github.com/hanzai/vrl/pkg/value"
	"github.com/hanzai/vrl/pkg/vrl"
)

const (
	// records are read and written in batches so output order matches input
	// order without holding the whole stream.
	evalBatchSize = 1024

	maxRecordSize = 16 << 20
)

type evalOptions struct {
	program     string
	concurrency int
	dropOnError bool
	result      bool
}

func evalCmd(cfg *Config) *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:   "eval [flags] [file]",
		Short: "Run a program over JSON records read from stdin",
		Long: `Run a program over newline-delimited JSON records read from stdin.

Each record is resolved independently and concurrently. Records are written
to stdout in input order, after the program's assignments.`,
		Example: `  # Normalize a timestamp field
  echo '{"ts":"11-Feb-2021 16:00 +00:00"}' | \
    vrl eval -p '.ts = parse_go_timestamp!(.ts, formats: ["02-Jan-2006 15:04 +07:00"])'

  # Print each program result instead of the record
  vrl eval --result ./remap.vrl < events.ndjson`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := programSource(opts.program, args)
			if err != nil {
				return err
			}
			prog, err := compileProgram(ctx, cfg, src, args)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("concurrency") {
				opts.concurrency = cfg.settings.Concurrency()
			}
			if !cmd.Flags().Changed("drop-on-error") {
				opts.dropOnError = cfg.settings.Eval.DropOnError
			}
			return runEval(ctx, prog, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "Program source, instead of a file")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Records resolved at once (default from vrl.toml, else GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.dropOnError, "drop-on-error", false, "Skip records that fail instead of stopping")
	cmd.Flags().BoolVar(&opts.result, "result", false, "Print each program result instead of the record")

	return cmd
}

type record struct {
	line int
	text []byte
}

type outcome struct {
	out  []byte
	kept bool
}

func runEval(ctx context.Context, prog *vrl.Program, opts evalOptions) error {
	scanner := bufio.NewScanner(ioctx.StdinFromContext(ctx))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	w := ioctx.StdoutFromContext(ctx)

	batch := make([]record, 0, evalBatchSize)
	flush := func() error {
		outcomes, err := evalBatch(ctx, prog, batch, opts)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			if !o.kept {
				continue
			}
			if _, err := w.Write(append(o.out, '\n')); err != nil {
				return errors.Wrap(err, "writing record")
			}
		}
		batch = batch[:0]
		return nil
	}

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		batch = append(batch, record{line: line, text: bytes.Clone(text)})
		if len(batch) == evalBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading records")
	}
	return flush()
}

func evalBatch(ctx context.Context, prog *vrl.Program, batch []record, opts evalOptions) ([]outcome, error) {
	logger := ioctx.LoggerFromContext(ctx)
	outcomes := make([]outcome, len(batch))

	eg, ctx := errgroup.WithContext(ctx)
	if opts.concurrency > 0 {
		eg.SetLimit(opts.concurrency)
	}
	for i, rec := range batch {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := evalRecord(prog, rec.text, opts.result)
			if err != nil {
				err = errors.Wrapf(err, "record on line %d", rec.line)
				if opts.dropOnError {
					logger.Warn("dropping record", "line", rec.line, "error", err)
					return nil
				}
				return err
			}
			outcomes[i] = outcome{out: out, kept: true}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func evalRecord(prog *vrl.Program, text []byte, result bool) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding JSON")
	}
	target, err := value.FromGo(raw)
	if err != nil {
		return nil, err
	}
	res, target, err := prog.Run(target)
	if err != nil {
		return nil, err
	}
	out := target
	if result {
		out = res
	}
	encoded, err := json.Marshal(value.ToGo(out))
	if err != nil {
		return nil, errors.Wrap(err, "encoding JSON")
	}
	return encoded, nil
}
