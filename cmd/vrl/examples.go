package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hanzai/vrl/pkg/ioctx"
	"github.com/hanzai/vrl/pkg/vrl"
)

func examplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples [name...]",
		Short: "Run every function's worked examples",
		Long: `Run every function's worked examples and report the ones whose outcome
differs from the documented result. Examples always run in UTC.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fns, err := selectFunctions(args)
			if err != nil {
				return err
			}
			opts := []vrl.Option{vrl.WithLogger(ioctx.LoggerFromContext(ctx))}

			w := ioctx.StdoutFromContext(ctx)
			failed := 0
			for _, fn := range fns {
				for _, ex := range fn.Examples() {
					if err := vrl.CheckExample(ctx, ex, opts...); err != nil {
						failed++
						fmt.Fprintf(w, "FAIL %s: %s\n", fn.Identifier(), err)
						continue
					}
					fmt.Fprintf(w, "ok   %s: %s\n", fn.Identifier(), ex.Title)
				}
			}
			if failed > 0 {
				return errors.Errorf("%d example(s) failed", failed)
			}
			return nil
		},
	}
}
