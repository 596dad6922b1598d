package main

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/hanzai/vrl/pkg/ioctx"
)

func checkCmd(cfg *Config) *cobra.Command {
	var (
		program string
		dump    bool
	)

	cmd := &cobra.Command{
		Use:   "check [flags] [file]",
		Short: "Compile a program and print its type",
		Example: `  vrl check -p 'parse_go_timestamp(.ts, formats: ["2006-01-02"])'
  vrl check --dump ./remap.vrl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := programSource(program, args)
			if err != nil {
				return err
			}
			prog, err := compileProgram(ctx, cfg, src, args)
			if err != nil {
				return err
			}

			w := ioctx.StdoutFromContext(ctx)
			fmt.Fprintf(w, "type: %s\n", prog.TypeDef())
			state := prog.State()
			for _, name := range state.Locals() {
				b, _ := state.Local(name)
				fmt.Fprintf(w, "local %s: %s\n", name, b.Type)
			}
			if dump {
				fmt.Fprintln(w)
				fmt.Fprintln(w, prog)
				pretty.Fprintf(w, "%# v\n", prog.Root())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&program, "program", "p", "", "Program source, instead of a file")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the compiled expression tree")

	return cmd
}
