package main

import (
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/hanzai/vrl/pkg/ioctx"
	"github.com/hanzai/vrl/pkg/vrl"
)

var (
	identStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	argNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	argTypeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	docTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func functionsCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "functions [name...]",
		Short: "List the available functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fns, err := selectFunctions(args)
			if err != nil {
				return err
			}

			var sb strings.Builder
			for i, fn := range fns {
				if i > 0 {
					sb.WriteString("\n")
				}
				renderFunction(&sb, fn)
			}

			out := sb.String()
			if noColor || os.Getenv("NO_COLOR") != "" {
				out = ansi.Strip(out)
			}
			_, err = fmt.Fprint(ioctx.StdoutFromContext(cmd.Context()), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable styled output")

	return cmd
}

func selectFunctions(names []string) ([]vrl.Function, error) {
	if len(names) == 0 {
		return vrl.DefaultRegistry.Functions(), nil
	}
	fns := make([]vrl.Function, 0, len(names))
	for _, name := range names {
		fn, ok := vrl.DefaultRegistry.Lookup(name)
		if !ok {
			return nil, &vrl.UndefinedFunctionError{Ident: name}
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func renderFunction(sb *strings.Builder, fn vrl.Function) {
	params := make([]string, len(fn.Parameters()))
	for i, p := range fn.Parameters() {
		name := p.Keyword
		if !p.Required {
			name += "?"
		}
		params[i] = argNameStyle.Render(name) + ": " + argTypeStyle.Render(p.Kind.String())
	}
	fmt.Fprintf(sb, "%s(%s)\n", identStyle.Render(fn.Identifier()), strings.Join(params, ", "))
	fmt.Fprintf(sb, "  %s\n", docTextStyle.Render(fn.Summary()))

	for _, p := range fn.Parameters() {
		if p.Description == "" {
			continue
		}
		fmt.Fprintf(sb, "    %s %s\n", argNameStyle.Render(p.Keyword), dimStyle.Render(p.Description))
	}
}
