package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/generator"
)

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List the available stacks and the generators each combination runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printStacks(cmd.OutOrStdout())
	},
}

func printStacks(w io.Writer) error {
	fmt.Fprintln(w, "Selectors:")
	for _, group := range []struct {
		key     string
		choices []string
	}{
		{"backend", []string{config.BackendExpressTS, config.BackendDjango}},
		{"frontend", []string{config.FrontendReactTS}},
		{"auth", []string{config.AuthJWT}},
		{"database", []string{config.DatabasePostgres}},
	} {
		fmt.Fprintf(w, "  --%-10s %s\n", config.Keys[group.key], strings.Join(group.choices, ", "))
	}

	fmt.Fprintln(w, "\nGenerator order with every option selected:")
	for _, backend := range []string{config.BackendExpressTS, config.BackendDjango} {
		cfg := &config.Config{
			Backend:  backend,
			Frontend: config.FrontendReactTS,
			Auth:     config.AuthJWT,
			Database: config.DatabasePostgres,
		}
		plan, err := generator.Plan(cfg, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-10s %s\n", backend, strings.Join(generator.Names(plan), " -> "))
	}
	return nil
}
