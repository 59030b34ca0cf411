package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/project"
	"shireesh.com/stackgen/internal/report"
	"shireesh.com/stackgen/internal/tui"
)

type rootOptions struct {
	configFile string
	outDir     string
	archive    string
	noInput    bool
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "stackgen [project-name]",
	Short: "Scaffold full-stack projects from selectable backend, frontend, auth and database stacks",
	Long: `stackgen creates a project directory and runs one generator per selected
stack: an Express + TypeScript or Django backend, a React + TypeScript frontend,
JWT authentication and a PostgreSQL database.

Options come from stackgen.yaml, STACKGEN_* environment variables and flags,
in increasing order of precedence. Missing choices are asked for when stdin is
a terminal, unless --no-input is given.`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) > 1 {
			return generr.Newf(generr.EUsage, "expected at most one project name, got %d arguments", len(args))
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&rootOpts.configFile, "config", "c", "", "config file (default ./stackgen.yaml if present)")
	f.StringVarP(&rootOpts.outDir, "out", "o", ".", "directory the project is created in")
	f.StringVar(&rootOpts.archive, "archive", "", "also write the finished project to this zip file")
	f.BoolVar(&rootOpts.noInput, "no-input", false, "never prompt; fail on missing options instead")
	addConfigFlags(f)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return generr.Wrap(generr.EUsage, "invalid flags", err)
	})
	rootCmd.AddCommand(stacksCmd, tokenCmd)
}

// addConfigFlags registers one flag per config key. Defaults live in
// config.Defaults so flags only override what was actually passed.
func addConfigFlags(f *pflag.FlagSet) {
	f.StringP(config.Keys["project_name"], "n", "", "project name, also the directory name")
	f.Int(config.Keys["backend_port"], 0, "port the backend listens on")
	f.Int(config.Keys["frontend_port"], 0, "port of the frontend dev server")
	f.String(config.Keys["backend"], "", "backend stack: express-ts or django")
	f.String(config.Keys["frontend"], "", "frontend stack: react-ts")
	f.String(config.Keys["auth"], "", "auth stack: jwt")
	f.String(config.Keys["database"], "", "database: postgres")
	f.String(config.Keys["schema_file"], "", "SQL schema to validate and ship with the postgres database")
	f.String(config.Keys["package_manager"], "", "npm, pnpm or yarn (default npm)")
	f.String(config.Keys["python"], "", "python interpreter for Django (default python3)")
	f.Duration(config.Keys["install_timeout"], 0, "time limit for each install or scaffold command (default 10m)")
	f.Bool(config.Keys["capture_output"], false, "capture child process output instead of streaming it")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if len(args) == 1 {
		if flags.Changed(config.Keys["project_name"]) {
			return generr.New(generr.EUsage, "give the project name either as an argument or with --name, not both")
		}
		if err := flags.Set(config.Keys["project_name"], args[0]); err != nil {
			return generr.Wrap(generr.EUsage, "invalid project name", err)
		}
	}

	cfg, err := config.Load(rootOpts.configFile, flags)
	if err != nil {
		return err
	}
	if !rootOpts.noInput && tui.Interactive() {
		if err := fill(cfg, flags); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generating %s\n", cfg)
	rec, err := project.Create(ctx, cfg, project.Options{
		OutDir:  rootOpts.outDir,
		Archive: rootOpts.archive,
		Log:     func(msg string) { fmt.Fprintln(out, msg) },
	})
	if rec != nil {
		fmt.Fprintln(out)
		report.Results(out, rec.Results())
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := report.Tree(out, rec.Dir, filepath.Base(rec.Dir)); err != nil {
		return err
	}
	if rec.Archive != "" {
		fmt.Fprintf(out, "\nArchive written to %s\n", rec.Archive)
	}
	return nil
}

// Execute runs the CLI and exits with the code of the error, if any.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		generr.Print(os.Stderr, err)
		os.Exit(generr.ExitCode(err))
	}
}
