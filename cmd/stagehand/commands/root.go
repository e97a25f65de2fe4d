// Package commands implements the CLI commands for the stagehand build orchestrator.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/app"
	"go.trai.ch/stagehand/internal/build"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
)

// CLI represents the command line interface for stagehand.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	configPath string
	envFile    string
	jsonLogs   bool
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, goalNames []string, opts app.RunOptions) error
	Goals(ctx context.Context, configPath string) ([]string, error)
	Paths(ctx context.Context, configPath string, f resolver.Filter, w io.Writer) error
	SetLogFormat(json bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "Staged bootstrap builds for self-hosting compilers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", domain.ConfigFileName, "Persisted configuration written by configure")
	pf.StringVar(&c.envFile, "env-file", domain.EnvFileName, "Dotenv file holding invocation options")
	pf.BoolVar(&c.jsonLogs, "json-logs", false, "Write logs as JSON")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		c.app.SetLogFormat(c.jsonLogs)
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newGoalsCmd())
	rootCmd.AddCommand(c.newPathsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
