package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/promise/cmd/promise/cmd/addmissing"
	"github.com/agentstation/promise/cmd/promise/cmd/check"
	"github.com/agentstation/promise/cmd/promise/cmd/exportmisses"
	"github.com/agentstation/promise/cmd/promise/cmd/list"
	"github.com/agentstation/promise/cmd/promise/cmd/show"
	"github.com/agentstation/promise/cmd/promise/cmd/version"
	"github.com/agentstation/promise/internal/cmd/output"
	"github.com/agentstation/promise/pkg/errors"
)

// Execute runs the promise CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "promise",
		Short:   "Reconcile donated-book pallets against Open Library",
		Version: a.version,
		Long: `Promise tracks pallets of donated books listed in the Internet Archive
promise-items collection and reconciles them against the Open Library catalog.

It records which ISBNs the catalog lacks, remembers which of them were
missing the first time they were seen, exports those original misses, and
can ask the catalog to import the ones still missing.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "inspect", Title: "Inspection Commands:"},
		&cobra.Group{ID: "management", Title: "Management Commands:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.promise.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output, no progress bars (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", "", "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.DataDir, "data-dir", a.config.DataDir, "directory for snapshots, exports and the run lock")
	flags.StringVar(&a.config.Store, "store", a.config.Store, "snapshot backend: yaml, json, sqlite")

	rootCmd.SetVersionTemplate("promise {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// Flags are bound to config fields, so read them before a reload replaces the config.
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")
	dataDir := mustGetString(cmd, "data-dir")
	store := mustGetString(cmd, "store")

	// An explicit config file replaces the configuration loaded at startup.
	if cmd.Flags().Changed("config") {
		reloaded, err := LoadConfig(mustGetString(cmd, "config"))
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = reloaded.LogLevel
		}
		if !cmd.Flags().Changed("data-dir") {
			dataDir = reloaded.DataDir
		}
		if !cmd.Flags().Changed("store") {
			store = reloaded.Store
		}
		*a.config = *reloaded
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)
	a.config.DataDir = dataDir
	a.config.Store = store

	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return errors.WrapValidation("format", err)
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	cmd.SetContext(a.withRunContext(cmd.Context()))
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(check.NewCommand(a))
	rootCmd.AddCommand(addmissing.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(show.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(exportmisses.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
