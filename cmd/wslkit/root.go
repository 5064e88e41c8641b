package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wslkit/internal/app"
	"github.com/felixgeelhaar/wslkit/internal/catalog"
	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "wslkit",
	Short: "Idempotent installer for a WSL development environment",
	Long: `wslkit installs a curated development environment inside WSL.

Run without arguments to pick components from a menu. Every component is
probed first, so running wslkit again only installs what is missing.
Steps that fail are reported in the summary and never stop the run.`,
	Args:          cobra.NoArgs,
	RunE:          runMenu,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run; the
// step in progress finishes and the rest are reported as skipped.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/wslkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "probe and report without changing anything")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(versionCmd)
}

func runMenu(cmd *cobra.Command, _ []string) error {
	return runInteractive(cmd, "")
}

// runInteractive opens the menu for group and prints the summary.
func runInteractive(cmd *cobra.Command, group string) error {
	if !isTerminal() {
		return config.NewUserError(config.ErrCodeNotTerminal, "the menu needs an interactive terminal").
			WithSuggestion("Use 'wslkit install <components>' in scripts and pipelines.")
	}

	a, done, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	_, err = a.Interactive(cmd.Context(), group, dryRun)
	return err
}

// isTerminal reports whether stdin and stdout are attached to a terminal.
var isTerminal = func() bool {
	return isTTY(os.Stdin) && isTTY(os.Stdout)
}

func isTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newApp loads the configuration and wires the App against the host.
// The returned function closes the log file.
var newApp = func(cmd *cobra.Command) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	deps, closeLog, err := app.RealDeps(cfg, cmd.ErrOrStderr(), level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cmd.OutOrStdout(), cfg, deps)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	return a, func() { _ = closeLog() }, nil
}

// loadConfig loads the config file named by --config, WSLKIT_CONFIG or
// the XDG config directory, merged over the defaults.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader = loader.WithGetenv(func(key string) string {
			if key == config.EnvConfigPath {
				return cfgFile
			}
			return os.Getenv(key)
		})
	}
	return loader.Load()
}

// completeComponents completes component keys not yet on the command line.
func completeComponents(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	used := make(map[string]bool, len(args))
	for _, a := range args {
		used[a] = true
	}
	keys := make([]string, 0, len(catalog.Keys))
	for _, k := range catalog.Keys {
		if !used[k] {
			keys = append(keys, k)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

// formatError returns a user-friendly error message.
// With verbose=false: shows the code, message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		return list.Format()
	}
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		if !verbose {
			plain := *userErr
			plain.Underlying = nil
			return plain.Format()
		}
		return userErr.Format()
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
