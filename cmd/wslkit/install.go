package main

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <component>...",
	Short: "Install components without the menu",
	Long: `Install brings the named components and everything they depend on
to their installed state. Components already in place are left alone.

Use --dry-run to see which steps would run.`,
	Example: `  wslkit install zsh node
  wslkit install --dry-run mcp-servers`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeComponents,
	RunE:              runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <component>...",
	Short: "Revert installed components",
	Long: `Uninstall reverts the steps of the named components in reverse order.
Dependencies stay installed, and components that depend on a removed one
are reported but not touched. Files wslkit rewrote are restored from their
latest backup.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeComponents,
	RunE:              runUninstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, done, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	_, err = a.Install(cmd.Context(), args, dryRun)
	return err
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, done, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	_, err = a.Uninstall(cmd.Context(), args, dryRun)
	return err
}
