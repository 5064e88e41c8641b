package main

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"status"},
	Short:   "Show which components are installed",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, done, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer done()

		a.List(cmd.Context())
		return nil
	},
}

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Pick AI SDKs and MCP servers from a menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInteractive(cmd, component.GroupAI)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(aiCmd)
}
