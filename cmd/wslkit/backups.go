package main

import (
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:     "backups <path>",
	Short:   "List the backups wslkit kept of a file",
	Example: "  wslkit backups ~/.zshrc",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer done()

		_, err = a.Backups(args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(backupsCmd)
}
