package main

import (
	"github.com/spf13/cobra"
)

var awsCmd = &cobra.Command{
	Use:   "aws",
	Short: "AWS profile helpers used by the shell aliases",
}

var (
	awsProfilesNames bool
	awsPromptZsh     bool
)

var awsProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List profiles from the AWS config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, done, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer done()

		return a.AWSProfiles(awsProfilesNames)
	},
}

var awsPromptCmd = &cobra.Command{
	Use:   "prompt [profile]",
	Short: "Print the prompt segment for a profile",
	Long: `Prompt prints "aws:<profile>" colored by environment: red for
production, yellow for staging and green for development profiles.
Without an argument AWS_PROFILE is used; nothing is printed when it is
unset. --zsh writes zsh prompt escapes for use in PROMPT or RPROMPT.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer done()

		profile := ""
		if len(args) == 1 {
			profile = args[0]
		}
		return a.AWSPrompt(profile, awsPromptZsh)
	},
}

func init() {
	awsProfilesCmd.Flags().BoolVar(&awsProfilesNames, "names", false, "print only profile names, one per line")
	awsPromptCmd.Flags().BoolVar(&awsPromptZsh, "zsh", false, "write zsh prompt escapes instead of ANSI colors")

	awsCmd.AddCommand(awsProfilesCmd)
	awsCmd.AddCommand(awsPromptCmd)
	rootCmd.AddCommand(awsCmd)
}
