package ctl

import "github.com/spf13/cobra"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the expensectl version",
		Args:  cobra.NoArgs,
		// Skip the root setup; printing a version needs no configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s\n", BuildShortSHA)
		},
	}
}
