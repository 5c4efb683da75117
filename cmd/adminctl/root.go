package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Admin tooling for the arq server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newHashPasswordCmd(),
		newGenSecretCmd(),
		newMintSessionCmd(),
		newPoliciesCmd(),
	)
	return root
}
