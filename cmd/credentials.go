package cmd

import "github.com/spf13/cobra"

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Encrypt and decrypt credential bundles",
	Long: `Credential bundles are sent by callers in the "credentials" header.
These commands use the cipher section of the config file.`,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}
