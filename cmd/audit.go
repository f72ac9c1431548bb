package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit log of a remote server",
	Long: `Reads the audit log of a Tokenizer server. Requires a login as one of the
subjects listed in admin.subjects of the server configuration.`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
