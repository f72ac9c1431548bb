package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/pkg/client"
)

var auditInspectCmd = &cobra.Command{
	Use:     "inspect CORRELATION-ID",
	Short:   "Show full details of a specific audit log entry",
	Example: `  tokenizer audit inspect d0vk3l8g4f5c73a1b2c0`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		correlationID := args[0]
		if correlationID == "" {
			return fmt.Errorf("correlation ID cannot be empty")
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msgf("Retrieving entry with correlation ID '%s'...", correlationID)
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:         1,
			CorrelationID: correlationID,
		})
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log entry")
		}
		if len(audits) == 0 {
			log.Warn().Str("correlation_id", correlationID).Msg("no audit log entries found")
			return nil
		}

		entry := audits[0]

		printKV := func(key string, val any) {
			if s, ok := val.(string); ok && s == "" {
				val = faint("(none)")
			}
			fmt.Printf("  %-26s %v\n", faint(key)+":", val)
		}

		status := green("granted")
		if !entry.Granted {
			status = red("denied")
		}

		fmt.Println(bold("\n── Audit Entry ──"))
		printKV("Correlation ID", entry.ID)
		printKV("Time", entry.Time.Local().Format(time.RFC1123))
		printKV("Action", entry.Action)
		printKV("Decision", status)
		printKV("Status", entry.StatusCode)

		fmt.Println(bold("\n── Request ──"))
		printKV("Subject", entry.Subject)
		printKV("Consumer", entry.ConsumerID)
		printKV("Functional", entry.FunctionalID)
		printKV("Transaction", entry.TransactionID)
		printKV("Client IP", entry.ClientIP)
		printKV("Verifier", entry.Verifier)

		if !entry.Granted {
			fmt.Println(bold("\n── Failure ──"))
			printKV("Kind", entry.ErrorKind)
			printKV("Error", entry.Error)
			printKV("Policy Rule", entry.PolicyRule)
		}

		if entry.TokenFingerprint != "" {
			fmt.Println(bold("\n── Token ──"))
			printKV("Fingerprint", entry.TokenFingerprint)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditInspectCmd)
}
