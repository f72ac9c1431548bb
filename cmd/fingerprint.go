package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/audit"
)

var (
	fingerprintType string
	fingerprintRaw  bool
)

var fingerprintCmd = &cobra.Command{
	Use:     "fingerprint [token]",
	Aliases: []string{"fp"},
	Short:   `Calculate the fingerprint of a token`,
	Long: `Calculates the fingerprint of a token.
This is the value stored in the audit log in the 'token_fingerprint' field,
so tokens can be looked up without storing them.`,
	Example: `  # Calculate the fingerprint of an issued token
  tokenizer fingerprint eyJhbGciOi...

  # Read the token from stdin
  echo "eyJhbGciOi..." | tokenizer fingerprint -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string

		if args[0] != "-" {
			token = args[0]
		} else {
			log.Debug().Msg("Reading token from stdin")

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read token from stdin: %w", err)
			}
			token = strings.TrimSpace(string(data))
		}

		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		fp := audit.CalculateFingerprint(fingerprintType, token)

		if fingerprintRaw {
			fmt.Println(fp)
		} else {
			fmt.Println("Type:       ", fingerprintType)
			fmt.Println("Fingerprint:", fp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringVar(&fingerprintType, "type", audit.TokenizerFingerprintType,
		fmt.Sprintf("Fingerprint type (one of: %s)", strings.Join(audit.RegisteredFingerprinterTypes(), ", ")))
	fingerprintCmd.Flags().BoolVarP(&fingerprintRaw, "raw", "r", false,
		"Output only the fingerprint value without additional text")
}
