package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/internal/token"
)

var (
	mintSubject string
	mintFlags   requestFlags
)

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Force-mint a token locally for testing",
	Long: `Signs a token with the configured signing secret without decrypting credentials
or asking the directory. Useful to test consumers of the token.`,
	Example: `  tokenizer debug mint -c tokenizer.yaml --subject alice --consumer C1 --functional F1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		issuer, err := token.NewFromConfig(cfg.Signing, cfg.Token)
		if err != nil {
			return err
		}

		tok, err := issuer.Create(mintSubject, mintFlags.request())
		if err != nil {
			return logError(err, "", "minting failed")
		}
		log.Debug().Msg("Token minted successfully")

		return printResult(&core.WorkflowResult{StatusCode: core.StatusOK, Token: tok})
	},
}

func init() {
	debugCmd.AddCommand(mintCmd)

	mintCmd.Flags().StringVar(&mintSubject, "subject", "", "Subject of the token")
	mintCmd.Flags().StringVar(&mintFlags.consumerID, "consumer", "", "Consumer API id")
	mintCmd.Flags().StringVar(&mintFlags.functionalID, "functional", "", "Functional id")
	mintCmd.Flags().StringVar(&mintFlags.transactionID, "transaction", "", "Transaction id")
	mintCmd.Flags().DurationVar(&mintFlags.refreshWindow, "refresh-window", 0,
		"Also mint a refresh token valid for this duration")

	_ = mintCmd.MarkFlagRequired("subject")
}
