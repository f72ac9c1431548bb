package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/engine"
	"github.com/darmiel/tokenizer/internal/verifier"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Checks the config file for missing or invalid settings, builds the configured
verifier and compiles all policy rules. No connection to the directory is made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return logError(err, "", "Configuration is invalid.")
		}
		v, err := verifier.New(cfg.Verifier)
		if err != nil {
			return logError(err, "", "Verifier configuration is invalid.")
		}
		eng, err := engine.New(cfg.Policy.Rules)
		if err != nil {
			return logError(err, "", "Policy rules are invalid.")
		}
		log.Info().
			Str("verifier", v.Type()).
			Int("policy_rules", eng.Len()).
			Msg("Configuration is valid.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
