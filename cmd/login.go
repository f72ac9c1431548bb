package cmd

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/cliconfig"
	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/pkg/client"
)

const (
	loginConsumerID   = "tokenizer-cli"
	loginFunctionalID = "ADMIN"
)

var loginCmd = &cobra.Command{
	Use:   "login BUNDLE",
	Short: "Authenticate with a Tokenizer server",
	Long: `Exchanges an encrypted credential bundle for an access token.
The token is saved locally to allow future authenticated requests (like audit logs).`,
	Example: `  tokenizer login --server https://tokenizer.example.org "$(tokenizer creds encrypt -u alice)"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle := args[0]
		if bundle == "" {
			return fmt.Errorf("credentials cannot be empty")
		}

		server := f.RemoteAddr
		if server == "" {
			return fmt.Errorf("server address not configured, provide via --server or env")
		}
		u, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("parsing server URL: %w", err)
		}

		// the saved token must not be sent when requesting a new one
		cli := client.New(server)

		log.Info().Msgf("Requesting token from server %q...", u.Host)
		res, correlation, err := cli.CreateToken(cmd.Context(), core.CredentialRequest{
			EncryptedCredentials: bundle,
			ConsumerID:           loginConsumerID,
			FunctionalID:         loginFunctionalID,
		})
		if err != nil {
			return logError(err, correlation, "failed to login")
		}

		cfg, err := cliconfig.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.SetCredential(server, &cliconfig.Credential{
			Token:     res.Token.AccessToken,
			Subject:   res.Token.Claims.Subject,
			ExpiresAt: res.Token.Claims.ExpiresAt,
		}); err != nil {
			return err
		}
		if err := cliconfig.Save(cfg); err != nil {
			return logError(err, correlation, "login succeeded but could not save credentials")
		}

		logSuccess("saved credentials of %s for %s", bold(res.Token.Claims.Subject), bold(u.Host))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
