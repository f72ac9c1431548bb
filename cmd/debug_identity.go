package cmd

import (
	"context"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/cipher"
	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/internal/verifier"
)

var identityFlags requestFlags

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Verify encrypted credentials against the configured directory",
	Long: `Decrypts the credential bundle and runs the configured verifier (LDAP or REST)
locally, then dumps the resulting identity including all directory attributes.
The policy rules are not evaluated, use "tokenizer why" for that.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		c, err := cipher.NewFromConfig(cfg.Cipher)
		if err != nil {
			return err
		}
		v, err := verifier.New(cfg.Verifier)
		if err != nil {
			return err
		}

		req := identityFlags.request()
		creds, err := c.Decrypt(req.EncryptedCredentials)
		if err != nil {
			return logError(err, "", "failed to decrypt credentials")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Verifier.Timeout)
		defer cancel()

		log.Info().Str("verifier", v.Type()).Str("username", creds.Username).Msg("Verifying identity...")
		identity, err := v.Verify(ctx, core.VerifyRequest{
			Credentials:          creds,
			EncryptedCredentials: req.EncryptedCredentials,
			ConsumerID:           req.ConsumerID,
			FunctionalID:         req.FunctionalID,
			TransactionID:        req.TransactionID,
		})
		if err != nil {
			return logError(err, "", "verification failed")
		}
		if !identity.Verified {
			log.Warn().Msgf("%s identity not found", redCross)
		} else {
			logSuccess("identity verified as %s", bold(identity.Subject))
		}

		cs := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
		cs.Dump(identity)
		return nil
	},
}

func init() {
	debugCmd.AddCommand(identityCmd)

	identityFlags.bind(identityCmd.Flags(), false)

	_ = identityCmd.MarkFlagRequired("credentials")
}
