package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var createFlags requestFlags

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a token for encrypted credentials",
	Example: `  tokenizer token create --server http://localhost:8080 \
    --credentials "$(tokenizer creds encrypt -u alice)" --consumer C1 --functional F1 --refresh-window 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		create := cli.CreateToken
		if createFlags.public {
			create = cli.CreateTokenPublic
		}

		log.Debug().Bool("public", createFlags.public).Msg("Creating token...")
		res, correlation, err := create(cmd.Context(), createFlags.request())
		if err != nil {
			return logError(err, correlation, "failed to create token")
		}
		logSuccess("token created for %s (expires %s)",
			bold(res.Token.Claims.Subject), res.Token.Claims.ExpiresAt.Local().Format("15:04:05"))
		return printResult(res)
	},
}

func init() {
	tokenCmd.AddCommand(tokenCreateCmd)

	createFlags.bind(tokenCreateCmd.Flags(), false)
	tokenCreateCmd.Flags().DurationVar(&createFlags.refreshWindow, "refresh-window", 0,
		"Request a refresh token valid for this duration")
	tokenCreateCmd.Flags().BoolVar(&createFlags.public, "public", false,
		"Use the public endpoint (no identity verification)")

	_ = tokenCreateCmd.MarkFlagRequired("credentials")
}
