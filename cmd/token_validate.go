package cmd

import (
	"github.com/spf13/cobra"
)

var validateFlags requestFlags

var tokenValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a token against encrypted credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		validate := cli.ValidateToken
		if validateFlags.public {
			validate = cli.ValidateTokenPublic
		}

		res, correlation, err := validate(cmd.Context(), validateFlags.request())
		if err != nil {
			return logError(err, correlation, "token is not valid")
		}
		logSuccess("token is valid for %s", bold(res.Claims.Subject))
		return printResult(res)
	},
}

func init() {
	tokenCmd.AddCommand(tokenValidateCmd)

	validateFlags.bind(tokenValidateCmd.Flags(), true)
	tokenValidateCmd.Flags().BoolVar(&validateFlags.public, "public", false,
		"Use the public endpoint (no identity verification)")

	_ = tokenValidateCmd.MarkFlagRequired("credentials")
	_ = tokenValidateCmd.MarkFlagRequired("token")
}
